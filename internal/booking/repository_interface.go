package booking

import (
	"context"
	"time"
)

type Repository interface {
	// CreateBooking reserves one spot atomically: the session's
	// booked_count is incremented only while it is below capacity and the
	// session is not cancelled, and the booking row is inserted in the
	// same transaction.
	CreateBooking(ctx context.Context, sessionID int, req *CreateBookingRequest, code string) (*ClassBooking, error)
	GetBookingByID(ctx context.Context, id int) (*ClassBooking, error)
	GetBookingByCode(ctx context.Context, code string) (*BookingWithSession, error)
	// CancelBookingByCode releases the spot when the supplied guest email
	// matches the booking. Only confirmed bookings can be cancelled.
	CancelBookingByCode(ctx context.Context, code, guestEmail string) (*ClassBooking, error)
	CancelBookingByID(ctx context.Context, id int) (*ClassBooking, error)
	// MarkBookingStatus moves a confirmed booking to no_show or
	// completed without touching the session's booked_count.
	MarkBookingStatus(ctx context.Context, id int, status string) (*ClassBooking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]ClassBooking, error)
	GetSessionSummary(ctx context.Context, sessionID int) (*SessionSummary, error)
	GetStats(ctx context.Context, from, to *time.Time) (*BookingStats, error)
}
