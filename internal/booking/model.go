package booking

import "time"

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
	StatusCompleted = "completed"
)

// ClassBooking is a guest reservation against a class session. Guests are
// not accounts; the confirmation code is the only handle they hold.
type ClassBooking struct {
	ID               int        `db:"id" json:"id"`
	SessionID        int        `db:"session_id" json:"session_id"`
	GuestName        string     `db:"guest_name" json:"guest_name"`
	GuestEmail       string     `db:"guest_email" json:"guest_email"`
	GuestPhone       *string    `db:"guest_phone" json:"guest_phone,omitempty"`
	Status           string     `db:"status" json:"status"`
	ConfirmationCode string     `db:"confirmation_code" json:"confirmation_code"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	CancelledAt      *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// SessionSummary carries the session details embedded in confirmation
// emails and lookup responses.
type SessionSummary struct {
	ID         int       `db:"id" json:"id"`
	ClassName  string    `db:"class_name" json:"class_name"`
	BranchName string    `db:"branch_name" json:"branch_name"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
}

type CreateBookingRequest struct {
	GuestName  string  `json:"guest_name" binding:"required"`
	GuestEmail string  `json:"guest_email" binding:"required,email"`
	GuestPhone *string `json:"guest_phone,omitempty"`
}

type CancelBookingRequest struct {
	GuestEmail string `json:"guest_email" binding:"required,email"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=cancelled no_show completed"`
}

type BookingWithSession struct {
	ClassBooking
	Session SessionSummary `json:"session"`
}

type BookingFilter struct {
	SessionID  *int
	Status     *string
	GuestEmail *string
}

type BookingStats struct {
	Total     int `db:"total" json:"total"`
	Confirmed int `db:"confirmed" json:"confirmed"`
	Cancelled int `db:"cancelled" json:"cancelled"`
	NoShow    int `db:"no_show" json:"no_show"`
	Completed int `db:"completed" json:"completed"`
}
