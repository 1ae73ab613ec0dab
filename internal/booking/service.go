package booking

import (
	"context"
	"errors"
	"time"

	"classbook/internal/logger"
	"classbook/internal/metrics"
)

// Mailer queues guest notifications. Delivery is asynchronous; a failed
// enqueue never fails the booking.
type Mailer interface {
	QueueBookingConfirmation(b *ClassBooking, s *SessionSummary)
	QueueBookingCancellation(b *ClassBooking, s *SessionSummary)
}

type Service interface {
	CreateBooking(ctx context.Context, sessionID int, req *CreateBookingRequest) (*ClassBooking, error)
	GetBookingByCode(ctx context.Context, code string) (*BookingWithSession, error)
	CancelBookingByCode(ctx context.Context, code, guestEmail string) (*ClassBooking, error)
	UpdateStatus(ctx context.Context, id int, status string) (*ClassBooking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]ClassBooking, error)
	GetStats(ctx context.Context, from, to *time.Time) (*BookingStats, error)
}

type service struct {
	repo   Repository
	mailer Mailer
}

func NewService(repo Repository, mailer Mailer) Service {
	return &service{repo: repo, mailer: mailer}
}

func (s *service) CreateBooking(ctx context.Context, sessionID int, req *CreateBookingRequest) (*ClassBooking, error) {
	code := NewConfirmationCode()
	b, err := s.repo.CreateBooking(ctx, sessionID, req, code)
	if err != nil {
		metrics.RecordBooking(bookingOutcome(err))
		return nil, err
	}
	metrics.RecordBooking("confirmed")
	logger.Info("booking confirmed",
		"booking_id", b.ID,
		"session_id", sessionID,
		"confirmation_code", b.ConfirmationCode)

	if s.mailer != nil {
		if summary, err := s.repo.GetSessionSummary(ctx, sessionID); err == nil {
			s.mailer.QueueBookingConfirmation(b, summary)
		} else {
			logger.Error("failed to load session summary for confirmation email",
				"session_id", sessionID, "error", err)
		}
	}
	return b, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrSessionCancelled):
		return "session_cancelled"
	case errors.Is(err, ErrDuplicateBooking):
		return "duplicate"
	default:
		return "error"
	}
}

func (s *service) GetBookingByCode(ctx context.Context, code string) (*BookingWithSession, error) {
	return s.repo.GetBookingByCode(ctx, code)
}

func (s *service) CancelBookingByCode(ctx context.Context, code, guestEmail string) (*ClassBooking, error) {
	b, err := s.repo.CancelBookingByCode(ctx, code, guestEmail)
	if err != nil {
		return nil, err
	}
	metrics.RecordBookingCancellation()
	logger.Info("booking cancelled by guest", "booking_id", b.ID, "session_id", b.SessionID)

	if s.mailer != nil {
		if summary, err := s.repo.GetSessionSummary(ctx, b.SessionID); err == nil {
			s.mailer.QueueBookingCancellation(b, summary)
		}
	}
	return b, nil
}

// UpdateStatus is the staff path. Transitions run forward only: a confirmed
// booking can become cancelled, no_show, or completed, and terminal states
// stay terminal. Cancelling here releases the spot like a guest cancel.
func (s *service) UpdateStatus(ctx context.Context, id int, status string) (*ClassBooking, error) {
	switch status {
	case StatusCancelled:
		b, err := s.repo.CancelBookingByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotCancellable) {
				return nil, ErrStatusTransition
			}
			return nil, err
		}
		metrics.RecordBookingCancellation()
		logger.Info("booking cancelled by staff", "booking_id", id)
		return b, nil
	case StatusNoShow, StatusCompleted:
		return s.repo.MarkBookingStatus(ctx, id, status)
	default:
		return nil, ErrStatusTransition
	}
}

func (s *service) ListBookings(ctx context.Context, f BookingFilter) ([]ClassBooking, error) {
	return s.repo.ListBookings(ctx, f)
}

func (s *service) GetStats(ctx context.Context, from, to *time.Time) (*BookingStats, error) {
	return s.repo.GetStats(ctx, from, to)
}
