package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrSessionNotFound = errors.New("class session not found")
	// ErrSessionCancelled rejects bookings against a cancelled session.
	ErrSessionCancelled = errors.New("class session is cancelled")
	// ErrCapacityExceeded means booked_count reached capacity; the count
	// never passes capacity even under concurrent requests.
	ErrCapacityExceeded = errors.New("class session is full")
	// ErrDuplicateBooking rejects a second confirmed booking for the same
	// guest email on one session. A retried request therefore cannot
	// double-book.
	ErrDuplicateBooking = errors.New("guest already has a confirmed booking for this session")
	ErrEmailMismatch    = errors.New("guest email does not match booking")
	ErrNotCancellable   = errors.New("only confirmed bookings can be cancelled")
	// ErrStatusTransition rejects status changes from a terminal state.
	ErrStatusTransition = errors.New("booking is not in a confirmed state")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const bookingColumns = `id, session_id, guest_name, guest_email, guest_phone,
	status, confirmation_code, created_at, cancelled_at`

func isDuplicateBookingViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) &&
		pqErr.Code == "23505" &&
		pqErr.Constraint == "idx_class_bookings_session_guest"
}

func (r *repository) CreateBooking(ctx context.Context, sessionID int, req *CreateBookingRequest, code string) (*ClassBooking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var duplicate bool
	err = tx.GetContext(ctx, &duplicate, `
		SELECT EXISTS (
			SELECT 1 FROM class_bookings
			WHERE session_id = $1 AND LOWER(guest_email) = LOWER($2) AND status = 'confirmed'
		)`, sessionID, req.GuestEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate booking: %w", err)
	}
	if duplicate {
		return nil, ErrDuplicateBooking
	}

	// The conditional increment is the capacity gate: concurrent
	// transactions serialize on the session row, and only those that see
	// booked_count < capacity get through.
	result, err := tx.ExecContext(ctx, `
		UPDATE class_sessions
		SET booked_count = booked_count + 1
		WHERE id = $1 AND is_cancelled = FALSE AND booked_count < capacity`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve spot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var state struct {
			IsCancelled bool `db:"is_cancelled"`
			BookedCount int  `db:"booked_count"`
			Capacity    int  `db:"capacity"`
		}
		err = tx.GetContext(ctx, &state,
			`SELECT is_cancelled, booked_count, capacity FROM class_sessions WHERE id = $1`, sessionID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to inspect session: %w", err)
		}
		if state.IsCancelled {
			return nil, ErrSessionCancelled
		}
		return nil, ErrCapacityExceeded
	}

	b := &ClassBooking{
		SessionID:        sessionID,
		GuestName:        req.GuestName,
		GuestEmail:       req.GuestEmail,
		GuestPhone:       req.GuestPhone,
		Status:           StatusConfirmed,
		ConfirmationCode: code,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO class_bookings (session_id, guest_name, guest_email, guest_phone, status, confirmation_code)
		VALUES ($1, $2, $3, $4, 'confirmed', $5)
		RETURNING id, created_at`,
		sessionID, req.GuestName, req.GuestEmail, req.GuestPhone, code,
	).Scan(&b.ID, &b.CreatedAt)
	if isDuplicateBookingViolation(err) {
		// Two requests for the same guest can both pass the duplicate
		// check; the partial unique index catches the loser here.
		return nil, ErrDuplicateBooking
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return b, nil
}

func (r *repository) GetBookingByID(ctx context.Context, id int) (*ClassBooking, error) {
	var b ClassBooking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM class_bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (r *repository) GetBookingByCode(ctx context.Context, code string) (*BookingWithSession, error) {
	query := `
		SELECT b.id, b.session_id, b.guest_name, b.guest_email, b.guest_phone,
		       b.status, b.confirmation_code, b.created_at, b.cancelled_at,
		       s.id AS "session.id", ct.display_name AS "session.class_name",
		       br.name AS "session.branch_name", s.start_time AS "session.start_time", s.end_time AS "session.end_time"
		FROM class_bookings b
		JOIN class_sessions s ON s.id = b.session_id
		JOIN class_types ct ON ct.id = s.class_type_id
		JOIN branches br ON br.id = s.branch_id
		WHERE b.confirmation_code = $1`

	var bws BookingWithSession
	err := r.db.GetContext(ctx, &bws, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by code: %w", err)
	}
	return &bws, nil
}

func (r *repository) CancelBookingByCode(ctx context.Context, code, guestEmail string) (*ClassBooking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var b ClassBooking
	err = tx.GetContext(ctx, &b,
		`SELECT `+bookingColumns+` FROM class_bookings WHERE confirmation_code = $1 FOR UPDATE`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if !strings.EqualFold(b.GuestEmail, guestEmail) {
		return nil, ErrEmailMismatch
	}

	cancelled, err := cancelLockedBooking(ctx, tx, &b)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return cancelled, nil
}

func (r *repository) CancelBookingByID(ctx context.Context, id int) (*ClassBooking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var b ClassBooking
	err = tx.GetContext(ctx, &b,
		`SELECT `+bookingColumns+` FROM class_bookings WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	cancelled, err := cancelLockedBooking(ctx, tx, &b)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return cancelled, nil
}

// cancelLockedBooking flips a row already locked FOR UPDATE to cancelled and
// releases its spot. The status guard means a spot is released at most once
// per booking.
func cancelLockedBooking(ctx context.Context, tx *sqlx.Tx, b *ClassBooking) (*ClassBooking, error) {
	if b.Status != StatusConfirmed {
		return nil, ErrNotCancellable
	}

	err := tx.QueryRowContext(ctx, `
		UPDATE class_bookings
		SET status = 'cancelled', cancelled_at = NOW()
		WHERE id = $1 AND status = 'confirmed'
		RETURNING cancelled_at`, b.ID,
	).Scan(&b.CancelledAt)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	b.Status = StatusCancelled

	_, err = tx.ExecContext(ctx, `
		UPDATE class_sessions
		SET booked_count = GREATEST(booked_count - 1, 0)
		WHERE id = $1`, b.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to release spot: %w", err)
	}
	return b, nil
}

func (r *repository) MarkBookingStatus(ctx context.Context, id int, status string) (*ClassBooking, error) {
	query := `
		UPDATE class_bookings
		SET status = $2
		WHERE id = $1 AND status = 'confirmed'
		RETURNING ` + bookingColumns

	var b ClassBooking
	err := r.db.GetContext(ctx, &b, query, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if checkErr := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM class_bookings WHERE id = $1)`, id); checkErr != nil {
			return nil, fmt.Errorf("failed to check booking: %w", checkErr)
		}
		if exists {
			return nil, ErrStatusTransition
		}
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &b, nil
}

func (r *repository) ListBookings(ctx context.Context, f BookingFilter) ([]ClassBooking, error) {
	var where []string
	args := []interface{}{}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.SessionID != nil {
		add("session_id = $%d", *f.SessionID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.GuestEmail != nil {
		add("LOWER(guest_email) = LOWER($%d)", *f.GuestEmail)
	}

	query := `SELECT ` + bookingColumns + ` FROM class_bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	bookings := []ClassBooking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *repository) GetSessionSummary(ctx context.Context, sessionID int) (*SessionSummary, error) {
	query := `
		SELECT s.id, ct.display_name AS class_name, br.name AS branch_name, s.start_time, s.end_time
		FROM class_sessions s
		JOIN class_types ct ON ct.id = s.class_type_id
		JOIN branches br ON br.id = s.branch_id
		WHERE s.id = $1`

	var summary SessionSummary
	err := r.db.GetContext(ctx, &summary, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session summary: %w", err)
	}
	return &summary, nil
}

func (r *repository) GetStats(ctx context.Context, from, to *time.Time) (*BookingStats, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'confirmed') AS confirmed,
		       COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled,
		       COUNT(*) FILTER (WHERE status = 'no_show') AS no_show,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed
		FROM class_bookings
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)`

	var stats BookingStats
	if err := r.db.GetContext(ctx, &stats, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	return &stats, nil
}
