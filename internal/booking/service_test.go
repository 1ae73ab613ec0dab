package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) CreateBooking(ctx context.Context, sessionID int, req *CreateBookingRequest, code string) (*ClassBooking, error) {
	args := m.Called(ctx, sessionID, req, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClassBooking), args.Error(1)
}

func (m *MockRepo) GetBookingByID(ctx context.Context, id int) (*ClassBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClassBooking), args.Error(1)
}

func (m *MockRepo) GetBookingByCode(ctx context.Context, code string) (*BookingWithSession, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingWithSession), args.Error(1)
}

func (m *MockRepo) CancelBookingByCode(ctx context.Context, code, guestEmail string) (*ClassBooking, error) {
	args := m.Called(ctx, code, guestEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClassBooking), args.Error(1)
}

func (m *MockRepo) CancelBookingByID(ctx context.Context, id int) (*ClassBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClassBooking), args.Error(1)
}

func (m *MockRepo) MarkBookingStatus(ctx context.Context, id int, status string) (*ClassBooking, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClassBooking), args.Error(1)
}

func (m *MockRepo) ListBookings(ctx context.Context, f BookingFilter) ([]ClassBooking, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ClassBooking), args.Error(1)
}

func (m *MockRepo) GetSessionSummary(ctx context.Context, sessionID int) (*SessionSummary, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SessionSummary), args.Error(1)
}

func (m *MockRepo) GetStats(ctx context.Context, from, to *time.Time) (*BookingStats, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingStats), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) QueueBookingConfirmation(b *ClassBooking, s *SessionSummary) {
	m.Called(b, s)
}

func (m *MockMailer) QueueBookingCancellation(b *ClassBooking, s *SessionSummary) {
	m.Called(b, s)
}

func TestCreateBooking_QueuesConfirmationEmail(t *testing.T) {
	repo := new(MockRepo)
	mailer := new(MockMailer)
	svc := NewService(repo, mailer)

	b := &ClassBooking{ID: 42, SessionID: 5, GuestEmail: "alice@example.com", Status: StatusConfirmed, ConfirmationCode: "A1B2C3D4"}
	summary := &SessionSummary{ID: 5, ClassName: "Morning Yoga", StartTime: time.Now()}

	repo.On("CreateBooking", mock.Anything, 5, mock.Anything, mock.MatchedBy(func(code string) bool {
		return len(code) == 8
	})).Return(b, nil)
	repo.On("GetSessionSummary", mock.Anything, 5).Return(summary, nil)
	mailer.On("QueueBookingConfirmation", b, summary).Return()

	got, err := svc.CreateBooking(context.Background(), 5, &CreateBookingRequest{
		GuestName: "Alice Tan", GuestEmail: "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "A1B2C3D4", got.ConfirmationCode)
	mailer.AssertExpectations(t)
}

func TestCreateBooking_NoEmailOnFailure(t *testing.T) {
	repo := new(MockRepo)
	mailer := new(MockMailer)
	svc := NewService(repo, mailer)

	repo.On("CreateBooking", mock.Anything, 5, mock.Anything, mock.Anything).
		Return(nil, ErrCapacityExceeded)

	_, err := svc.CreateBooking(context.Background(), 5, &CreateBookingRequest{
		GuestName: "Alice Tan", GuestEmail: "alice@example.com",
	})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	mailer.AssertNotCalled(t, "QueueBookingConfirmation", mock.Anything, mock.Anything)
}

func TestUpdateStatus_CancelReleasesSpot(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	b := &ClassBooking{ID: 42, SessionID: 5, Status: StatusCancelled}
	repo.On("CancelBookingByID", mock.Anything, 42).Return(b, nil)

	got, err := svc.UpdateStatus(context.Background(), 42, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	repo.AssertNotCalled(t, "MarkBookingStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_NoShow(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	b := &ClassBooking{ID: 42, SessionID: 5, Status: StatusNoShow}
	repo.On("MarkBookingStatus", mock.Anything, 42, StatusNoShow).Return(b, nil)

	got, err := svc.UpdateStatus(context.Background(), 42, StatusNoShow)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, got.Status)
	repo.AssertNotCalled(t, "CancelBookingByID", mock.Anything, mock.Anything)
}

func TestUpdateStatus_RejectsConfirmed(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	_, err := svc.UpdateStatus(context.Background(), 42, StatusConfirmed)
	assert.ErrorIs(t, err, ErrStatusTransition)
	repo.AssertNotCalled(t, "MarkBookingStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_TerminalCancel(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	repo.On("CancelBookingByID", mock.Anything, 42).Return(nil, ErrNotCancellable)

	_, err := svc.UpdateStatus(context.Background(), 42, StatusCancelled)
	assert.ErrorIs(t, err, ErrStatusTransition)
}

func TestNewConfirmationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewConfirmationCode()
		assert.Len(t, code, 8)
		assert.Regexp(t, "^[0-9A-F]{8}$", code)
		assert.False(t, seen[code], "code repeated: %s", code)
		seen[code] = true
	}
}
