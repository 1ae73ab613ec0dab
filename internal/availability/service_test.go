package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) CreateGroup(ctx context.Context, ownerID int, name, timezone string, slots []SlotInput) (*AvailabilityGroup, error) {
	args := m.Called(ctx, ownerID, name, timezone, slots)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AvailabilityGroup), args.Error(1)
}

func (m *MockRepo) GetGroupByID(ctx context.Context, id int) (*AvailabilityGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AvailabilityGroup), args.Error(1)
}

func (m *MockRepo) ListGroupsByOwner(ctx context.Context, ownerID int) ([]AvailabilityGroup, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AvailabilityGroup), args.Error(1)
}

func (m *MockRepo) GetDefaultGroupByOwner(ctx context.Context, ownerID int) (*AvailabilityGroup, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AvailabilityGroup), args.Error(1)
}

func (m *MockRepo) UpdateGroup(ctx context.Context, id int, name, timezone *string, isDefault *bool, slots *[]SlotInput) (*AvailabilityGroup, error) {
	args := m.Called(ctx, id, name, timezone, isDefault, slots)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AvailabilityGroup), args.Error(1)
}

func (m *MockRepo) DeleteGroup(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) CreateExclusion(ctx context.Context, ownerID int, date time.Time, startTime, endTime string, exType ExclusionType, reason *string) (*SlotExclusion, error) {
	args := m.Called(ctx, ownerID, date, startTime, endTime, exType, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SlotExclusion), args.Error(1)
}

func (m *MockRepo) GetExclusionByID(ctx context.Context, id int) (*SlotExclusion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SlotExclusion), args.Error(1)
}

func (m *MockRepo) ListExclusionsByOwner(ctx context.Context, ownerID int) ([]SlotExclusion, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SlotExclusion), args.Error(1)
}

func (m *MockRepo) ListExclusionsForDate(ctx context.Context, ownerID int, date time.Time) ([]SlotExclusion, error) {
	args := m.Called(ctx, ownerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SlotExclusion), args.Error(1)
}

func (m *MockRepo) UpdateExclusion(ctx context.Context, id int, date *time.Time, startTime, endTime, exType, reason *string) (*SlotExclusion, error) {
	args := m.Called(ctx, id, date, startTime, endTime, exType, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SlotExclusion), args.Error(1)
}

func (m *MockRepo) DeleteExclusion(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func TestService_CreateGroup(t *testing.T) {
	t.Run("seeds weekday office hours and default timezone", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")

		repo.On("CreateGroup", mock.Anything, 5, "Main schedule", "Asia/Singapore", defaultWeeklySlots()).
			Return(&AvailabilityGroup{ID: 1, OwnerID: 5, Name: "Main schedule"}, nil)

		group, err := svc.CreateGroup(context.Background(), CreateGroupRequest{OwnerID: 5, Name: "Main schedule"})
		require.NoError(t, err)
		assert.Equal(t, 1, group.ID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")

		_, err := svc.CreateGroup(context.Background(), CreateGroupRequest{
			OwnerID:  5,
			Name:     "Main",
			Timezone: "Mars/OlympusMons",
		})
		assert.Error(t, err)
		repo.AssertNotCalled(t, "CreateGroup")
	})
}

func TestService_UpdateGroup_ValidatesSlots(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, "Asia/Singapore")

	bad := []SlotInput{{DayOfWeek: 1, StartTime: "12:00", EndTime: "09:00"}}
	_, err := svc.UpdateGroup(context.Background(), 1, UpdateGroupRequest{Slots: &bad})

	assert.ErrorIs(t, err, ErrSlotOrder)
	repo.AssertNotCalled(t, "UpdateGroup")
}

func TestService_UpdateGroup_PassesDefaultFlagThrough(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, "Asia/Singapore")

	isDefault := true
	repo.On("UpdateGroup", mock.Anything, 2, (*string)(nil), (*string)(nil), &isDefault, (*[]SlotInput)(nil)).
		Return(&AvailabilityGroup{ID: 2, IsDefault: true}, nil)

	group, err := svc.UpdateGroup(context.Background(), 2, UpdateGroupRequest{IsDefault: &isDefault})
	require.NoError(t, err)
	assert.True(t, group.IsDefault)
	repo.AssertExpectations(t)
}

func TestService_CreateExclusion(t *testing.T) {
	t.Run("valid exclusion", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")

		date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		repo.On("CreateExclusion", mock.Anything, 5, date, "09:30", "10:00", ExclusionSick, (*string)(nil)).
			Return(&SlotExclusion{ID: 9, OwnerID: 5, Type: ExclusionSick}, nil)

		exclusion, err := svc.CreateExclusion(context.Background(), CreateExclusionRequest{
			OwnerID:   5,
			Date:      "2024-03-15",
			StartTime: "09:30",
			EndTime:   "10:00",
			Type:      "sick",
		})
		require.NoError(t, err)
		assert.Equal(t, 9, exclusion.ID)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")

		_, err := svc.CreateExclusion(context.Background(), CreateExclusionRequest{
			OwnerID:   5,
			Date:      "2024-03-15",
			StartTime: "09:30",
			EndTime:   "10:00",
			Type:      "rained-out",
		})
		assert.ErrorIs(t, err, ErrBadExclusionType)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")

		_, err := svc.CreateExclusion(context.Background(), CreateExclusionRequest{
			OwnerID:   5,
			Date:      "2024-03-15",
			StartTime: "10:00",
			EndTime:   "09:30",
			Type:      "vacation",
		})
		assert.ErrorIs(t, err, ErrSlotOrder)
	})
}

func TestService_UpdateExclusion_WindowAgainstStoredBounds(t *testing.T) {
	stored := &SlotExclusion{
		ID: 9, OwnerID: 5, StartTime: "09:30", EndTime: "10:00", Type: ExclusionSick,
	}

	t.Run("new start past stored end rejected", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")
		repo.On("GetExclusionByID", mock.Anything, 9).Return(stored, nil)

		newStart := "10:30"
		_, err := svc.UpdateExclusion(context.Background(), 9, UpdateExclusionRequest{StartTime: &newStart})
		assert.ErrorIs(t, err, ErrSlotOrder)
		repo.AssertNotCalled(t, "UpdateExclusion",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("new end before stored start rejected", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")
		repo.On("GetExclusionByID", mock.Anything, 9).Return(stored, nil)

		newEnd := "09:00"
		_, err := svc.UpdateExclusion(context.Background(), 9, UpdateExclusionRequest{EndTime: &newEnd})
		assert.ErrorIs(t, err, ErrSlotOrder)
	})

	t.Run("new end after stored start updates", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")
		repo.On("GetExclusionByID", mock.Anything, 9).Return(stored, nil)

		newEnd := "11:00"
		repo.On("UpdateExclusion", mock.Anything, 9, (*time.Time)(nil), (*string)(nil), &newEnd, (*string)(nil), (*string)(nil)).
			Return(&SlotExclusion{ID: 9, OwnerID: 5, StartTime: "09:30", EndTime: "11:00", Type: ExclusionSick}, nil)

		exclusion, err := svc.UpdateExclusion(context.Background(), 9, UpdateExclusionRequest{EndTime: &newEnd})
		require.NoError(t, err)
		assert.Equal(t, "11:00", exclusion.EndTime)
	})
}

func TestService_EffectiveWindows(t *testing.T) {
	// 2024-03-15 is a Friday (weekday 5).
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("subtracts the date's exclusions from the weekday slots", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")

		repo.On("GetDefaultGroupByOwner", mock.Anything, 5).Return(&AvailabilityGroup{
			ID:      1,
			OwnerID: 5,
			Slots: []Slot{
				{DayOfWeek: 5, StartTime: "09:00", EndTime: "12:00"},
				{DayOfWeek: 6, StartTime: "10:00", EndTime: "14:00"},
			},
		}, nil)
		repo.On("ListExclusionsForDate", mock.Anything, 5, date).Return([]SlotExclusion{
			{StartTime: "09:30", EndTime: "10:00", Type: ExclusionSick},
		}, nil)

		windows, err := svc.EffectiveWindows(context.Background(), 5, date)
		require.NoError(t, err)

		assert.Equal(t, []Window{
			{Start: "09:00", End: "09:30"},
			{Start: "10:00", End: "12:00"},
		}, windows)
	})

	t.Run("no default group", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")

		repo.On("GetDefaultGroupByOwner", mock.Anything, 5).Return(nil, ErrGroupNotFound)

		_, err := svc.EffectiveWindows(context.Background(), 5, date)
		assert.ErrorIs(t, err, ErrNoDefaultGroup)
	})

	t.Run("disabled day yields no windows", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, "Asia/Singapore")

		repo.On("GetDefaultGroupByOwner", mock.Anything, 5).Return(&AvailabilityGroup{
			ID:      1,
			OwnerID: 5,
			Slots:   []Slot{{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"}},
		}, nil)
		repo.On("ListExclusionsForDate", mock.Anything, 5, date).Return([]SlotExclusion{}, nil)

		windows, err := svc.EffectiveWindows(context.Background(), 5, date)
		require.NoError(t, err)
		assert.Empty(t, windows)
	})
}
