package availability

import (
	"context"
	"time"
)

type Repository interface {
	CreateGroup(ctx context.Context, ownerID int, name, timezone string, slots []SlotInput) (*AvailabilityGroup, error)
	GetGroupByID(ctx context.Context, id int) (*AvailabilityGroup, error)
	ListGroupsByOwner(ctx context.Context, ownerID int) ([]AvailabilityGroup, error)
	GetDefaultGroupByOwner(ctx context.Context, ownerID int) (*AvailabilityGroup, error)
	UpdateGroup(ctx context.Context, id int, name, timezone *string, isDefault *bool, slots *[]SlotInput) (*AvailabilityGroup, error)
	DeleteGroup(ctx context.Context, id int) error

	CreateExclusion(ctx context.Context, ownerID int, date time.Time, startTime, endTime string, exType ExclusionType, reason *string) (*SlotExclusion, error)
	GetExclusionByID(ctx context.Context, id int) (*SlotExclusion, error)
	ListExclusionsByOwner(ctx context.Context, ownerID int) ([]SlotExclusion, error)
	ListExclusionsForDate(ctx context.Context, ownerID int, date time.Time) ([]SlotExclusion, error)
	UpdateExclusion(ctx context.Context, id int, date *time.Time, startTime, endTime, exType, reason *string) (*SlotExclusion, error)
	DeleteExclusion(ctx context.Context, id int) error
}
