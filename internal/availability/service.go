package availability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrSlotOrder        = errors.New("slot start must be before end")
	ErrSlotOverlap      = errors.New("slots within one day must not overlap")
	ErrBadExclusionType = errors.New("unknown exclusion type")
	ErrNoDefaultGroup   = errors.New("owner has no default availability group")
)

type Service interface {
	CreateGroup(ctx context.Context, req CreateGroupRequest) (*AvailabilityGroup, error)
	GetGroupByID(ctx context.Context, id int) (*AvailabilityGroup, error)
	ListGroupsByOwner(ctx context.Context, ownerID int) ([]AvailabilityGroup, error)
	UpdateGroup(ctx context.Context, id int, req UpdateGroupRequest) (*AvailabilityGroup, error)
	DeleteGroup(ctx context.Context, id int) error

	CreateExclusion(ctx context.Context, req CreateExclusionRequest) (*SlotExclusion, error)
	ListExclusionsByOwner(ctx context.Context, ownerID int) ([]SlotExclusion, error)
	UpdateExclusion(ctx context.Context, id int, req UpdateExclusionRequest) (*SlotExclusion, error)
	DeleteExclusion(ctx context.Context, id int) error

	EffectiveWindows(ctx context.Context, ownerID int, date time.Time) ([]Window, error)
}

type service struct {
	repo            Repository
	defaultTimezone string
}

func NewService(repo Repository, defaultTimezone string) Service {
	return &service{repo: repo, defaultTimezone: defaultTimezone}
}

// defaultWeeklySlots seeds a new group with weekday office hours.
func defaultWeeklySlots() []SlotInput {
	slots := make([]SlotInput, 0, 5)
	for day := 1; day <= 5; day++ {
		slots = append(slots, SlotInput{DayOfWeek: day, StartTime: "09:00", EndTime: "17:00"})
	}
	return slots
}

func (s *service) CreateGroup(ctx context.Context, req CreateGroupRequest) (*AvailabilityGroup, error) {
	timezone := req.Timezone
	if timezone == "" {
		timezone = s.defaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	return s.repo.CreateGroup(ctx, req.OwnerID, req.Name, timezone, defaultWeeklySlots())
}

func (s *service) GetGroupByID(ctx context.Context, id int) (*AvailabilityGroup, error) {
	return s.repo.GetGroupByID(ctx, id)
}

func (s *service) ListGroupsByOwner(ctx context.Context, ownerID int) ([]AvailabilityGroup, error) {
	return s.repo.ListGroupsByOwner(ctx, ownerID)
}

func (s *service) UpdateGroup(ctx context.Context, id int, req UpdateGroupRequest) (*AvailabilityGroup, error) {
	if req.Slots != nil {
		if err := validateSlots(*req.Slots); err != nil {
			return nil, err
		}
	}

	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", *req.Timezone, err)
		}
	}

	return s.repo.UpdateGroup(ctx, id, req.Name, req.Timezone, req.IsDefault, req.Slots)
}

func (s *service) DeleteGroup(ctx context.Context, id int) error {
	// A provider may end up with zero groups; the hosting UI warns about it.
	return s.repo.DeleteGroup(ctx, id)
}

// validateSlots checks start<end and rejects intra-day overlap.
func validateSlots(slots []SlotInput) error {
	type daySpan struct {
		start, end int
	}
	byDay := make(map[int][]daySpan)

	for _, slot := range slots {
		start, err := parseClock(slot.StartTime)
		if err != nil {
			return err
		}
		end, err := parseClock(slot.EndTime)
		if err != nil {
			return err
		}
		if start >= end {
			return fmt.Errorf("%w: %s-%s", ErrSlotOrder, slot.StartTime, slot.EndTime)
		}

		for _, other := range byDay[slot.DayOfWeek] {
			if start < other.end && end > other.start {
				return fmt.Errorf("%w: day %d", ErrSlotOverlap, slot.DayOfWeek)
			}
		}
		byDay[slot.DayOfWeek] = append(byDay[slot.DayOfWeek], daySpan{start, end})
	}

	return nil
}

func (s *service) CreateExclusion(ctx context.Context, req CreateExclusionRequest) (*SlotExclusion, error) {
	exType := ExclusionType(req.Type)
	if !exType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrBadExclusionType, req.Type)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, fmt.Errorf("%w: %s-%s", ErrSlotOrder, req.StartTime, req.EndTime)
	}

	// No validation against existing availability: an exclusion may target
	// hours that were never available, which downstream subtraction ignores.
	return s.repo.CreateExclusion(ctx, req.OwnerID, date, req.StartTime, req.EndTime, exType, req.Reason)
}

func (s *service) ListExclusionsByOwner(ctx context.Context, ownerID int) ([]SlotExclusion, error) {
	return s.repo.ListExclusionsByOwner(ctx, ownerID)
}

func (s *service) UpdateExclusion(ctx context.Context, id int, req UpdateExclusionRequest) (*SlotExclusion, error) {
	if req.Type != nil && !ExclusionType(*req.Type).Valid() {
		return nil, fmt.Errorf("%w: %q", ErrBadExclusionType, *req.Type)
	}

	var date *time.Time
	if req.Date != nil {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", *req.Date, err)
		}
		date = &parsed
	}

	if req.StartTime != nil || req.EndTime != nil {
		// A single new bound must still form a valid window with the
		// stored opposite bound.
		existing, err := s.repo.GetExclusionByID(ctx, id)
		if err != nil {
			return nil, err
		}
		startStr, endStr := existing.StartTime, existing.EndTime
		if req.StartTime != nil {
			startStr = *req.StartTime
		}
		if req.EndTime != nil {
			endStr = *req.EndTime
		}
		start, err := parseClock(startStr)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(endStr)
		if err != nil {
			return nil, err
		}
		if end <= start {
			return nil, fmt.Errorf("%w: %s-%s", ErrSlotOrder, startStr, endStr)
		}
	}

	return s.repo.UpdateExclusion(ctx, id, date, req.StartTime, req.EndTime, req.Type, req.Reason)
}

func (s *service) DeleteExclusion(ctx context.Context, id int) error {
	return s.repo.DeleteExclusion(ctx, id)
}

// EffectiveWindows resolves the bookable windows for one date: the default
// group's slots for that weekday minus the union of that date's exclusions.
func (s *service) EffectiveWindows(ctx context.Context, ownerID int, date time.Time) ([]Window, error) {
	group, err := s.repo.GetDefaultGroupByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return nil, ErrNoDefaultGroup
		}
		return nil, err
	}

	weekday := int(date.Weekday())

	var slots []Window
	for _, slot := range group.Slots {
		if slot.DayOfWeek == weekday {
			slots = append(slots, Window{Start: slot.StartTime, End: slot.EndTime})
		}
	}

	exclusions, err := s.repo.ListExclusionsForDate(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}

	blocked := make([]Window, 0, len(exclusions))
	for _, ex := range exclusions {
		blocked = append(blocked, Window{Start: ex.StartTime, End: ex.EndTime})
	}

	return SubtractExclusions(slots, blocked)
}
