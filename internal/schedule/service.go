package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classbook/internal/logger"
	"classbook/internal/metrics"
)

var (
	ErrTimeOrder = errors.New("start_time must be before end_time")
	// ErrTemplateConflict means the instructor already teaches an
	// overlapping weekly slot.
	ErrTemplateConflict = errors.New("instructor has a conflicting template")
	// ErrSessionConflict means the instructor already has a session
	// overlapping the requested window.
	ErrSessionConflict = errors.New("instructor has a conflicting session")
	ErrInvalidRange    = errors.New("invalid date range")
	ErrRangeTooLarge   = errors.New("date range exceeds 366 days")
)

// maxGenerateDays bounds one generation run to a year plus leap day.
const maxGenerateDays = 366

type Service interface {
	CreateClassType(ctx context.Context, req *CreateClassTypeRequest) (*ClassType, error)
	ListClassTypes(ctx context.Context) ([]ClassType, error)
	ListBranches(ctx context.Context) ([]Branch, error)

	CreateTemplate(ctx context.Context, req *CreateTemplateRequest) (*ClassTemplate, error)
	GetTemplate(ctx context.Context, id int) (*ClassTemplate, error)
	ListTemplates(ctx context.Context, branchID *int) ([]ClassTemplate, error)
	UpdateTemplate(ctx context.Context, id int, req *UpdateTemplateRequest) (*ClassTemplate, error)
	DeleteTemplate(ctx context.Context, id int) error

	GenerateSessions(ctx context.Context, req *GenerateRequest) (int, error)
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*ClassSession, error)
	GetSession(ctx context.Context, id int) (*SessionWithAvailability, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]SessionWithAvailability, error)
	UpdateSession(ctx context.Context, id int, req *UpdateSessionRequest) (*ClassSession, error)
	CancelSession(ctx context.Context, id int, reason *string) (*ClassSession, error)
	WeeklySchedule(ctx context.Context, weekStart time.Time, branchID *int) (*WeeklyScheduleResponse, error)
}

type service struct {
	repo       Repository
	defaultLoc *time.Location
}

func NewService(repo Repository, defaultTimezone string) Service {
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		logger.Error("invalid default timezone, falling back to UTC", "timezone", defaultTimezone)
		loc = time.UTC
	}
	return &service{repo: repo, defaultLoc: loc}
}

func (s *service) CreateClassType(ctx context.Context, req *CreateClassTypeRequest) (*ClassType, error) {
	ct := &ClassType{
		TeamID:          req.TeamID,
		Name:            req.Name,
		DisplayName:     req.DisplayName,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		DefaultCapacity: req.DefaultCapacity,
		IsOpenGym:       req.IsOpenGym,
		Color:           req.Color,
	}
	return s.repo.CreateClassType(ctx, ct)
}

func (s *service) ListClassTypes(ctx context.Context) ([]ClassType, error) {
	return s.repo.ListClassTypes(ctx)
}

func (s *service) ListBranches(ctx context.Context) ([]Branch, error) {
	return s.repo.ListBranches(ctx)
}

func validateClockWindow(start, end string) error {
	sm, err := parseClock(start)
	if err != nil {
		return err
	}
	em, err := parseClock(end)
	if err != nil {
		return err
	}
	if sm >= em {
		return ErrTimeOrder
	}
	return nil
}

func (s *service) CreateTemplate(ctx context.Context, req *CreateTemplateRequest) (*ClassTemplate, error) {
	if err := validateClockWindow(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetClassTypeByID(ctx, req.ClassTypeID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBranchByID(ctx, req.BranchID); err != nil {
		return nil, err
	}

	conflict, err := s.repo.HasTemplateConflict(ctx, req.InstructorID, req.DayOfWeek, req.StartTime, req.EndTime, nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrTemplateConflict
	}

	t := &ClassTemplate{
		ClassTypeID:  req.ClassTypeID,
		InstructorID: req.InstructorID,
		BranchID:     req.BranchID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Capacity:     req.Capacity,
	}
	return s.repo.CreateTemplate(ctx, t)
}

func (s *service) GetTemplate(ctx context.Context, id int) (*ClassTemplate, error) {
	return s.repo.GetTemplateByID(ctx, id)
}

func (s *service) ListTemplates(ctx context.Context, branchID *int) ([]ClassTemplate, error) {
	return s.repo.ListTemplates(ctx, branchID)
}

func (s *service) UpdateTemplate(ctx context.Context, id int, req *UpdateTemplateRequest) (*ClassTemplate, error) {
	t, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClassTypeID != nil {
		t.ClassTypeID = *req.ClassTypeID
	}
	if req.InstructorID != nil {
		t.InstructorID = *req.InstructorID
	}
	if req.BranchID != nil {
		t.BranchID = *req.BranchID
	}
	if req.DayOfWeek != nil {
		t.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		t.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		t.EndTime = *req.EndTime
	}
	if req.Capacity != nil {
		t.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		return nil, fmt.Errorf("day_of_week must be 0-6")
	}
	if err := validateClockWindow(t.StartTime, t.EndTime); err != nil {
		return nil, err
	}
	if t.IsActive {
		conflict, err := s.repo.HasTemplateConflict(ctx, t.InstructorID, t.DayOfWeek, t.StartTime, t.EndTime, &id)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, ErrTemplateConflict
		}
	}

	return s.repo.UpdateTemplate(ctx, t)
}

func (s *service) DeleteTemplate(ctx context.Context, id int) error {
	return s.repo.DeleteTemplate(ctx, id)
}

// GenerateSessions materializes sessions for every active template over
// [start_date, end_date). Dates already holding a session for a template are
// skipped, so re-running the same range is a no-op for existing rows.
func (s *service) GenerateSessions(ctx context.Context, req *GenerateRequest) (int, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return 0, fmt.Errorf("%w: bad start_date %q", ErrInvalidRange, req.StartDate)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return 0, fmt.Errorf("%w: bad end_date %q", ErrInvalidRange, req.EndDate)
	}
	if !end.After(start) {
		return 0, fmt.Errorf("%w: end_date must be after start_date", ErrInvalidRange)
	}
	if end.Sub(start) > maxGenerateDays*24*time.Hour {
		return 0, ErrRangeTooLarge
	}

	templates, err := s.repo.ListActiveTemplates(ctx, req.BranchID)
	if err != nil {
		return 0, err
	}
	if len(templates) == 0 {
		return 0, nil
	}

	branches, err := s.repo.ListBranches(ctx)
	if err != nil {
		return 0, err
	}
	locs := make(map[int]*time.Location, len(branches))
	for _, b := range branches {
		loc, err := time.LoadLocation(b.Timezone)
		if err != nil {
			logger.Error("branch has invalid timezone, using default", "branch_id", b.ID, "timezone", b.Timezone)
			continue
		}
		locs[b.ID] = loc
	}

	candidates, err := ExpandTemplates(templates, start, end, locs, s.defaultLoc)
	if err != nil {
		return 0, err
	}

	created, err := s.repo.InsertGeneratedSessions(ctx, candidates)
	if err != nil {
		return 0, err
	}

	metrics.RecordSessionsGenerated(created)
	logger.Info("generated class sessions",
		"start_date", req.StartDate,
		"end_date", req.EndDate,
		"templates", len(templates),
		"candidates", len(candidates),
		"created", created)
	return created, nil
}

func (s *service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*ClassSession, error) {
	if !req.StartTime.Before(req.EndTime) {
		return nil, ErrTimeOrder
	}
	if _, err := s.repo.GetClassTypeByID(ctx, req.ClassTypeID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBranchByID(ctx, req.BranchID); err != nil {
		return nil, err
	}

	conflict, err := s.repo.HasInstructorSessionConflict(ctx, req.InstructorID, req.StartTime, req.EndTime, nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrSessionConflict
	}

	sess := &ClassSession{
		ClassTypeID:  req.ClassTypeID,
		InstructorID: req.InstructorID,
		BranchID:     req.BranchID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Capacity:     req.Capacity,
	}
	return s.repo.CreateSession(ctx, sess)
}

func (s *service) GetSession(ctx context.Context, id int) (*SessionWithAvailability, error) {
	return s.repo.GetSessionWithAvailability(ctx, id)
}

func (s *service) ListSessions(ctx context.Context, f SessionFilter) ([]SessionWithAvailability, error) {
	return s.repo.ListSessions(ctx, f)
}

func (s *service) UpdateSession(ctx context.Context, id int, req *UpdateSessionRequest) (*ClassSession, error) {
	if req.StartTime != nil && req.EndTime != nil && !req.StartTime.Before(*req.EndTime) {
		return nil, ErrTimeOrder
	}
	if req.InstructorID != nil || req.StartTime != nil || req.EndTime != nil {
		cur, err := s.repo.GetSessionByID(ctx, id)
		if err != nil {
			return nil, err
		}
		instructorID := cur.InstructorID
		start, end := cur.StartTime, cur.EndTime
		if req.InstructorID != nil {
			instructorID = *req.InstructorID
		}
		if req.StartTime != nil {
			start = *req.StartTime
		}
		if req.EndTime != nil {
			end = *req.EndTime
		}
		if !start.Before(end) {
			return nil, ErrTimeOrder
		}
		conflict, err := s.repo.HasInstructorSessionConflict(ctx, instructorID, start, end, &id)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, ErrSessionConflict
		}
	}
	return s.repo.UpdateSession(ctx, id, req)
}

// CancelSession flags a session cancelled. Existing bookings are left in
// place; operators notify attendees out of band.
func (s *service) CancelSession(ctx context.Context, id int, reason *string) (*ClassSession, error) {
	sess, err := s.repo.CancelSession(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	metrics.RecordSessionCancelled()
	logger.Info("cancelled class session", "session_id", id)
	return sess, nil
}

func (s *service) WeeklySchedule(ctx context.Context, weekStart time.Time, branchID *int) (*WeeklyScheduleResponse, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)
	from, to := weekStart, weekEnd
	sessions, err := s.repo.ListSessions(ctx, SessionFilter{
		From:     &from,
		To:       &to,
		BranchID: branchID,
	})
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]SessionWithAvailability)
	for _, sess := range sessions {
		key := sess.StartTime.In(s.defaultLoc).Format("2006-01-02")
		byDate[key] = append(byDate[key], sess)
	}

	return &WeeklyScheduleResponse{
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Sessions:  sessions,
		ByDate:    byDate,
	}, nil
}
