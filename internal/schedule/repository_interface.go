package schedule

import (
	"context"
	"time"
)

type Repository interface {
	CreateClassType(ctx context.Context, ct *ClassType) (*ClassType, error)
	GetClassTypeByID(ctx context.Context, id int) (*ClassType, error)
	ListClassTypes(ctx context.Context) ([]ClassType, error)

	GetBranchByID(ctx context.Context, id int) (*Branch, error)
	ListBranches(ctx context.Context) ([]Branch, error)

	CreateTemplate(ctx context.Context, t *ClassTemplate) (*ClassTemplate, error)
	GetTemplateByID(ctx context.Context, id int) (*ClassTemplate, error)
	ListTemplates(ctx context.Context, branchID *int) ([]ClassTemplate, error)
	ListActiveTemplates(ctx context.Context, branchID *int) ([]ClassTemplate, error)
	UpdateTemplate(ctx context.Context, t *ClassTemplate) (*ClassTemplate, error)
	DeleteTemplate(ctx context.Context, id int) error
	// HasTemplateConflict reports whether another template for the same
	// instructor on the same weekday overlaps the [startTime, endTime)
	// clock window. excludeID skips the template being updated.
	HasTemplateConflict(ctx context.Context, instructorID, dayOfWeek int, startTime, endTime string, excludeID *int) (bool, error)

	// InsertGeneratedSessions persists candidates, silently skipping any
	// (template_id, start_time) pair that already has a session. It
	// returns the number of rows actually created.
	InsertGeneratedSessions(ctx context.Context, candidates []SessionCandidate) (int, error)
	CreateSession(ctx context.Context, s *ClassSession) (*ClassSession, error)
	GetSessionByID(ctx context.Context, id int) (*ClassSession, error)
	GetSessionWithAvailability(ctx context.Context, id int) (*SessionWithAvailability, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]SessionWithAvailability, error)
	UpdateSession(ctx context.Context, id int, req *UpdateSessionRequest) (*ClassSession, error)
	CancelSession(ctx context.Context, id int, reason *string) (*ClassSession, error)
	HasInstructorSessionConflict(ctx context.Context, instructorID int, start, end time.Time, excludeID *int) (bool, error)
}

type SessionFilter struct {
	From         *time.Time
	To           *time.Time
	BranchID     *int
	ClassTypeID  *int
	InstructorID *int
	// IncludeCancelled keeps cancelled sessions in the result; the public
	// schedule never sets it.
	IncludeCancelled bool
}
