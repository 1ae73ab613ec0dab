package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrClassTypeNotFound = errors.New("class type not found")
	ErrBranchNotFound    = errors.New("branch not found")
	ErrTemplateNotFound  = errors.New("class template not found")
	ErrSessionNotFound   = errors.New("class session not found")
	// ErrCapacityBelowBooked rejects a capacity update that would drop a
	// session below its current booked count.
	ErrCapacityBelowBooked = errors.New("capacity cannot be lower than booked count")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const sessionColumns = `id, template_id, class_type_id, instructor_id, branch_id,
	start_time, end_time, capacity, booked_count, is_cancelled, cancel_reason, created_at`

func (r *repository) CreateClassType(ctx context.Context, ct *ClassType) (*ClassType, error) {
	query := `
		INSERT INTO class_types (team_id, name, display_name, description, duration_minutes, default_capacity, is_open_gym, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		ct.TeamID, ct.Name, ct.DisplayName, ct.Description,
		ct.DurationMinutes, ct.DefaultCapacity, ct.IsOpenGym, ct.Color,
	).Scan(&ct.ID, &ct.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create class type: %w", err)
	}
	return ct, nil
}

func (r *repository) GetClassTypeByID(ctx context.Context, id int) (*ClassType, error) {
	var ct ClassType
	err := r.db.GetContext(ctx, &ct, `SELECT * FROM class_types WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClassTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class type: %w", err)
	}
	return &ct, nil
}

func (r *repository) ListClassTypes(ctx context.Context) ([]ClassType, error) {
	types := []ClassType{}
	err := r.db.SelectContext(ctx, &types, `SELECT * FROM class_types ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list class types: %w", err)
	}
	return types, nil
}

func (r *repository) GetBranchByID(ctx context.Context, id int) (*Branch, error) {
	var b Branch
	err := r.db.GetContext(ctx, &b, `SELECT * FROM branches WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBranchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}
	return &b, nil
}

func (r *repository) ListBranches(ctx context.Context) ([]Branch, error) {
	branches := []Branch{}
	err := r.db.SelectContext(ctx, &branches, `SELECT * FROM branches ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, nil
}

func (r *repository) CreateTemplate(ctx context.Context, t *ClassTemplate) (*ClassTemplate, error) {
	query := `
		INSERT INTO class_templates (class_type_id, instructor_id, branch_id, day_of_week, start_time, end_time, capacity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING id, is_active, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ClassTypeID, t.InstructorID, t.BranchID, t.DayOfWeek,
		t.StartTime, t.EndTime, t.Capacity,
	).Scan(&t.ID, &t.IsActive, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create class template: %w", err)
	}
	return t, nil
}

func (r *repository) GetTemplateByID(ctx context.Context, id int) (*ClassTemplate, error) {
	var t ClassTemplate
	err := r.db.GetContext(ctx, &t, `SELECT * FROM class_templates WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class template: %w", err)
	}
	return &t, nil
}

func (r *repository) listTemplates(ctx context.Context, branchID *int, activeOnly bool) ([]ClassTemplate, error) {
	query := `SELECT * FROM class_templates WHERE 1=1`
	args := []interface{}{}
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	if branchID != nil {
		args = append(args, *branchID)
		query += fmt.Sprintf(` AND branch_id = $%d`, len(args))
	}
	query += ` ORDER BY day_of_week, start_time, id`

	templates := []ClassTemplate{}
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list class templates: %w", err)
	}
	return templates, nil
}

func (r *repository) ListTemplates(ctx context.Context, branchID *int) ([]ClassTemplate, error) {
	return r.listTemplates(ctx, branchID, false)
}

func (r *repository) ListActiveTemplates(ctx context.Context, branchID *int) ([]ClassTemplate, error) {
	return r.listTemplates(ctx, branchID, true)
}

func (r *repository) UpdateTemplate(ctx context.Context, t *ClassTemplate) (*ClassTemplate, error) {
	query := `
		UPDATE class_templates
		SET class_type_id = $2, instructor_id = $3, branch_id = $4, day_of_week = $5,
		    start_time = $6, end_time = $7, capacity = $8, is_active = $9
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		t.ID, t.ClassTypeID, t.InstructorID, t.BranchID, t.DayOfWeek,
		t.StartTime, t.EndTime, t.Capacity, t.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update class template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

func (r *repository) DeleteTemplate(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM class_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete class template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *repository) HasTemplateConflict(ctx context.Context, instructorID, dayOfWeek int, startTime, endTime string, excludeID *int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM class_templates
			WHERE instructor_id = $1 AND day_of_week = $2 AND is_active = TRUE
			  AND start_time < $4 AND end_time > $3
			  AND ($5::int IS NULL OR id != $5)
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, instructorID, dayOfWeek, startTime, endTime, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check template conflict: %w", err)
	}
	return exists, nil
}

func (r *repository) InsertGeneratedSessions(ctx context.Context, candidates []SessionCandidate) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO class_sessions (template_id, class_type_id, instructor_id, branch_id, start_time, end_time, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (template_id, start_time) WHERE template_id IS NOT NULL DO NOTHING`

	created := 0
	for _, c := range candidates {
		result, err := tx.ExecContext(ctx, query,
			c.TemplateID, c.ClassTypeID, c.InstructorID, c.BranchID,
			c.StartTime, c.EndTime, c.Capacity,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert generated session: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		created += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

func (r *repository) CreateSession(ctx context.Context, s *ClassSession) (*ClassSession, error) {
	query := `
		INSERT INTO class_sessions (template_id, class_type_id, instructor_id, branch_id, start_time, end_time, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, booked_count, is_cancelled, created_at`

	err := r.db.QueryRowContext(ctx, query,
		s.TemplateID, s.ClassTypeID, s.InstructorID, s.BranchID,
		s.StartTime, s.EndTime, s.Capacity,
	).Scan(&s.ID, &s.BookedCount, &s.IsCancelled, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create class session: %w", err)
	}
	return s, nil
}

func (r *repository) GetSessionByID(ctx context.Context, id int) (*ClassSession, error) {
	var s ClassSession
	err := r.db.GetContext(ctx, &s, `SELECT `+sessionColumns+` FROM class_sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class session: %w", err)
	}
	return &s, nil
}

func (r *repository) GetSessionWithAvailability(ctx context.Context, id int) (*SessionWithAvailability, error) {
	s, err := r.GetSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return withAvailability(*s), nil
}

func (r *repository) ListSessions(ctx context.Context, f SessionFilter) ([]SessionWithAvailability, error) {
	var where []string
	args := []interface{}{}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if !f.IncludeCancelled {
		where = append(where, "is_cancelled = FALSE")
	}
	if f.From != nil {
		add("start_time >= $%d", *f.From)
	}
	if f.To != nil {
		add("start_time < $%d", *f.To)
	}
	if f.BranchID != nil {
		add("branch_id = $%d", *f.BranchID)
	}
	if f.ClassTypeID != nil {
		add("class_type_id = $%d", *f.ClassTypeID)
	}
	if f.InstructorID != nil {
		add("instructor_id = $%d", *f.InstructorID)
	}

	query := `SELECT ` + sessionColumns + ` FROM class_sessions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_time, id`

	sessions := []ClassSession{}
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list class sessions: %w", err)
	}

	out := make([]SessionWithAvailability, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, *withAvailability(s))
	}
	return out, nil
}

func (r *repository) UpdateSession(ctx context.Context, id int, req *UpdateSessionRequest) (*ClassSession, error) {
	query := `
		UPDATE class_sessions
		SET instructor_id = COALESCE($2, instructor_id),
		    start_time = COALESCE($3, start_time),
		    end_time = COALESCE($4, end_time),
		    capacity = COALESCE($5, capacity)
		WHERE id = $1 AND COALESCE($5, capacity) >= booked_count
		RETURNING ` + sessionColumns

	var s ClassSession
	err := r.db.GetContext(ctx, &s, query, id, req.InstructorID, req.StartTime, req.EndTime, req.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		// No row updated: missing session or a capacity below booked_count.
		var exists bool
		if checkErr := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM class_sessions WHERE id = $1)`, id); checkErr != nil {
			return nil, fmt.Errorf("failed to check class session: %w", checkErr)
		}
		if exists {
			return nil, ErrCapacityBelowBooked
		}
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update class session: %w", err)
	}
	return &s, nil
}

func (r *repository) CancelSession(ctx context.Context, id int, reason *string) (*ClassSession, error) {
	query := `
		UPDATE class_sessions
		SET is_cancelled = TRUE, cancel_reason = $2
		WHERE id = $1
		RETURNING ` + sessionColumns

	var s ClassSession
	err := r.db.GetContext(ctx, &s, query, id, reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel class session: %w", err)
	}
	return &s, nil
}

func (r *repository) HasInstructorSessionConflict(ctx context.Context, instructorID int, start, end time.Time, excludeID *int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM class_sessions
			WHERE instructor_id = $1 AND is_cancelled = FALSE
			  AND start_time < $3 AND end_time > $2
			  AND ($4::int IS NULL OR id != $4)
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, instructorID, start, end, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check session conflict: %w", err)
	}
	return exists, nil
}

func withAvailability(s ClassSession) *SessionWithAvailability {
	spots := s.Capacity - s.BookedCount
	if spots < 0 {
		spots = 0
	}
	return &SessionWithAvailability{
		ClassSession:   s,
		AvailableSpots: spots,
		IsFull:         s.BookedCount >= s.Capacity,
	}
}
