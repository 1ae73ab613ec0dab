package availability

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrGroupNotFound     = errors.New("availability group not found")
	ErrExclusionNotFound = errors.New("slot exclusion not found")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateGroup(ctx context.Context, ownerID int, name, timezone string, slots []SlotInput) (*AvailabilityGroup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO availability_groups (owner_id, name, timezone)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, name, timezone, is_default, created_at
	`

	var group AvailabilityGroup
	if err := tx.GetContext(ctx, &group, query, ownerID, name, timezone); err != nil {
		return nil, err
	}

	if err := insertSlots(ctx, tx, group.ID, slots); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetGroupByID(ctx, group.ID)
}

func insertSlots(ctx context.Context, tx *sqlx.Tx, groupID int, slots []SlotInput) error {
	query := `
		INSERT INTO availability_slots (group_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3, $4)
	`
	for _, s := range slots {
		if _, err := tx.ExecContext(ctx, query, groupID, s.DayOfWeek, s.StartTime, s.EndTime); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) GetGroupByID(ctx context.Context, id int) (*AvailabilityGroup, error) {
	query := `
		SELECT id, owner_id, name, timezone, is_default, created_at
		FROM availability_groups
		WHERE id = $1
	`

	var group AvailabilityGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	if err := r.loadSlots(ctx, &group); err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *repository) loadSlots(ctx context.Context, group *AvailabilityGroup) error {
	query := `
		SELECT id, group_id, day_of_week, start_time, end_time
		FROM availability_slots
		WHERE group_id = $1
		ORDER BY day_of_week ASC, start_time ASC
	`
	return r.db.SelectContext(ctx, &group.Slots, query, group.ID)
}

func (r *repository) ListGroupsByOwner(ctx context.Context, ownerID int) ([]AvailabilityGroup, error) {
	query := `
		SELECT id, owner_id, name, timezone, is_default, created_at
		FROM availability_groups
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`

	var groups []AvailabilityGroup
	if err := r.db.SelectContext(ctx, &groups, query, ownerID); err != nil {
		return nil, err
	}

	for i := range groups {
		if err := r.loadSlots(ctx, &groups[i]); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

func (r *repository) GetDefaultGroupByOwner(ctx context.Context, ownerID int) (*AvailabilityGroup, error) {
	query := `
		SELECT id, owner_id, name, timezone, is_default, created_at
		FROM availability_groups
		WHERE owner_id = $1 AND is_default = TRUE
	`

	var group AvailabilityGroup
	if err := r.db.GetContext(ctx, &group, query, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	if err := r.loadSlots(ctx, &group); err != nil {
		return nil, err
	}

	return &group, nil
}

// UpdateGroup mutates a group in one transaction. When isDefault is set to
// true the owner's other groups lose the flag in the same transaction, so
// "exactly one default per owner" holds under concurrent updates. When slots
// are provided the existing rows are replaced wholesale.
func (r *repository) UpdateGroup(ctx context.Context, id int, name, timezone *string, isDefault *bool, slots *[]SlotInput) (*AvailabilityGroup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var ownerID int
	err = tx.GetContext(ctx, &ownerID, `SELECT owner_id FROM availability_groups WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	if isDefault != nil && *isDefault {
		_, err = tx.ExecContext(ctx, `
			UPDATE availability_groups
			SET is_default = FALSE
			WHERE owner_id = $1 AND id <> $2 AND is_default = TRUE
		`, ownerID, id)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE availability_groups
		SET name       = COALESCE($2, name),
		    timezone   = COALESCE($3, timezone),
		    is_default = COALESCE($4, is_default)
		WHERE id = $1
	`, id, name, timezone, isDefault)
	if err != nil {
		return nil, err
	}

	if slots != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM availability_slots WHERE group_id = $1`, id); err != nil {
			return nil, err
		}
		if err := insertSlots(ctx, tx, id, *slots); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetGroupByID(ctx, id)
}

func (r *repository) DeleteGroup(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_slots WHERE group_id = $1`, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM availability_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGroupNotFound
	}

	return tx.Commit()
}

func (r *repository) CreateExclusion(ctx context.Context, ownerID int, date time.Time, startTime, endTime string, exType ExclusionType, reason *string) (*SlotExclusion, error) {
	query := `
		INSERT INTO slot_exclusions (owner_id, date, start_time, end_time, type, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, owner_id, date, start_time, end_time, type, reason, created_at
	`

	var exclusion SlotExclusion
	if err := r.db.GetContext(ctx, &exclusion, query, ownerID, date, startTime, endTime, exType, reason); err != nil {
		return nil, err
	}

	return &exclusion, nil
}

func (r *repository) GetExclusionByID(ctx context.Context, id int) (*SlotExclusion, error) {
	query := `
		SELECT id, owner_id, date, start_time, end_time, type, reason, created_at
		FROM slot_exclusions
		WHERE id = $1
	`

	var exclusion SlotExclusion
	if err := r.db.GetContext(ctx, &exclusion, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExclusionNotFound
		}
		return nil, err
	}

	return &exclusion, nil
}

func (r *repository) ListExclusionsByOwner(ctx context.Context, ownerID int) ([]SlotExclusion, error) {
	query := `
		SELECT id, owner_id, date, start_time, end_time, type, reason, created_at
		FROM slot_exclusions
		WHERE owner_id = $1
		ORDER BY date ASC
	`

	var exclusions []SlotExclusion
	if err := r.db.SelectContext(ctx, &exclusions, query, ownerID); err != nil {
		return nil, err
	}

	return exclusions, nil
}

func (r *repository) ListExclusionsForDate(ctx context.Context, ownerID int, date time.Time) ([]SlotExclusion, error) {
	query := `
		SELECT id, owner_id, date, start_time, end_time, type, reason, created_at
		FROM slot_exclusions
		WHERE owner_id = $1 AND date = $2
		ORDER BY start_time ASC
	`

	var exclusions []SlotExclusion
	if err := r.db.SelectContext(ctx, &exclusions, query, ownerID, date); err != nil {
		return nil, err
	}

	return exclusions, nil
}

func (r *repository) UpdateExclusion(ctx context.Context, id int, date *time.Time, startTime, endTime, exType, reason *string) (*SlotExclusion, error) {
	query := `
		UPDATE slot_exclusions
		SET date       = COALESCE($2, date),
		    start_time = COALESCE($3, start_time),
		    end_time   = COALESCE($4, end_time),
		    type       = COALESCE($5, type),
		    reason     = COALESCE($6, reason)
		WHERE id = $1
		RETURNING id, owner_id, date, start_time, end_time, type, reason, created_at
	`

	var exclusion SlotExclusion
	if err := r.db.GetContext(ctx, &exclusion, query, id, date, startTime, endTime, exType, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExclusionNotFound
		}
		return nil, err
	}

	return &exclusion, nil
}

func (r *repository) DeleteExclusion(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM slot_exclusions WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrExclusionNotFound
	}

	return nil
}
