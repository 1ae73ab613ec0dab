package availability

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() {
		sqlxDB.Close()
	}

	return repo, mock, closer
}

func groupRows(id, ownerID int, name string, isDefault bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "name", "timezone", "is_default", "created_at"}).
		AddRow(id, ownerID, name, "Asia/Singapore", isDefault, time.Now())
}

func slotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "group_id", "day_of_week", "start_time", "end_time"})
}

func TestGetGroupByID(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, name, timezone, is_default, created_at FROM availability_groups WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(groupRows(1, 5, "Main", true))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, group_id, day_of_week, start_time, end_time FROM availability_slots WHERE group_id = $1 ORDER BY day_of_week ASC, start_time ASC")).
		WithArgs(1).
		WillReturnRows(slotRows().AddRow(10, 1, 1, "09:00", "17:00"))

	group, err := repo.GetGroupByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, group.ID)
	assert.True(t, group.IsDefault)
	require.Len(t, group.Slots, 1)
	assert.Equal(t, "09:00", group.Slots[0].StartTime)
}

func TestGetGroupByID_NotFound(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, name, timezone, is_default, created_at FROM availability_groups WHERE id = $1")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "timezone", "is_default", "created_at"}))

	_, err := repo.GetGroupByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestUpdateGroup_SetDefaultClearsSiblings(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	isDefault := true

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM availability_groups WHERE id = $1 FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability_groups SET is_default = FALSE WHERE owner_id = $1 AND id <> $2 AND is_default = TRUE")).
		WithArgs(5, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability_groups SET name = COALESCE($2, name), timezone = COALESCE($3, timezone), is_default = COALESCE($4, is_default) WHERE id = $1")).
		WithArgs(2, nil, nil, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, name, timezone, is_default, created_at FROM availability_groups WHERE id = $1")).
		WithArgs(2).
		WillReturnRows(groupRows(2, 5, "Backup", true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, group_id, day_of_week, start_time, end_time FROM availability_slots WHERE group_id = $1")).
		WithArgs(2).
		WillReturnRows(slotRows())

	group, err := repo.UpdateGroup(context.Background(), 2, nil, nil, &isDefault, nil)
	require.NoError(t, err)
	assert.True(t, group.IsDefault)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateGroup_NotFound(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM availability_groups WHERE id = $1 FOR UPDATE")).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))
	mock.ExpectRollback()

	_, err := repo.UpdateGroup(context.Background(), 404, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestDeleteGroup(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_slots WHERE group_id = $1")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_groups WHERE id = $1")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteGroup(context.Background(), 3)
	require.NoError(t, err)
}

func TestDeleteGroup_NotFound(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_slots WHERE group_id = $1")).
		WithArgs(404).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_groups WHERE id = $1")).
		WithArgs(404).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteGroup(context.Background(), 404)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestCreateAndListExclusions(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	now := time.Now()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO slot_exclusions (owner_id, date, start_time, end_time, type, reason) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, owner_id, date, start_time, end_time, type, reason, created_at")).
		WithArgs(5, date, "09:30", "10:00", ExclusionSick, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "date", "start_time", "end_time", "type", "reason", "created_at"}).
			AddRow(1, 5, date, "09:30", "10:00", "sick", nil, now))

	exclusion, err := repo.CreateExclusion(context.Background(), 5, date, "09:30", "10:00", ExclusionSick, nil)
	require.NoError(t, err)
	assert.Equal(t, ExclusionSick, exclusion.Type)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, date, start_time, end_time, type, reason, created_at FROM slot_exclusions WHERE owner_id = $1 ORDER BY date ASC")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "date", "start_time", "end_time", "type", "reason", "created_at"}).
			AddRow(1, 5, date, "09:30", "10:00", "sick", nil, now).
			AddRow(2, 5, date.AddDate(0, 0, 1), "13:00", "14:00", "personal", nil, now))

	list, err := repo.ListExclusionsByOwner(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDeleteExclusion_NotFound(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM slot_exclusions WHERE id = $1")).
		WithArgs(404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteExclusion(context.Background(), 404)
	assert.ErrorIs(t, err, ErrExclusionNotFound)
}
