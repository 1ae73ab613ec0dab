package schedule

import "time"

type ClassType struct {
	ID              int       `db:"id" json:"id"`
	TeamID          int       `db:"team_id" json:"team_id"`
	Name            string    `db:"name" json:"name"`
	DisplayName     string    `db:"display_name" json:"display_name"`
	Description     *string   `db:"description" json:"description,omitempty"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	DefaultCapacity int       `db:"default_capacity" json:"default_capacity"`
	IsOpenGym       bool      `db:"is_open_gym" json:"is_open_gym"`
	Color           string    `db:"color" json:"color"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Branch carries the timezone used when a template's weekday and clock time
// are combined into absolute session instants.
type Branch struct {
	ID       int    `db:"id" json:"id"`
	TeamID   int    `db:"team_id" json:"team_id"`
	Name     string `db:"name" json:"name"`
	Location string `db:"location" json:"location"`
	Timezone string `db:"timezone" json:"timezone"`
}

// ClassTemplate is a recurring weekly class definition. Times are "HH:MM"
// clock strings; dayOfWeek is 0 (Sunday) through 6 (Saturday).
type ClassTemplate struct {
	ID           int       `db:"id" json:"id"`
	ClassTypeID  int       `db:"class_type_id" json:"class_type_id"`
	InstructorID int       `db:"instructor_id" json:"instructor_id"`
	BranchID     int       `db:"branch_id" json:"branch_id"`
	DayOfWeek    int       `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	Capacity     int       `db:"capacity" json:"capacity"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ClassSession is one dated occurrence of a class. TemplateID is nil for
// manually created sessions; generation never touches those. Sessions are
// never hard-deleted, only flagged cancelled.
type ClassSession struct {
	ID           int       `db:"id" json:"id"`
	TemplateID   *int      `db:"template_id" json:"template_id,omitempty"`
	ClassTypeID  int       `db:"class_type_id" json:"class_type_id"`
	InstructorID int       `db:"instructor_id" json:"instructor_id"`
	BranchID     int       `db:"branch_id" json:"branch_id"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	Capacity     int       `db:"capacity" json:"capacity"`
	BookedCount  int       `db:"booked_count" json:"booked_count"`
	IsCancelled  bool      `db:"is_cancelled" json:"is_cancelled"`
	CancelReason *string   `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type SessionWithAvailability struct {
	ClassSession
	AvailableSpots int  `json:"available_spots"`
	IsFull         bool `json:"is_full"`
}

type CreateClassTypeRequest struct {
	TeamID          int     `json:"team_id" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	DisplayName     string  `json:"display_name" binding:"required"`
	Description     *string `json:"description,omitempty"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=1"`
	DefaultCapacity int     `json:"default_capacity" binding:"required,min=1"`
	IsOpenGym       bool    `json:"is_open_gym"`
	Color           string  `json:"color"`
}

type CreateTemplateRequest struct {
	ClassTypeID  int    `json:"class_type_id" binding:"required"`
	InstructorID int    `json:"instructor_id" binding:"required"`
	BranchID     int    `json:"branch_id" binding:"required"`
	DayOfWeek    int    `json:"day_of_week" binding:"gte=0,lte=6"`
	StartTime    string `json:"start_time" binding:"required"`
	EndTime      string `json:"end_time" binding:"required"`
	Capacity     int    `json:"capacity" binding:"required,min=1"`
}

type UpdateTemplateRequest struct {
	ClassTypeID  *int    `json:"class_type_id,omitempty"`
	InstructorID *int    `json:"instructor_id,omitempty"`
	BranchID     *int    `json:"branch_id,omitempty"`
	DayOfWeek    *int    `json:"day_of_week,omitempty"`
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	Capacity     *int    `json:"capacity,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type CreateSessionRequest struct {
	ClassTypeID  int       `json:"class_type_id" binding:"required"`
	InstructorID int       `json:"instructor_id" binding:"required"`
	BranchID     int       `json:"branch_id" binding:"required"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
	Capacity     int       `json:"capacity" binding:"required,min=1"`
}

type UpdateSessionRequest struct {
	InstructorID *int       `json:"instructor_id,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Capacity     *int       `json:"capacity,omitempty"`
}

type CancelSessionRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type GenerateRequest struct {
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`   // YYYY-MM-DD, exclusive
	BranchID  *int   `json:"branch_id,omitempty"`
}

// WeeklyScheduleResponse groups a week's sessions by calendar date
// (YYYY-MM-DD) for the public schedule view.
type WeeklyScheduleResponse struct {
	WeekStart time.Time                            `json:"week_start"`
	WeekEnd   time.Time                            `json:"week_end"`
	Sessions  []SessionWithAvailability            `json:"sessions"`
	ByDate    map[string][]SessionWithAvailability `json:"by_date"`
}
