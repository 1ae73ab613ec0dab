package availability

import "time"

// AvailabilityGroup is a provider's named weekly recurring schedule.
// At most one group per owner carries is_default.
type AvailabilityGroup struct {
	ID        int       `db:"id" json:"id"`
	OwnerID   int       `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	Timezone  string    `db:"timezone" json:"timezone"`
	IsDefault bool      `db:"is_default" json:"is_default"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Slots []Slot `json:"slots"`
}

// Slot is one bookable window inside a weekly schedule. A day with no slots
// is a disabled day; removing the last slot of a day disables it.
type Slot struct {
	ID        int    `db:"id" json:"id"`
	GroupID   int    `db:"group_id" json:"group_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

type ExclusionType string

const (
	ExclusionSick        ExclusionType = "sick"
	ExclusionVacation    ExclusionType = "vacation"
	ExclusionTraining    ExclusionType = "training"
	ExclusionConference  ExclusionType = "conference"
	ExclusionPersonal    ExclusionType = "personal"
	ExclusionMaintenance ExclusionType = "maintenance"
	ExclusionEmergency   ExclusionType = "emergency"
	ExclusionOther       ExclusionType = "other"
)

func (t ExclusionType) Valid() bool {
	switch t {
	case ExclusionSick, ExclusionVacation, ExclusionTraining, ExclusionConference,
		ExclusionPersonal, ExclusionMaintenance, ExclusionEmergency, ExclusionOther:
		return true
	}
	return false
}

// SlotExclusion is a date-specific blackout window. It applies only to the
// stated date and may target hours that were never available.
type SlotExclusion struct {
	ID        int           `db:"id" json:"id"`
	OwnerID   int           `db:"owner_id" json:"owner_id"`
	Date      time.Time     `db:"date" json:"date"`
	StartTime string        `db:"start_time" json:"start_time"`
	EndTime   string        `db:"end_time" json:"end_time"`
	Type      ExclusionType `db:"type" json:"type"`
	Reason    *string       `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

type SlotInput struct {
	DayOfWeek int    `json:"day_of_week" binding:"gte=0,lte=6" validate:"gte=0,lte=6"`
	StartTime string `json:"start_time" binding:"required" validate:"required"`
	EndTime   string `json:"end_time" binding:"required" validate:"required"`
}

type CreateGroupRequest struct {
	OwnerID  int    `json:"owner_id" binding:"required" validate:"required"`
	Name     string `json:"name" binding:"required" validate:"required"`
	Timezone string `json:"timezone"`
}

type UpdateGroupRequest struct {
	Name      *string      `json:"name,omitempty"`
	Timezone  *string      `json:"timezone,omitempty"`
	IsDefault *bool        `json:"is_default,omitempty"`
	Slots     *[]SlotInput `json:"slots,omitempty"`
}

type CreateExclusionRequest struct {
	OwnerID   int     `json:"owner_id" binding:"required" validate:"required"`
	Date      string  `json:"date" binding:"required" validate:"required"` // YYYY-MM-DD
	StartTime string  `json:"start_time" binding:"required" validate:"required"`
	EndTime   string  `json:"end_time" binding:"required" validate:"required"`
	Type      string  `json:"type" binding:"required" validate:"required"`
	Reason    *string `json:"reason,omitempty"`
}

type UpdateExclusionRequest struct {
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Type      *string `json:"type,omitempty"`
	Reason    *string `json:"reason,omitempty"`
}

// Window is a concrete bookable interval within a single day, in "HH:MM"
// clock time.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type EffectiveWindowsResponse struct {
	OwnerID int      `json:"owner_id"`
	Date    string   `json:"date"`
	Windows []Window `json:"windows"`
}
