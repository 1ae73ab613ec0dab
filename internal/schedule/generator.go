package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrInvalidClock = errors.New("clock time must be HH:MM")

// SessionCandidate is a session derived from a template for one calendar
// date, not yet persisted.
type SessionCandidate struct {
	TemplateID   int
	ClassTypeID  int
	InstructorID int
	BranchID     int
	StartTime    time.Time
	EndTime      time.Time
	Capacity     int
}

func parseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// ExpandTemplates produces one candidate per template per matching calendar
// date in [start, end). start and end carry only date components; the clock
// strings on each template are combined with its branch timezone to form
// absolute instants. Unknown branches fall back to the default location.
// The expansion is pure: dedup against existing sessions happens at insert.
func ExpandTemplates(templates []ClassTemplate, start, end time.Time, locs map[int]*time.Location, fallback *time.Location) ([]SessionCandidate, error) {
	byDay := make(map[time.Weekday][]ClassTemplate)
	for _, t := range templates {
		wd := time.Weekday(t.DayOfWeek)
		byDay[wd] = append(byDay[wd], t)
	}

	var out []SessionCandidate
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		for _, t := range byDay[d.Weekday()] {
			loc := locs[t.BranchID]
			if loc == nil {
				loc = fallback
			}
			sm, err := parseClock(t.StartTime)
			if err != nil {
				return nil, fmt.Errorf("template %d: %w", t.ID, err)
			}
			em, err := parseClock(t.EndTime)
			if err != nil {
				return nil, fmt.Errorf("template %d: %w", t.ID, err)
			}
			y, mo, day := d.Date()
			out = append(out, SessionCandidate{
				TemplateID:   t.ID,
				ClassTypeID:  t.ClassTypeID,
				InstructorID: t.InstructorID,
				BranchID:     t.BranchID,
				StartTime:    time.Date(y, mo, day, sm/60, sm%60, 0, 0, loc),
				EndTime:      time.Date(y, mo, day, em/60, em%60, 0, 0, loc),
				Capacity:     t.Capacity,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].TemplateID < out[j].TemplateID
	})
	return out, nil
}
