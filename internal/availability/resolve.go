package availability

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var ErrInvalidClock = errors.New("time must be in HH:MM format")

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	min, err := strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	return hour*60 + min, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type span struct {
	start, end int
}

// SubtractExclusions removes every exclusion window from the day's slots and
// returns the remaining bookable windows, sorted by start time. Partial
// overlap truncates a slot from whichever edge intersects, full containment
// removes it, and an exclusion strictly inside a slot splits it in two.
// Exclusions that target hours outside every slot are harmless no-ops.
func SubtractExclusions(slots []Window, exclusions []Window) ([]Window, error) {
	spans := make([]span, 0, len(slots))
	for _, w := range slots {
		start, err := parseClock(w.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(w.End)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span{start, end})
	}

	for _, ex := range exclusions {
		exStart, err := parseClock(ex.Start)
		if err != nil {
			return nil, err
		}
		exEnd, err := parseClock(ex.End)
		if err != nil {
			return nil, err
		}

		next := make([]span, 0, len(spans))
		for _, s := range spans {
			switch {
			case exEnd <= s.start || exStart >= s.end:
				next = append(next, s)
			case exStart <= s.start && exEnd >= s.end:
				// fully covered, drop
			case exStart > s.start && exEnd < s.end:
				next = append(next, span{s.start, exStart}, span{exEnd, s.end})
			case exStart <= s.start:
				next = append(next, span{exEnd, s.end})
			default:
				next = append(next, span{s.start, exStart})
			}
		}
		spans = next
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	windows := make([]Window, 0, len(spans))
	for _, s := range spans {
		if s.start < s.end {
			windows = append(windows, Window{Start: formatClock(s.start), End: formatClock(s.end)})
		}
	}
	return windows, nil
}
