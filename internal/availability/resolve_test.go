package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9:00", 0, true},
		{"garbage", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parseClock(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidClock, "input %q", tt.in)
		} else {
			require.NoError(t, err, "input %q", tt.in)
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestSubtractExclusions_InteriorSplit(t *testing.T) {
	// Slot 09:00-12:00, exclusion 09:30-10:00 strictly inside it.
	windows, err := SubtractExclusions(
		[]Window{{Start: "09:00", End: "12:00"}},
		[]Window{{Start: "09:30", End: "10:00"}},
	)
	require.NoError(t, err)

	assert.Equal(t, []Window{
		{Start: "09:00", End: "09:30"},
		{Start: "10:00", End: "12:00"},
	}, windows)
}

func TestSubtractExclusions_EdgeTruncation(t *testing.T) {
	t.Run("leading edge", func(t *testing.T) {
		windows, err := SubtractExclusions(
			[]Window{{Start: "09:00", End: "12:00"}},
			[]Window{{Start: "08:00", End: "10:00"}},
		)
		require.NoError(t, err)
		assert.Equal(t, []Window{{Start: "10:00", End: "12:00"}}, windows)
	})

	t.Run("trailing edge", func(t *testing.T) {
		windows, err := SubtractExclusions(
			[]Window{{Start: "09:00", End: "12:00"}},
			[]Window{{Start: "11:00", End: "13:00"}},
		)
		require.NoError(t, err)
		assert.Equal(t, []Window{{Start: "09:00", End: "11:00"}}, windows)
	})
}

func TestSubtractExclusions_FullContainment(t *testing.T) {
	windows, err := SubtractExclusions(
		[]Window{{Start: "09:00", End: "10:00"}},
		[]Window{{Start: "08:00", End: "11:00"}},
	)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestSubtractExclusions_NonOverlappingIsNoOp(t *testing.T) {
	slots := []Window{{Start: "09:00", End: "12:00"}}

	windows, err := SubtractExclusions(slots, []Window{{Start: "14:00", End: "16:00"}})
	require.NoError(t, err)
	assert.Equal(t, slots, windows)
}

func TestSubtractExclusions_MultipleSlotsAndExclusions(t *testing.T) {
	windows, err := SubtractExclusions(
		[]Window{
			{Start: "09:00", End: "12:00"},
			{Start: "13:00", End: "17:00"},
		},
		[]Window{
			{Start: "11:30", End: "13:30"},
			{Start: "15:00", End: "15:30"},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, []Window{
		{Start: "09:00", End: "11:30"},
		{Start: "13:30", End: "15:00"},
		{Start: "15:30", End: "17:00"},
	}, windows)
}

func TestSubtractExclusions_AdjacentBoundariesTouchButDoNotCut(t *testing.T) {
	windows, err := SubtractExclusions(
		[]Window{{Start: "09:00", End: "12:00"}},
		[]Window{{Start: "12:00", End: "13:00"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []Window{{Start: "09:00", End: "12:00"}}, windows)
}

func TestSubtractExclusions_BadClockPropagates(t *testing.T) {
	_, err := SubtractExclusions(
		[]Window{{Start: "9am", End: "12:00"}},
		nil,
	)
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestValidateSlots(t *testing.T) {
	t.Run("valid schedule", func(t *testing.T) {
		err := validateSlots([]SlotInput{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: 1, StartTime: "13:00", EndTime: "17:00"},
			{DayOfWeek: 2, StartTime: "09:00", EndTime: "17:00"},
		})
		assert.NoError(t, err)
	})

	t.Run("start after end", func(t *testing.T) {
		err := validateSlots([]SlotInput{
			{DayOfWeek: 1, StartTime: "12:00", EndTime: "09:00"},
		})
		assert.ErrorIs(t, err, ErrSlotOrder)
	})

	t.Run("zero-length slot", func(t *testing.T) {
		err := validateSlots([]SlotInput{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:00"},
		})
		assert.ErrorIs(t, err, ErrSlotOrder)
	})

	t.Run("intra-day overlap", func(t *testing.T) {
		err := validateSlots([]SlotInput{
			{DayOfWeek: 3, StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: 3, StartTime: "11:00", EndTime: "14:00"},
		})
		assert.ErrorIs(t, err, ErrSlotOverlap)
	})

	t.Run("same clock on different days is fine", func(t *testing.T) {
		err := validateSlots([]SlotInput{
			{DayOfWeek: 3, StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: 4, StartTime: "09:00", EndTime: "12:00"},
		})
		assert.NoError(t, err)
	})
}
