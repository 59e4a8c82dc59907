package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	// Booking interval for all cases: 09:00 - 10:00
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	at := func(hour, min int) time.Time {
		return time.Date(2026, 3, 1, hour, min, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		status Status
		now    time.Time
		want   Status
	}{
		{"confirmed before start stays confirmed", StatusConfirmed, at(8, 30), StatusConfirmed},
		{"confirmed at start becomes in_progress", StatusConfirmed, at(9, 0), StatusInProgress},
		{"confirmed mid-interval becomes in_progress", StatusConfirmed, at(9, 30), StatusInProgress},
		{"confirmed at end becomes completed", StatusConfirmed, at(10, 0), StatusCompleted},
		{"confirmed after end becomes completed", StatusConfirmed, at(10, 1), StatusCompleted},

		{"pending before start normalizes to confirmed", StatusPending, at(8, 30), StatusConfirmed},
		{"pending mid-interval becomes in_progress", StatusPending, at(9, 30), StatusInProgress},
		{"pending after end becomes completed", StatusPending, at(11, 0), StatusCompleted},

		{"manual early start honored before start", StatusInProgress, at(8, 55), StatusInProgress},
		{"in_progress mid-interval stays in_progress", StatusInProgress, at(9, 30), StatusInProgress},
		{"in_progress at end becomes completed", StatusInProgress, at(10, 0), StatusCompleted},
		{"in_progress after end becomes completed", StatusInProgress, at(10, 1), StatusCompleted},

		{"completed is sticky before start", StatusCompleted, at(8, 0), StatusCompleted},
		{"cancelled is sticky mid-interval", StatusCancelled, at(9, 30), StatusCancelled},
		{"cancelled is sticky after end", StatusCancelled, at(11, 0), StatusCancelled},
		{"refunded is sticky after end", StatusRefunded, at(11, 0), StatusRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.status, start, end, tt.now)
			assert.Equal(t, tt.want, got)

			// Derivation is pure: repeated calls agree, and re-resolving
			// the derived status at the same instant is a fixed point.
			assert.Equal(t, got, Resolve(tt.status, start, end, tt.now))
			assert.Equal(t, got, Resolve(got, start, end, tt.now))
		})
	}
}

func TestOverlaps(t *testing.T) {
	at := func(hour, min int) time.Time {
		return time.Date(2026, 3, 1, hour, min, 0, 0, time.UTC)
	}

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical intervals", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"contained interval", at(10, 0), at(11, 0), at(10, 15), at(10, 45), true},
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"straddles boundary", at(10, 59), at(11, 1), at(10, 0), at(11, 0), true},
		{"boundary touch does not overlap", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"boundary touch other side", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint intervals", at(9, 0), at(10, 0), at(12, 0), at(13, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestStatusSets(t *testing.T) {
	for _, s := range BlockingStatuses {
		assert.True(t, s.IsBlocking(), "%s should block", s)
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
	for _, s := range TerminalStatuses {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
		assert.False(t, s.IsBlocking(), "%s should not block", s)
	}
	assert.False(t, Status("bogus").IsValid())
	assert.True(t, StatusRefunded.IsValid())
}
