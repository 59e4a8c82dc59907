package booking

import "time"

// Resolve computes the status a booking should hold at the given instant.
// It is a pure function of (status, start, end, now); repeated calls with
// the same inputs always return the same value.
//
// Precedence:
//  1. Terminal statuses are sticky and never recomputed.
//  2. A stored in_progress is honored until the end time, even if now is
//     before the start time (an admin may start a booking early).
//  3. pending and confirmed derive purely from time. A re-resolved pending
//     that has not started yet normalizes to confirmed; bookings are
//     auto-confirmed at creation, so pending carries no extra meaning on
//     the automatic path.
func Resolve(status Status, start, end, now time.Time) Status {
	if status.IsTerminal() {
		return status
	}

	if status == StatusInProgress {
		if !now.Before(end) {
			return StatusCompleted
		}
		return StatusInProgress
	}

	switch {
	case !now.Before(end):
		return StatusCompleted
	case !now.Before(start):
		return StatusInProgress
	default:
		return StatusConfirmed
	}
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Intervals that merely touch at a boundary
// (one ending exactly when the other starts) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
