package availability

import (
	"iter"
	"time"

	"bookable/pkg/model"
)

// Filter drops every candidate slot whose interval overlaps a blocked
// interval once that interval has been grown by the link's buffers. Padding
// is applied before the overlap test, not after, so a meeting ending at 10:00
// with a 10 minute after-buffer still blocks a candidate starting at 10:05.
func Filter(slots iter.Seq[model.TimeSlot], blocked []model.BlockedInterval, bufferBeforeMin, bufferAfterMin int) iter.Seq[model.TimeSlot] {
	return func(yield func(model.TimeSlot) bool) {
		for slot := range slots {
			if SlotBlocked(slot, blocked, bufferBeforeMin, bufferAfterMin) {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// SlotBlocked reports whether the slot collides with any blocked interval
// after buffer padding.
func SlotBlocked(slot model.TimeSlot, blocked []model.BlockedInterval, bufferBeforeMin, bufferAfterMin int) bool {
	before := time.Duration(bufferBeforeMin) * time.Minute
	after := time.Duration(bufferAfterMin) * time.Minute

	for _, iv := range blocked {
		paddedStart := iv.Start.Add(-before)
		paddedEnd := iv.End.Add(after)
		if overlaps(slot.Start, slot.End(), paddedStart, paddedEnd) {
			return true
		}
	}
	return false
}

// overlaps is the half-open interval test: [start1, end1) and [start2, end2)
// intersect. Touching endpoints do not count as a collision.
func overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}
