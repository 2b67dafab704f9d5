package availability

import (
	"iter"
	"time"

	"bookable/pkg/model"
)

// Generate produces the raw candidate slots for one day. Starting at dayStart
// it steps forward by granularityMin while the whole meeting still fits before
// dayEnd. The sequence is lazy and restartable; ranging over it twice yields
// the same slots.
func Generate(dayStart, dayEnd time.Time, durationMin, granularityMin int) iter.Seq[model.TimeSlot] {
	duration := time.Duration(durationMin) * time.Minute
	step := time.Duration(granularityMin) * time.Minute

	return func(yield func(model.TimeSlot) bool) {
		if durationMin <= 0 || granularityMin <= 0 {
			return
		}
		for start := dayStart; !start.Add(duration).After(dayEnd); start = start.Add(step) {
			if !yield(model.TimeSlot{Start: start, DurationMin: durationMin}) {
				return
			}
		}
	}
}
