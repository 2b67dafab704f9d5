package availability

import (
	"testing"
	"time"

	"bookable/pkg/model"
)

func day(hour, min int) time.Time {
	return time.Date(2026, 9, 15, hour, min, 0, 0, time.UTC)
}

func collect(slots func(func(model.TimeSlot) bool)) []model.TimeSlot {
	var out []model.TimeSlot
	for slot := range slots {
		out = append(out, slot)
	}
	return out
}

func TestGenerateFullDay(t *testing.T) {
	slots := collect(Generate(day(9, 0), day(17, 0), 30, 30))

	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(day(9, 0)) {
		t.Errorf("first slot should start at 09:00, got %v", slots[0].Start)
	}
	if !slots[15].Start.Equal(day(16, 30)) {
		t.Errorf("last slot should start at 16:30, got %v", slots[15].Start)
	}
}

func TestGenerateLastSlotMustFitEntirely(t *testing.T) {
	// A 60 minute meeting stepping every 15 minutes: the last start that
	// still ends by 17:00 is 16:00.
	slots := collect(Generate(day(9, 0), day(17, 0), 60, 15))

	last := slots[len(slots)-1]
	if !last.Start.Equal(day(16, 0)) {
		t.Errorf("last slot should start at 16:00, got %v", last.Start)
	}
	if last.End().After(day(17, 0)) {
		t.Errorf("slot %v ends after the day window", last.Start)
	}
}

func TestGenerateDurationLongerThanWindow(t *testing.T) {
	slots := collect(Generate(day(9, 0), day(9, 30), 60, 30))
	if len(slots) != 0 {
		t.Errorf("expected no slots, got %d", len(slots))
	}
}

func TestGenerateNonPositiveInputs(t *testing.T) {
	if got := collect(Generate(day(9, 0), day(17, 0), 0, 30)); len(got) != 0 {
		t.Errorf("zero duration should yield no slots, got %d", len(got))
	}
	if got := collect(Generate(day(9, 0), day(17, 0), 30, 0)); len(got) != 0 {
		t.Errorf("zero granularity should yield no slots, got %d", len(got))
	}
}

func TestGenerateIsRestartable(t *testing.T) {
	seq := Generate(day(9, 0), day(12, 0), 30, 30)

	first := collect(seq)
	second := collect(seq)

	if len(first) != len(second) {
		t.Fatalf("restarted sequence produced %d slots, first pass produced %d", len(second), len(first))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) {
			t.Errorf("slot %d differs between passes: %v vs %v", i, first[i].Start, second[i].Start)
		}
	}
}

func TestGenerateEarlyBreak(t *testing.T) {
	seq := Generate(day(9, 0), day(17, 0), 30, 30)

	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("expected to stop after 3 slots, got %d", n)
	}
}
