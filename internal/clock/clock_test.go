package clock_test

import (
	"testing"
	"time"

	"github.com/iliyamo/parking-slot-booking/internal/clock"
)

func TestManualAdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	m := clock.NewManual(start)

	if !m.Now().Equal(start) {
		t.Fatalf("now %v, want %v", m.Now(), start)
	}
	got := m.Advance(90 * time.Minute)
	if !got.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", got)
	}
	if !m.Now().Equal(got) {
		t.Fatalf("now %v after advance, want %v", m.Now(), got)
	}

	pin := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Set(pin)
	if !m.Now().Equal(pin) {
		t.Fatalf("now %v after set, want %v", m.Now(), pin)
	}
}

func TestRealClockIsUTC(t *testing.T) {
	if loc := (clock.Real{}).Now().Location(); loc != time.UTC {
		t.Fatalf("real clock location %v, want UTC", loc)
	}
}
