package repository_test

import (
	"testing"
	"time"

	"github.com/iliyamo/parking-slot-booking/internal/model"
)

func TestAuditRecordAndRangeScan(t *testing.T) {
	e := newEnv(t)
	start := e.clk.Now()

	e.audit.Record(model.AuditLoginSuccess, "u1", "user", "u1", nil)
	e.clk.Advance(time.Minute)
	e.audit.Record(model.AuditBookingCreated, "u1", "booking", "b1", map[string]string{"slot_id": "s1"})
	e.clk.Advance(time.Minute)
	e.audit.Record(model.AuditBookingCancelled, "u1", "booking", "b1", nil)

	all, err := e.audit.List(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d entries, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Timestamp.Before(all[i-1].Timestamp) {
			t.Fatalf("entries out of order: %v after %v", all[i].Timestamp, all[i-1].Timestamp)
		}
	}
	if len(all[1].Payload) == 0 {
		t.Fatal("payload lost")
	}

	// The range is half-open: from inclusive, to exclusive.
	mid, err := e.audit.List(start.Add(time.Minute), start.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(mid) != 1 || mid[0].Action != model.AuditBookingCreated {
		t.Fatalf("range scan returned %+v", mid)
	}
}

func TestAuditListUnboundedLowerEdge(t *testing.T) {
	e := newEnv(t)
	e.audit.Record(model.AuditLoginSuccess, "u1", "user", "u1", nil)

	// A zero `from` means "from the beginning of time"; it must not be
	// interpreted as a key above every stored entry.
	all, err := e.audit.List(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("zero-from list returned %d entries, want 1", len(all))
	}

	// Same for an explicit pre-epoch lower bound.
	old, err := e.audit.List(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	if err != nil {
		t.Fatalf("list pre-epoch: %v", err)
	}
	if len(old) != 1 {
		t.Fatalf("pre-epoch-from list returned %d entries, want 1", len(old))
	}
}

func TestAuditSameInstantEntries(t *testing.T) {
	e := newEnv(t)
	// Two events in the same nanosecond must both be retained.
	e.audit.Record(model.AuditLoginFailed, "", "user", "", nil)
	e.audit.Record(model.AuditLoginFailed, "", "user", "", nil)

	all, err := e.audit.List(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d entries, want 2", len(all))
	}
}
