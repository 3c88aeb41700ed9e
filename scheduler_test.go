package tripagent

import (
	"strings"
	"testing"
	"time"

	"github.com/Desarso/tripagent/sessions"
)

func TestSchedulePolicyRefresh(t *testing.T) {
	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := sessions.NewPolicy("Kuala Lumpur (KUL)")
	policy.Now = func() time.Time { return day }
	policy.Refresh()

	s := NewScheduler()
	id, err := s.SchedulePolicyRefresh(policy)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	entries := s.Entries()
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("entries = %+v", entries)
	}

	next := entries[0].Schedule.Next(day)
	if want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}

	day = day.AddDate(0, 0, 1)
	entries[0].Job.Run()
	if !strings.Contains(policy.Text(), "2026-03-02") {
		t.Error("job did not refresh the policy date")
	}
}
