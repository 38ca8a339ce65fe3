package billing

import (
	"testing"
	"time"
)

func TestActivationCycle(t *testing.T) {
	today := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	start, end := ActivationCycle(today)

	if !start.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start: got %v", start)
	}
	if !end.Equal(time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end: got %v", end)
	}
}

func TestExtendCycle(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// No current cycle: 30 days from today.
	if got := ExtendCycle(today, nil); !got.Equal(today.AddDate(0, 0, 30)) {
		t.Fatalf("nil end: got %v", got)
	}

	// Early renewal stacks onto the remaining days.
	future := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	if got := ExtendCycle(today, &future); !got.Equal(future.AddDate(0, 0, 30)) {
		t.Fatalf("future end: got %v", got)
	}

	// Late renewal restarts from today, no back-dated gap.
	past := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := ExtendCycle(today, &past); !got.Equal(today.AddDate(0, 0, 30)) {
		t.Fatalf("past end: got %v", got)
	}
}
