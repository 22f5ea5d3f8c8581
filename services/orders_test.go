package services

import (
	"regexp"
	"testing"
	"time"
)

func TestNewOrderID(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 42, 0, 0, time.UTC)

	re := regexp.MustCompile(`^09011542-[0-9a-f]{4}$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id := NewOrderID(now)
		if !re.MatchString(id) {
			t.Fatalf("order id %q does not match MMDDHHMM-xxxx", id)
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Error("order ids should vary via the random suffix")
	}
}
