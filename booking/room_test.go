package booking

import (
	"testing"

	"roombook/api"
)

func TestIsAvailableNow(t *testing.T) {
	now := mustTime(t, "2025-05-02T11:00:00Z")

	t.Run("maintenance with empty schedule", func(t *testing.T) {
		room := api.Room{Status: "maintenance"}
		if IsAvailableNow(room, now) {
			t.Fatalf("maintenance room must not be available")
		}
	})

	t.Run("unavailable status", func(t *testing.T) {
		if IsAvailableNow(api.Room{Status: "unavailable"}, now) {
			t.Fatalf("unavailable room must not be available")
		}
	})

	t.Run("free room", func(t *testing.T) {
		room := api.Room{Status: "available", Schedule: []api.Interval{
			{Start: "2025-05-02T08:00:00Z", End: "2025-05-02T10:00:00Z"},
			{Start: "2025-05-02T12:00:00Z", End: "2025-05-02T14:00:00Z"},
		}}
		if !IsAvailableNow(room, now) {
			t.Fatalf("room should be free between entries")
		}
	})

	t.Run("covered by schedule entry", func(t *testing.T) {
		room := api.Room{Status: "Available", Schedule: []api.Interval{
			{Start: "2025-05-02T10:00:00Z", End: "2025-05-02T11:00:00Z"},
		}}
		if IsAvailableNow(room, now) {
			t.Fatalf("entry ending exactly now covers now")
		}
	})

	t.Run("unreadable entries are ignored", func(t *testing.T) {
		room := api.Room{Status: "available", Schedule: []api.Interval{{Start: "soon", End: "later"}}}
		if !IsAvailableNow(room, now) {
			t.Fatalf("bad entries should not block the room")
		}
	})
}

func TestDisplayFallbacks(t *testing.T) {
	room := api.Room{ID: 12}
	if got := DisplayCapacity(room); got != "-" {
		t.Fatalf("expected '-', got %q", got)
	}
	if got := DisplayCategory(room); got != "uncategorized" {
		t.Fatalf("expected uncategorized, got %q", got)
	}
	if got := DisplayName(room); got != "room #12" {
		t.Fatalf("expected room #12, got %q", got)
	}

	room = api.Room{Name: "A-101", Category: "lab", Capacity: 30}
	if DisplayCapacity(room) != "30" || DisplayCategory(room) != "lab" || DisplayName(room) != "A-101" {
		t.Fatalf("unexpected display values for %+v", room)
	}
}
