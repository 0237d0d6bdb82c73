package booking

import (
	"errors"
	"testing"
	"time"

	"roombook/api"
)

func TestParseTimestamp(t *testing.T) {
	accepted := []string{
		"2025-05-02T10:00:00Z",
		"2025-05-02T10:00:00.123Z",
		"2025-05-02T10:00:00+05:00",
		"2025-05-02T10:00:00",
		"2025-05-02 10:00:00",
		"2025-05-02 10:00",
		" 2025-05-02T10:00 ",
	}
	for _, value := range accepted {
		if _, ok := ParseTimestamp(value); !ok {
			t.Fatalf("expected %q to parse", value)
		}
	}

	for _, value := range []string{"", "tomorrow", "02.05.2025", "2025-13-40T10:00:00Z"} {
		if _, ok := ParseTimestamp(value); ok {
			t.Fatalf("expected %q to be rejected", value)
		}
	}

	parsed, _ := ParseTimestampIn("2025-05-02 10:00", time.UTC)
	if !parsed.Equal(time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parse result %s", parsed)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusApproved},
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusRejected},
		{StatusPending, StatusCancelled},
		{StatusApproved, StatusGiven},
		{StatusApproved, StatusCancelled},
		{StatusConfirmed, StatusGiven},
		{StatusGiven, StatusTaken},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]Status{
		{StatusPending, StatusGiven},
		{StatusApproved, StatusTaken},
		{StatusGiven, StatusCancelled},
		{StatusCancelled, StatusApproved},
		{StatusRejected, StatusApproved},
		{StatusTaken, StatusGiven},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be refused", pair[0], pair[1])
		}
	}

	for _, s := range []Status{StatusCancelled, StatusRejected, StatusTaken, StatusCompleted} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}

func TestKeyActionAllowed(t *testing.T) {
	approved := api.Booking{Status: "approved", SecretCode: "4821"}

	if err := KeyActionAllowed(approved, KeyGive, "4821"); err != nil {
		t.Fatalf("expected give to be allowed, got %v", err)
	}
	if err := KeyActionAllowed(approved, KeyGive, " "); !errors.Is(err, ErrMissingCode) {
		t.Fatalf("expected ErrMissingCode, got %v", err)
	}
	if err := KeyActionAllowed(approved, KeyTake, "4821"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected take on approved to be refused, got %v", err)
	}

	given := api.Booking{Status: "given"}
	if err := KeyActionAllowed(given, KeyTake, "4821"); err != nil {
		t.Fatalf("expected take to be allowed, got %v", err)
	}
	if err := KeyActionAllowed(given, KeyTake, ""); !errors.Is(err, ErrMissingCode) {
		t.Fatalf("expected take without a code to be refused, got %v", err)
	}
	if err := KeyActionAllowed(api.Booking{Status: "pending"}, KeyGive, "1"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected give on pending to be refused, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	now := mustTime(t, "2025-05-05T15:00:00Z")
	bookings := []api.Booking{
		{RoomName: "A-101", Status: "taken", Start: "2025-05-01T10:00:00Z", End: "2025-05-01T12:00:00Z"},
		{RoomName: "A-101", Status: "approved", Start: "2025-05-02T10:00:00Z", End: "2025-05-02T12:00:00Z"},
		{RoomName: "B-2", Status: "given", Start: "2025-05-05T10:00:00Z", End: "2025-05-05T12:00:00Z"},
		{RoomName: "B-2", Status: "cancelled", Start: "2025-05-06T10:00:00Z", End: "2025-05-06T12:00:00Z"},
		{RoomName: "C-3", Status: "pending", Start: "2025-05-07T10:00:00Z", End: "2025-05-07T12:00:00Z"},
	}

	s := Summarize(bookings, now)
	if s.TotalBookings != 5 {
		t.Fatalf("expected 5 bookings, got %d", s.TotalBookings)
	}
	if s.ByCategory[Past] != 2 || s.ByCategory[Active] != 0 || s.ByCategory[Cancelled] != 1 || s.ByCategory[Pending] != 2 {
		t.Fatalf("unexpected category counts: %+v", s.ByCategory)
	}
	if s.ByCategory[Upcoming] != 0 {
		t.Fatalf("expected zero upcoming, got %d", s.ByCategory[Upcoming])
	}
	if s.Overdue != 1 {
		t.Fatalf("expected 1 overdue, got %d", s.Overdue)
	}
	if s.BusiestRoom != "A-101" || s.BusiestRoomCount != 2 {
		t.Fatalf("unexpected busiest room %s (%d)", s.BusiestRoom, s.BusiestRoomCount)
	}
	if s.LastUsed != "2025-05-02" {
		t.Fatalf("unexpected last used %s", s.LastUsed)
	}
}

func TestViolationAge(t *testing.T) {
	now := mustTime(t, "2025-05-10T12:00:00Z")
	v := api.Violation{Status: "pending", CreatedAt: "2025-05-07T11:00:00Z"}
	if got := ViolationAge(v, now); got != 3 {
		t.Fatalf("expected 3 days, got %d", got)
	}
	v.Status = "resolved"
	if got := ViolationAge(v, now); got != 0 {
		t.Fatalf("resolved violations have no age, got %d", got)
	}
	v = api.Violation{Status: "pending", CreatedAt: "unknown"}
	if got := ViolationAge(v, now); got != 0 {
		t.Fatalf("unreadable creation time should give 0, got %d", got)
	}
}
