package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"roombook/api"
	"roombook/booking"
)

func TestParseDateInputAt(t *testing.T) {
	now := time.Date(2025, time.March, 31, 18, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"today":      "2025-03-31",
		"TOMORROW":   "2025-04-01",
		"2025-05-02": "2025-05-02",
	}
	for input, want := range cases {
		got, err := parseDateInputAt(input, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", input, err)
		}
		if got.Format("2006-01-02") != want || got.Hour() != 0 {
			t.Fatalf("%s: expected midnight of %s, got %v", input, want, got)
		}
	}

	if _, err := parseDateInputAt("", now); err == nil {
		t.Fatalf("expected an error for an empty date")
	}
	if _, err := parseDateInputAt("31/03/2025", now); err == nil {
		t.Fatalf("expected an error for a bad layout")
	}
}

func TestParseSlot(t *testing.T) {
	now := time.Date(2025, time.March, 31, 8, 0, 0, 0, time.UTC)
	start, end, err := parseSlot("tomorrow", "09:30", "11:00", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != time.Date(2025, time.April, 1, 9, 30, 0, 0, time.UTC) {
		t.Fatalf("unexpected start %v", start)
	}
	if end.Sub(start) != 90*time.Minute {
		t.Fatalf("unexpected length %v", end.Sub(start))
	}

	if _, _, err := parseSlot("today", "9h", "10:00", now); err == nil {
		t.Fatalf("expected a clock error")
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("#42"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d %v", id, err)
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if _, err := parseID(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestSuggestNames(t *testing.T) {
	names := []string{"Lab 101", "Lab 102", "Main Hall", "Library", "lab 101"}

	got := suggestNames("lab 10", names, 3)
	if len(got) != 2 || got[0] != "Lab 101" || got[1] != "Lab 102" {
		t.Fatalf("unexpected suggestions %v", got)
	}
	if got := suggestNames("main hal", names, 3); len(got) != 1 || got[0] != "Main Hall" {
		t.Fatalf("unexpected suggestions %v", got)
	}
	if got := suggestNames("gymnasium", names, 3); len(got) != 0 {
		t.Fatalf("expected nothing close, got %v", got)
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(50, 10); got != "[#####.....]  50%" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := progressBar(140, 4); got != "[####] 100%" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := progressBar(-5, 4); got != "[....]   0%" {
		t.Fatalf("unexpected bar %q", got)
	}
}

func TestKeyHandoff(t *testing.T) {
	approved := api.Booking{ID: 7, Username: "ivanov", RoomName: "A-101", Status: "approved", SecretCode: "K7Q2"}

	t.Run("uses the booking code", func(t *testing.T) {
		h, err := keyHandoff(approved, booking.KeyGive, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Code != "K7Q2" || h.Username != "ivanov" || h.RoomName != "A-101" {
			t.Fatalf("unexpected handoff %+v", h)
		}
	})

	t.Run("rejects a wrong code", func(t *testing.T) {
		if _, err := keyHandoff(approved, booking.KeyGive, "XXXX"); !errors.Is(err, errCodeMismatch) {
			t.Fatalf("expected a mismatch, got %v", err)
		}
	})

	t.Run("needs some code", func(t *testing.T) {
		noCode := approved
		noCode.SecretCode = ""
		if _, err := keyHandoff(noCode, booking.KeyGive, ""); !errors.Is(err, booking.ErrMissingCode) {
			t.Fatalf("expected missing code, got %v", err)
		}
		if _, err := keyHandoff(noCode, booking.KeyGive, "abcd"); err != nil {
			t.Fatalf("a presented code should do: %v", err)
		}
	})

	t.Run("take needs an issued key", func(t *testing.T) {
		if _, err := keyHandoff(approved, booking.KeyTake, ""); !errors.Is(err, booking.ErrTransitionNotAllowed) {
			t.Fatalf("expected refusal, got %v", err)
		}
		given := approved
		given.Status = "given"
		if _, err := keyHandoff(given, booking.KeyTake, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("take without any code is refused before the request", func(t *testing.T) {
		given := approved
		given.Status = "given"
		given.SecretCode = ""
		if _, err := keyHandoff(given, booking.KeyTake, ""); !errors.Is(err, booking.ErrMissingCode) {
			t.Fatalf("expected missing code, got %v", err)
		}
	})
}

func TestListFlagsState(t *testing.T) {
	f := listFlags{search: "lab", page: 3}
	state := f.state(map[string]string{"status": "available", "category": "all"})
	if state.Page != 3 {
		t.Fatalf("explicit page should survive the filter resets, got %d", state.Page)
	}
	if state.PageSize != cfg.PageSize {
		t.Fatalf("expected the configured page size, got %d", state.PageSize)
	}
	if state.Query != "lab" || state.Filters["status"] != "available" {
		t.Fatalf("unexpected state %+v", state)
	}

	f.pageSize = 4
	if got := f.state(nil).PageSize; got != 4 {
		t.Fatalf("expected page size flag to win, got %d", got)
	}
}

func TestFormatWindow(t *testing.T) {
	got := formatWindow("2025-05-02T09:00:00", "2025-05-02T10:30:00")
	if got != "2025-05-02 09:00-10:30" {
		t.Fatalf("unexpected window %q", got)
	}
	got = formatWindow("2025-05-02T22:00:00", "2025-05-03T01:00:00")
	if got != "2025-05-02 22:00 - 2025-05-03 01:00" {
		t.Fatalf("unexpected window %q", got)
	}
	if got := formatWindow("soon", ""); got != "soon -" {
		t.Fatalf("unreadable values should pass through, got %q", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	if formatMinutes(45) != "45m" || formatMinutes(125) != "2h05m" {
		t.Fatalf("unexpected formatting")
	}
}

func TestUserDetails(t *testing.T) {
	student := api.User{Group: "CS-21", Course: 3, Faculty: "Engineering"}
	if got := userDetails(student); got != "group CS-21, course 3, Engineering" {
		t.Fatalf("unexpected details %q", got)
	}
	staff := api.User{Department: "Security", IsSupervisor: true}
	if got := userDetails(staff); !strings.Contains(got, "supervisor") {
		t.Fatalf("unexpected details %q", got)
	}
}
