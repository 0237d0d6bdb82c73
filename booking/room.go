package booking

import (
	"strconv"
	"strings"
	"time"

	"roombook/api"
)

const (
	RoomAvailable   = "available"
	RoomUnavailable = "unavailable"
	RoomMaintenance = "maintenance"
)

// IsAvailableNow reports whether a room can be used at now: its
// administrative status must be available and no schedule entry may cover
// now. Schedule entries that cannot be parsed are ignored.
func IsAvailableNow(r api.Room, now time.Time) bool {
	if !Bookable(r) {
		return false
	}
	for _, entry := range r.Schedule {
		start, okStart := ParseTimestamp(entry.Start)
		end, okEnd := ParseTimestamp(entry.End)
		if !okStart || !okEnd {
			continue
		}
		if within(now, start, end) {
			return false
		}
	}
	return true
}

// Bookable reports whether new bookings may be offered for the room at all.
func Bookable(r api.Room) bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), RoomAvailable)
}

func DisplayCapacity(r api.Room) string {
	if r.Capacity <= 0 {
		return "-"
	}
	return strconv.Itoa(r.Capacity)
}

func DisplayCategory(r api.Room) string {
	if strings.TrimSpace(r.Category) == "" {
		return "uncategorized"
	}
	return r.Category
}

func DisplayName(r api.Room) string {
	if strings.TrimSpace(r.Name) == "" {
		return "room #" + strconv.FormatInt(r.ID, 10)
	}
	return r.Name
}
