package booking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"roombook/api"
)

type Summary struct {
	TotalBookings    int              `json:"total_bookings"`
	ByCategory       map[Category]int `json:"by_category"`
	Overdue          int              `json:"overdue"`
	BusiestRoom      string           `json:"busiest_room"`
	BusiestRoomCount int              `json:"busiest_room_count"`
	UsualTime        string           `json:"usual_time"`
	LastUsed         string           `json:"last_used"`
}

// Summarize computes dashboard analytics for a booking snapshot.
func Summarize(bookings []api.Booking, now time.Time) Summary {
	stats := Summary{
		TotalBookings: len(bookings),
		ByCategory:    make(map[Category]int, len(Categories)),
	}
	for _, c := range Categories {
		stats.ByCategory[c] = 0
	}

	roomCounts := map[string]int{}
	for _, b := range bookings {
		category := Classify(b, now)
		stats.ByCategory[category]++
		if Overdue(b, now).Overdue {
			stats.Overdue++
		}
		if category == Cancelled {
			continue
		}
		key := strings.TrimSpace(b.RoomName)
		if key == "" && b.RoomID != 0 {
			key = fmt.Sprintf("room #%d", b.RoomID)
		}
		if key != "" {
			roomCounts[key]++
		}
	}

	stats.BusiestRoom, stats.BusiestRoomCount = topRoom(roomCounts)
	stats.UsualTime = mostCommonTime(bookings)
	stats.LastUsed = lastUsedDate(bookings, now)
	return stats
}

func topRoom(counts map[string]int) (string, int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	top := ""
	max := 0
	for _, key := range keys {
		if counts[key] > max {
			max = counts[key]
			top = key
		}
	}
	if top == "" {
		return "N/A", 0
	}
	return top, max
}

func mostCommonTime(bookings []api.Booking) string {
	counts := map[string]int{}
	for _, b := range bookings {
		if NormalizeStatus(b.Status) == StatusCancelled || NormalizeStatus(b.Status) == StatusRejected {
			continue
		}
		label, ok := timeLabel(b)
		if !ok {
			continue
		}
		counts[label]++
	}
	if len(counts) == 0 {
		return "N/A"
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	best := keys[0]
	for _, key := range keys {
		if counts[key] > counts[best] {
			best = key
		}
	}
	return best
}

func timeLabel(b api.Booking) (string, bool) {
	start, end, ok := Window(b.Start, b.End)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s %s-%s", start.Weekday(), start.Format("15:04"), end.Format("15:04")), true
}

func lastUsedDate(bookings []api.Booking, now time.Time) string {
	var last time.Time
	found := false
	for _, b := range bookings {
		if Classify(b, now) != Past {
			continue
		}
		start, ok := ParseTimestamp(b.Start)
		if !ok {
			continue
		}
		if !found || start.After(last) {
			last = start
			found = true
		}
	}
	if !found {
		return "N/A"
	}
	return last.Format("2006-01-02")
}
