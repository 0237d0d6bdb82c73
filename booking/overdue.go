package booking

import (
	"sort"
	"time"

	"roombook/api"
)

type OverdueInfo struct {
	Overdue bool `json:"overdue"`
	Minutes int  `json:"minutes"`
}

// Overdue reports whether an issued key is past its booking end, and by how
// many whole minutes. An unreadable end is never overdue.
func Overdue(b api.Booking, now time.Time) OverdueInfo {
	if NormalizeStatus(b.Status) != StatusGiven {
		return OverdueInfo{}
	}
	end, ok := ParseTimestamp(b.End)
	if !ok || !now.After(end) {
		return OverdueInfo{}
	}
	minutes := int(now.Sub(end) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	return OverdueInfo{Overdue: true, Minutes: minutes}
}

type OverdueBooking struct {
	Booking api.Booking `json:"booking"`
	OverdueInfo
}

// OverdueList returns the overdue bookings, longest overdue first.
func OverdueList(bookings []api.Booking, now time.Time) []OverdueBooking {
	out := []OverdueBooking{}
	for _, b := range bookings {
		info := Overdue(b, now)
		if !info.Overdue {
			continue
		}
		out = append(out, OverdueBooking{Booking: b, OverdueInfo: info})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Minutes > out[j].Minutes
	})
	return out
}
