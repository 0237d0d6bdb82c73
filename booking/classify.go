package booking

import (
	"time"

	"roombook/api"
)

type Category string

const (
	Active    Category = "active"
	Upcoming  Category = "upcoming"
	Past      Category = "past"
	Pending   Category = "pending"
	Cancelled Category = "cancelled"
)

// Categories lists every category in display order.
var Categories = []Category{Active, Upcoming, Pending, Past, Cancelled}

func ParseCategory(value string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == value {
			return c, true
		}
	}
	return "", false
}

// Classify places a booking in exactly one category at the given instant.
//
// Cancelled and rejected win over everything, then pending. Every other
// status is placed by comparing now with the booking window, and a window
// that cannot be read keeps the booking out of the timed categories: it is
// reported as pending, as are statuses the backend may add later.
//
// An issued key is active only inside its window. Outside it (handed out
// early or not yet returned after the end) the booking is pending; the
// overdue detector reports the late case. A returned key is past once the
// window has ended and pending before that.
func Classify(b api.Booking, now time.Time) Category {
	status := NormalizeStatus(b.Status)
	switch {
	case status == StatusCancelled || status == StatusRejected:
		return Cancelled
	case status == StatusPending:
		return Pending
	}

	start, end, ok := Window(b.Start, b.End)
	if !ok {
		return Pending
	}
	switch {
	case status == StatusGiven:
		if within(now, start, end) {
			return Active
		}
		return Pending
	case status == StatusTaken || status == StatusCompleted:
		if now.After(end) {
			return Past
		}
		return Pending
	case !status.approvedLike():
		return Pending
	}
	switch {
	case now.Before(start):
		return Upcoming
	case now.After(end):
		return Past
	default:
		return Active
	}
}

// Group splits bookings by category, preserving input order inside each.
func Group(bookings []api.Booking, now time.Time) map[Category][]api.Booking {
	groups := make(map[Category][]api.Booking, len(Categories))
	for _, b := range bookings {
		c := Classify(b, now)
		groups[c] = append(groups[c], b)
	}
	return groups
}
