package booking

import (
	"strings"
	"time"

	"roombook/api"
)

const (
	ViolationPending  = "pending"
	ViolationResolved = "resolved"
)

// ViolationAge is how many whole days a pending violation has been open.
// Resolved violations and unreadable creation times report zero.
func ViolationAge(v api.Violation, now time.Time) int {
	if !strings.EqualFold(strings.TrimSpace(v.Status), ViolationPending) {
		return 0
	}
	created, ok := ParseTimestamp(v.CreatedAt)
	if !ok || !now.After(created) {
		return 0
	}
	return int(now.Sub(created) / (24 * time.Hour))
}
