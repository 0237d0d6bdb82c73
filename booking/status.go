package booking

import (
	"errors"
	"strings"

	"roombook/api"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusGiven     Status = "given"
	StatusTaken     Status = "taken"
	StatusCompleted Status = "completed"
)

// NormalizeStatus lower-cases and trims a backend status string. The
// backend also spells cancelled with one l in places.
func NormalizeStatus(raw string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if s == "canceled" {
		return StatusCancelled
	}
	return s
}

func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusRejected, StatusTaken, StatusCompleted:
		return true
	}
	return false
}

// approvedLike covers the two spellings of an approved booking.
func (s Status) approvedLike() bool {
	return s == StatusApproved || s == StatusConfirmed
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusGiven, StatusCancelled},
	StatusConfirmed: {StatusGiven, StatusCancelled},
	StatusGiven:     {StatusTaken},
}

// CanTransition reports whether the lifecycle allows moving from one status
// to another. Approved and confirmed are interchangeable as targets.
func CanTransition(from, to Status) bool {
	if to == StatusConfirmed {
		to = StatusApproved
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var (
	ErrTransitionNotAllowed = errors.New("booking status does not allow this action")
	ErrMissingCode          = errors.New("booking has no access code")
)

type KeyAction string

const (
	KeyGive KeyAction = "give"
	KeyTake KeyAction = "take"
)

// KeyActionAllowed refuses a key handoff up front when the booking is not
// in the right state, so that the request is never attempted. Both actions
// need a code; a give needs an approved booking and a take an issued key.
func KeyActionAllowed(b api.Booking, action KeyAction, code string) error {
	status := NormalizeStatus(b.Status)
	var next Status
	switch action {
	case KeyGive:
		next = StatusGiven
	case KeyTake:
		next = StatusTaken
	default:
		return ErrTransitionNotAllowed
	}
	if !CanTransition(status, next) {
		return ErrTransitionNotAllowed
	}
	if strings.TrimSpace(code) == "" {
		return ErrMissingCode
	}
	return nil
}
