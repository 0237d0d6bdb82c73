package api

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Booking is a reservation of a room for a time interval. Start and End are
// kept as the raw strings the backend sent; callers parse them through
// booking.ParseTimestamp so that bad values degrade instead of failing a
// whole list decode.
type Booking struct {
	ID           int64  `json:"id"`
	RoomID       int64  `json:"room_id"`
	RoomName     string `json:"room_name"`
	RoomCategory string `json:"room_category"`
	RoomCapacity int    `json:"room_capacity"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Status       string `json:"status"`
	SecretCode   string `json:"secret_code,omitempty"`
	Purpose      string `json:"purpose"`
	Attendees    int    `json:"attendees"`
	CreatedAt    string `json:"created_at"`
	KeyGiven     bool   `json:"key_given"`
	KeyTaken     bool   `json:"key_taken"`
}

// bookingWire accepts every spelling the backend uses for the same field.
type bookingWire struct {
	ID           int64           `json:"id"`
	Room         json.RawMessage `json:"room"`
	RoomID       int64           `json:"room_id"`
	RoomName     string          `json:"room_name"`
	RoomCategory string          `json:"room_category"`
	RoomCapacity int             `json:"room_capacity"`
	User         *userRef        `json:"user"`
	Username     string          `json:"username"`
	FullName     string          `json:"full_name"`
	From         string          `json:"from"`
	Start        string          `json:"start"`
	Until        string          `json:"until"`
	End          string          `json:"end"`
	Status       string          `json:"status"`
	SecretCode   string          `json:"secret_code"`
	AccessCode   string          `json:"access_code"`
	Purpose      string          `json:"purpose"`
	Attendees    int             `json:"attendees"`
	CreatedAt    string          `json:"created_at"`
	KeyGiven     bool            `json:"key_given"`
	KeyTaken     bool            `json:"key_taken"`
}

type roomRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
}

type userRef struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

func (b *Booking) UnmarshalJSON(data []byte) error {
	var w bookingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = Booking{
		ID:           w.ID,
		RoomID:       w.RoomID,
		RoomName:     w.RoomName,
		RoomCategory: w.RoomCategory,
		RoomCapacity: w.RoomCapacity,
		Username:     w.Username,
		FullName:     w.FullName,
		Start:        firstNonEmpty(w.Start, w.From),
		End:          firstNonEmpty(w.End, w.Until),
		Status:       w.Status,
		SecretCode:   firstNonEmpty(w.SecretCode, w.AccessCode),
		Purpose:      w.Purpose,
		Attendees:    w.Attendees,
		CreatedAt:    w.CreatedAt,
		KeyGiven:     w.KeyGiven,
		KeyTaken:     w.KeyTaken,
	}
	if w.User != nil {
		b.Username = firstNonEmpty(b.Username, w.User.Username)
		b.FullName = firstNonEmpty(b.FullName, w.User.FullName)
	}

	raw := bytes.TrimSpace(w.Room)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '{':
		var ref roomRef
		if err := json.Unmarshal(raw, &ref); err != nil {
			return err
		}
		if b.RoomID == 0 {
			b.RoomID = ref.ID
		}
		b.RoomName = firstNonEmpty(b.RoomName, ref.Name)
		b.RoomCategory = firstNonEmpty(b.RoomCategory, ref.Category, ref.Type)
		if b.RoomCapacity == 0 {
			b.RoomCapacity = ref.Capacity
		}
	case raw[0] == '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return err
		}
		b.RoomName = firstNonEmpty(b.RoomName, name)
	default:
		if id, err := strconv.ParseInt(string(raw), 10, 64); err == nil && b.RoomID == 0 {
			b.RoomID = id
		}
	}
	return nil
}

// Room is a bookable physical space.
type Room struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Building string     `json:"building"`
	Category string     `json:"category"`
	Capacity int        `json:"capacity"`
	Status   string     `json:"status"`
	Features []string   `json:"features,omitempty"`
	Schedule []Interval `json:"schedule,omitempty"`
}

type roomWire struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Building string     `json:"building"`
	Category string     `json:"category"`
	Type     string     `json:"type"`
	Capacity int        `json:"capacity"`
	Status   string     `json:"status"`
	Features []string   `json:"features"`
	Schedule []Interval `json:"schedule"`
}

func (r *Room) UnmarshalJSON(data []byte) error {
	var w roomWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Room{
		ID:       w.ID,
		Name:     w.Name,
		Building: w.Building,
		Category: firstNonEmpty(w.Category, w.Type),
		Capacity: w.Capacity,
		Status:   w.Status,
		Features: w.Features,
		Schedule: w.Schedule,
	}
	return nil
}

// Interval is a booked span on a room schedule.
type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (i *Interval) UnmarshalJSON(data []byte) error {
	var w struct {
		Start string `json:"start"`
		From  string `json:"from"`
		End   string `json:"end"`
		Until string `json:"until"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	i.Start = firstNonEmpty(w.Start, w.From)
	i.End = firstNonEmpty(w.End, w.Until)
	return nil
}

type TimeSlot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
	BookedBy  string `json:"booked_by,omitempty"`
}

type RoomAvailability struct {
	RoomID int64      `json:"room_id"`
	Date   string     `json:"date"`
	Slots  []TimeSlot `json:"slots"`
}

// User is a student, staff/security or admin account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`

	Group   string `json:"group,omitempty"`
	Course  int    `json:"course,omitempty"`
	Faculty string `json:"faculty,omitempty"`

	InternalID   string `json:"internal_id,omitempty"`
	Department   string `json:"department,omitempty"`
	IsSupervisor bool   `json:"is_supervisor,omitempty"`
}

// Violation records a policy infraction tied to a booking.
type Violation struct {
	ID          int64  `json:"id"`
	BookingID   int64  `json:"booking_id"`
	Username    string `json:"username"`
	RoomName    string `json:"room_name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// SyncResult is whatever the schedule import endpoint reports. Its content
// does not influence the progress shown to the user.
type SyncResult struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Message  string `json:"message"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
