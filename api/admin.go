package api

import (
	"context"
	"fmt"
	"net/http"
)

type RoomInput struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Building string   `json:"building" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Capacity int      `json:"capacity" validate:"gt=0"`
	Status   string   `json:"status" validate:"oneof=available unavailable maintenance"`
	Features []string `json:"features,omitempty"`
}

func (r RoomInput) Validate() error {
	if vErr := validateStruct(r); vErr.HasErrors() {
		return vErr
	}
	return nil
}

type ViolationInput struct {
	BookingID   int64  `json:"booking_id" validate:"gt=0"`
	Type        string `json:"type" validate:"oneof=late_return property_damage no_show misuse other"`
	Description string `json:"description" validate:"required,max=1000"`
}

func (v ViolationInput) Validate() error {
	if vErr := validateStruct(v); vErr.HasErrors() {
		return vErr
	}
	return nil
}

type userStatusInput struct {
	Status string `json:"status" validate:"oneof=active inactive blocked"`
}

func (c *Client) ListAdminRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := c.getList(ctx, "/admin/rooms", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getList(ctx, "/admin/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListAdminBookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	if err := c.getList(ctx, "/admin/bookings", &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) ListViolations(ctx context.Context) ([]Violation, error) {
	var violations []Violation
	if err := c.getList(ctx, "/admin/violations", &violations); err != nil {
		return nil, err
	}
	return violations, nil
}

func (c *Client) ApproveBooking(ctx context.Context, id int64) error {
	return c.post(ctx, fmt.Sprintf("/admin/booking/%d/approve", id), nil)
}

func (c *Client) RejectBooking(ctx context.Context, id int64, reason string) error {
	var payload any
	if reason != "" {
		payload = map[string]string{"reason": reason}
	}
	return c.post(ctx, fmt.Sprintf("/admin/booking/%d/reject", id), payload)
}

func (c *Client) SetUserStatus(ctx context.Context, id int64, status string) error {
	input := userStatusInput{Status: status}
	if vErr := validateStruct(input); vErr.HasErrors() {
		return vErr
	}
	req, err := c.newAuthedRequest(ctx, http.MethodPatch, fmt.Sprintf("/admin/users/%d", id), nil, input)
	if err != nil {
		return err
	}
	return c.doStatus(req)
}

func (c *Client) CreateRoom(ctx context.Context, input RoomInput) (Room, error) {
	if err := input.Validate(); err != nil {
		return Room{}, err
	}
	req, err := c.newAuthedRequest(ctx, http.MethodPost, "/admin/rooms", nil, input)
	if err != nil {
		return Room{}, err
	}
	var room Room
	if err := c.doJSON(req, &room); err != nil {
		return Room{}, err
	}
	return room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, id int64, input RoomInput) (Room, error) {
	if err := input.Validate(); err != nil {
		return Room{}, err
	}
	req, err := c.newAuthedRequest(ctx, http.MethodPut, fmt.Sprintf("/admin/rooms/%d", id), nil, input)
	if err != nil {
		return Room{}, err
	}
	var room Room
	if err := c.doJSON(req, &room); err != nil {
		return Room{}, err
	}
	return room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, id int64) error {
	req, err := c.newAuthedRequest(ctx, http.MethodDelete, fmt.Sprintf("/admin/rooms/%d", id), nil, nil)
	if err != nil {
		return err
	}
	return c.doStatus(req)
}

func (c *Client) CreateViolation(ctx context.Context, input ViolationInput) (Violation, error) {
	if err := input.Validate(); err != nil {
		return Violation{}, err
	}
	req, err := c.newAuthedRequest(ctx, http.MethodPost, "/admin/violations", nil, input)
	if err != nil {
		return Violation{}, err
	}
	var violation Violation
	if err := c.doJSON(req, &violation); err != nil {
		return Violation{}, err
	}
	return violation, nil
}

func (c *Client) ResolveViolation(ctx context.Context, id int64) error {
	return c.post(ctx, fmt.Sprintf("/admin/violations/%d/resolve", id), nil)
}

// SyncClassSchedules starts the backend import of class schedules.
func (c *Client) SyncClassSchedules(ctx context.Context) (SyncResult, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodPost, "/admin/sync-class-schedules", nil, nil)
	if err != nil {
		return SyncResult{}, err
	}
	var result SyncResult
	if err := c.doJSON(req, &result); err != nil {
		return SyncResult{}, err
	}
	return result, nil
}

func (c *Client) getList(ctx context.Context, path string, dest any) error {
	req, err := c.newAuthedRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, dest)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	req, err := c.newAuthedRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return err
	}
	return c.doStatus(req)
}
