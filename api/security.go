package api

import (
	"context"
	"net/http"
)

// KeyHandoff identifies a booking at the guard desk: the holder, the room
// and the code issued on approval.
type KeyHandoff struct {
	Username string `json:"username" validate:"required"`
	RoomName string `json:"room_name" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

func (k KeyHandoff) Validate() error {
	if vErr := validateStruct(k); vErr.HasErrors() {
		return vErr
	}
	return nil
}

// ListSecurityBookings returns the bookings visible at the guard desk.
func (c *Client) ListSecurityBookings(ctx context.Context) ([]Booking, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodGet, "/security/bookings", nil, nil)
	if err != nil {
		return nil, err
	}

	var bookings []Booking
	if err := c.doJSON(req, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GiveKey records that the physical key was handed out.
func (c *Client) GiveKey(ctx context.Context, handoff KeyHandoff) error {
	return c.keyAction(ctx, "/security/give_keys", handoff)
}

// TakeKey records that the key came back.
func (c *Client) TakeKey(ctx context.Context, handoff KeyHandoff) error {
	return c.keyAction(ctx, "/security/key_taked", handoff)
}

func (c *Client) keyAction(ctx context.Context, path string, handoff KeyHandoff) error {
	if err := handoff.Validate(); err != nil {
		return err
	}
	req, err := c.newAuthedRequest(ctx, http.MethodPost, path, nil, handoff)
	if err != nil {
		return err
	}
	return c.doStatus(req)
}
