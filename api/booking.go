package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type CreateBookingRequest struct {
	RoomID    int64     `json:"room_id" validate:"gt=0"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required"`
	Purpose   string    `json:"purpose" validate:"required,max=255"`
	Attendees int       `json:"attendees" validate:"gte=1,lte=1000"`
}

// Validate checks the request before it is sent.
func (r CreateBookingRequest) Validate() error {
	vErr := validateStruct(r)
	if !r.Start.IsZero() && !r.End.IsZero() && !r.End.After(r.Start) {
		vErr.add("end", "must be after start")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// ListMyBookings returns the bookings of the logged-in user.
func (c *Client) ListMyBookings(ctx context.Context) ([]Booking, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodGet, "/bookings", nil, nil)
	if err != nil {
		return nil, err
	}

	var bookings []Booking
	if err := c.doJSON(req, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) CreateBooking(ctx context.Context, payload CreateBookingRequest) (Booking, error) {
	if err := payload.Validate(); err != nil {
		return Booking{}, err
	}
	req, err := c.newAuthedRequest(ctx, http.MethodPost, "/bookings", nil, payload)
	if err != nil {
		return Booking{}, err
	}

	var created Booking
	if err := c.doJSON(req, &created); err != nil {
		return Booking{}, err
	}
	if created.ID == 0 {
		return Booking{}, fmt.Errorf("booking response missing id")
	}
	return created, nil
}

func (c *Client) CancelBooking(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/bookings/%d/cancel", id)
	req, err := c.newAuthedRequest(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return err
	}
	return c.doStatus(req)
}
