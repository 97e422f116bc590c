package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) CreateBooking(ctx context.Context, b BookingCreate) error {
	return c.do(ctx, http.MethodPost, "/bookings", nil, b, nil)
}

func (c *Client) HostBookings(ctx context.Context, hostID string, page int) ([]Booking, error) {
	var bookings []Booking
	err := c.do(ctx, http.MethodGet, "/bookings/host/"+hostID, c.pageQuery(page), nil, &bookings)
	return bookings, err
}

func (c *Client) CancelBooking(ctx context.Context, id int64) error {
	return c.setBookingStatus(ctx, id, BookingCancelled)
}

func (c *Client) ConfirmBooking(ctx context.Context, id int64) error {
	return c.setBookingStatus(ctx, id, BookingConfirmed)
}

func (c *Client) CompleteBooking(ctx context.Context, id int64) error {
	return c.setBookingStatus(ctx, id, BookingCompleted)
}

func (c *Client) setBookingStatus(ctx context.Context, id int64, status BookingStatus) error {
	body := struct {
		Status BookingStatus `json:"status"`
	}{Status: status}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/bookings/%d/status", id), nil, body, nil)
}
