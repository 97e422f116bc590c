package api

import (
	"context"
	"net/http"
)

func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/users/"+id, nil, nil, &u)
	return u, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, edit UserEdit) error {
	return c.do(ctx, http.MethodPut, "/users/"+id, nil, edit, nil)
}

func (c *Client) ChangePassword(ctx context.Context, id string, change PasswordChange) error {
	return c.do(ctx, http.MethodPatch, "/users/"+id+"/password", nil, change, nil)
}

// DeleteAccount removes the user server-side and ends the local session.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/users/"+id, nil, nil, nil); err != nil {
		return err
	}
	c.sess.Logout()
	return nil
}

func (c *Client) UserListings(ctx context.Context, id string, page int) ([]ListingItem, error) {
	var items []ListingItem
	err := c.do(ctx, http.MethodGet, "/users/"+id+"/listings", c.pageQuery(page), nil, &items)
	return items, err
}

func (c *Client) UserBookings(ctx context.Context, id string, page int) ([]Booking, error) {
	var bookings []Booking
	err := c.do(ctx, http.MethodGet, "/users/"+id+"/bookings", c.pageQuery(page), nil, &bookings)
	return bookings, err
}
