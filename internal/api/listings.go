package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func (c *Client) SearchListings(ctx context.Context, p SearchParams) ([]ListingItem, error) {
	q := c.pageQuery(p.Page)
	if p.City != "" {
		q.Set("city", p.City)
	}
	if p.CheckIn != "" {
		q.Set("checkIn", p.CheckIn)
	}
	if p.CheckOut != "" {
		q.Set("checkOut", p.CheckOut)
	}
	if p.Guests > 0 {
		q.Set("guests", fmt.Sprint(p.Guests))
	}
	if p.MinPrice > 0 {
		q.Set("minPrice", fmt.Sprint(p.MinPrice))
	}
	if p.MaxPrice > 0 {
		q.Set("maxPrice", fmt.Sprint(p.MaxPrice))
	}
	if len(p.Amenities) > 0 {
		q.Set("amenities", strings.Join(p.Amenities, ","))
	}

	var items []ListingItem
	err := c.do(ctx, http.MethodGet, "/listings", q, nil, &items)
	return items, err
}

// SuggestListings powers the search bar typeahead.
func (c *Client) SuggestListings(ctx context.Context, prefix string) ([]ListingItem, error) {
	q := url.Values{}
	q.Set("q", prefix)
	var items []ListingItem
	err := c.do(ctx, http.MethodGet, "/listings/suggestions", q, nil, &items)
	return items, err
}

func (c *Client) GetListing(ctx context.Context, id int64) (Listing, error) {
	var l Listing
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/%d", id), nil, nil, &l)
	return l, err
}

func (c *Client) CreateListing(ctx context.Context, l Listing) error {
	return c.do(ctx, http.MethodPost, "/listings", nil, l, nil)
}

func (c *Client) UpdateListing(ctx context.Context, id int64, l Listing) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/listings/%d", id), nil, l, nil)
}

func (c *Client) DeleteListing(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/listings/%d", id), nil, nil, nil)
}

func (c *Client) ListingMetrics(ctx context.Context, id int64) (ListingMetrics, error) {
	var m ListingMetrics
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/%d/metrics", id), nil, nil, &m)
	return m, err
}

func (c *Client) ListingBookings(ctx context.Context, id int64, page int) ([]Booking, error) {
	var bookings []Booking
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/%d/bookings", id), c.pageQuery(page), nil, &bookings)
	return bookings, err
}
