package api

import (
	"context"
	"net/http"
)

// Cities lists the city names listings can be searched by.
func (c *Client) Cities(ctx context.Context) ([]string, error) {
	var cities []string
	err := c.do(ctx, http.MethodGet, "/cities", nil, nil, &cities)
	return cities, err
}

// Amenities lists the amenity names a listing can offer.
func (c *Client) Amenities(ctx context.Context) ([]string, error) {
	var amenities []string
	err := c.do(ctx, http.MethodGet, "/amenities", nil, nil, &amenities)
	return amenities, err
}
