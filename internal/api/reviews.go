package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) CreateReview(ctx context.Context, listingID int64, r ReviewCreate) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/listings/%d/reviews", listingID), nil, r, nil)
}

func (c *Client) ListingReviews(ctx context.Context, listingID int64, page int) ([]Review, error) {
	var reviews []Review
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/%d/reviews", listingID), c.pageQuery(page), nil, &reviews)
	return reviews, err
}

// ReplyReview posts the host's answer under a review.
func (c *Client) ReplyReview(ctx context.Context, listingID, reviewID int64, message string) error {
	body := struct {
		Message string `json:"message"`
	}{Message: message}
	return c.do(ctx, http.MethodPost,
		fmt.Sprintf("/listings/%d/reviews/%d/reply", listingID, reviewID), nil, body, nil)
}
