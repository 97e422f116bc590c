package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stayloop/stayloop-go/internal/domain/chat"
)

// ConversationPage is one page of a conversation's history, oldest first.
type ConversationPage struct {
	Conversation chat.Conversation `json:"conversation"`
	Messages     []chat.Message    `json:"messages"`
	TotalPages   int               `json:"totalPages"`
}

func (c *Client) GetConversation(ctx context.Context, chatID int64, page, size int) (ConversationPage, error) {
	if size <= 0 {
		size = c.pageSize
	}
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))

	var cp ConversationPage
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chat/%d", chatID), q, nil, &cp)
	return cp, err
}

func (c *Client) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	var convs []chat.Conversation
	err := c.do(ctx, http.MethodGet, "/chat/user/"+userID+"/conversations", nil, nil, &convs)
	return convs, err
}

func (c *Client) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := c.do(ctx, http.MethodGet, "/chat/user/"+userID+"/unread-count", nil, nil, &count)
	return count, err
}

func (c *Client) MarkRead(ctx context.Context, chatID int64, userID string) error {
	q := url.Values{}
	q.Set("userId", userID)
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/chat/%d/mark-read", chatID), q, nil, nil)
}
