package chat

import "time"

// Message is a delivered chat message, inbound over the realtime channel
// or loaded from the conversation history endpoint.
type Message struct {
	ID             int64     `json:"id"`
	SenderID       string    `json:"senderId"`
	RecipientID    string    `json:"recipientId"`
	ConversationID int64     `json:"conversationId"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sentAt"`
	Read           bool      `json:"read"`
}

// Outbound is a message the local user wants delivered. ClientID is a
// local correlation id for logging and is never sent on the wire.
type Outbound struct {
	RecipientID    string `json:"recipientId"`
	Content        string `json:"content"`
	ConversationID int64  `json:"conversationId"`
	ClientID       string `json:"-"`
}

type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

type Conversation struct {
	ID          int64       `json:"id"`
	User1       Participant `json:"user1"`
	User2       Participant `json:"user2"`
	LastMessage *Message    `json:"lastMessage,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	Active      bool        `json:"active"`
}
