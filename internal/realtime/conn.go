package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Destinations mirrored from the backend's messaging contract.
const (
	DestJoin    = "chat.join"
	DestSend    = "chat.sendMessage"
	DestLeave   = "chat.leave"
	DestPrivate = "user.queue.private"
	DestErrors  = "user.queue.errors"
)

// Frame is the envelope every websocket message travels in, both ways.
type Frame struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body,omitempty"`
}

func NewFrame(destination string, body any) (Frame, error) {
	if body == nil {
		return Frame{Destination: destination}, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Destination: destination, Body: raw}, nil
}

// Conn is one live full-duplex channel. ReadFrame blocks until a frame or
// a terminal error; WriteFrame is safe for concurrent use.
type Conn interface {
	ReadFrame() (Frame, error)
	WriteFrame(Frame) error
	Close() error
}

// Dialer opens a connection to the messaging endpoint, authenticating
// with the supplied access token.
type Dialer interface {
	Dial(ctx context.Context, wsURL, token string) (Conn, error)
}

// WebsocketDialer is the production Dialer over gorilla/websocket. The
// token rides both as a query parameter and as a connect header, matching
// what the backend accepts.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
}

func (d WebsocketDialer) Dial(ctx context.Context, wsURL, token string) (Conn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: d.HandshakeTimeout}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	ws, resp, err := dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) ReadFrame() (Frame, error) {
	var f Frame
	if err := c.ws.ReadJSON(&f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

func (c *wsConn) WriteFrame(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(f)
}

func (c *wsConn) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}
