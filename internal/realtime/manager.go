// Package realtime maintains the single logical chat connection: connect
// with the session token, survive drops with capped exponential backoff,
// and queue outbound messages while the link is down.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayloop/stayloop-go/internal/backoff"
	client_config "github.com/stayloop/stayloop-go/internal/config/client"
	"github.com/stayloop/stayloop-go/internal/domain/chat"
	domain "github.com/stayloop/stayloop-go/internal/domain/session"
	"github.com/stayloop/stayloop-go/internal/obs"
	"github.com/stayloop/stayloop-go/internal/session"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const subBuffer = 64

// Manager owns the connection state machine. One instance per process;
// views subscribe to its streams and call the documented operations.
type Manager struct {
	cfg    client_config.Realtime
	sess   *session.Manager
	dialer Dialer
	log    *zap.Logger
	sched  backoff.Schedule

	mu         sync.Mutex
	state      State
	conn       Conn
	gen        int // bumped by Disconnect; stales out in-flight dials
	attempts   int
	retryTimer *time.Timer

	sendMu sync.Mutex // serializes transmits so drains keep their order

	queue *Queue

	subMu     sync.Mutex
	replay    []chat.Message
	msgSubs   map[int]chan chat.Message
	stateSubs map[int]chan State
	nextSub   int
}

func NewManager(cfg client_config.Realtime, sess *session.Manager, dialer Dialer, log *zap.Logger) *Manager {
	if dialer == nil {
		dialer = WebsocketDialer{HandshakeTimeout: cfg.HandshakeTimeout}
	}
	if cfg.ReplayBuffer <= 0 {
		cfg.ReplayBuffer = 50
	}
	return &Manager{
		cfg:       cfg,
		sess:      sess,
		dialer:    dialer,
		log:       log,
		sched:     backoff.Schedule{Base: cfg.BaseDelay, Max: cfg.MaxDelay},
		queue:     NewQueue(),
		msgSubs:   map[int]chan chat.Message{},
		stateSubs: map[int]chan State{},
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Connected() bool { return m.State() == StateConnected }

// ReconnectAttempts reports the current attempt counter; it resets to
// zero on a successful connect.
func (m *Manager) ReconnectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Connect establishes the channel. Idempotent while connected or already
// connecting. peerID, when set, scopes the presence announcement to a
// first-contact conversation.
func (m *Manager) Connect(ctx context.Context, peerID string) error {
	token := m.sess.AccessToken()
	if token == "" {
		m.log.Error("websocket connect attempted without a session token")
		return domain.ErrNotLoggedIn
	}

	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		m.log.Debug("websocket already connected")
		return nil
	case StateConnecting:
		m.mu.Unlock()
		return nil
	}
	m.setStateLocked(StateConnecting)
	gen := m.gen
	m.mu.Unlock()

	conn, err := m.dialer.Dial(ctx, m.cfg.URL, token)
	if err != nil {
		m.mu.Lock()
		if m.gen == gen {
			m.setStateLocked(StateDisconnected)
			m.scheduleReconnectLocked()
		}
		m.mu.Unlock()
		m.log.Warn("websocket dial failed", zap.Error(err))
		return fmt.Errorf("dial %s: %w", m.cfg.URL, err)
	}

	m.mu.Lock()
	if m.gen != gen {
		// Disconnect arrived while the dial was in flight; it wins
		m.mu.Unlock()
		_ = conn.Close()
		m.log.Debug("dial result discarded after disconnect")
		return nil
	}
	m.conn = conn
	m.attempts = 0
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	m.log.Info("websocket connected")
	go m.readLoop(conn)

	m.announceJoin(conn, peerID)
	m.drain(conn)
	return nil
}

// Send transmits immediately when connected; otherwise the message is
// accepted into the pending queue and a connect attempt is kicked off.
// Acceptance is not a delivery guarantee.
func (m *Manager) Send(msg chat.Outbound) error {
	if msg.ClientID == "" {
		msg.ClientID = uuid.NewString()
	}

	m.mu.Lock()
	conn := m.conn
	connected := m.state == StateConnected && conn != nil
	m.mu.Unlock()

	if !connected {
		m.queue.PushBack(msg)
		m.log.Info("message accepted for later delivery",
			zap.String("client_id", msg.ClientID), zap.Int("pending", m.queue.Len()))
		go func() { _ = m.Connect(context.Background(), "") }()
		return nil
	}

	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	if m.queue.Len() > 0 {
		// older messages go out first; retry them before this one
		m.queue.PushBack(msg)
		m.drainLocked(conn)
		return nil
	}
	if err := m.transmit(conn, msg); err != nil {
		m.queue.PushFront(msg)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Disconnect tears the channel down deliberately: leave announcement,
// reader stops, reconnect timer cancelled. Pending messages survive.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	conn := m.conn
	m.conn = nil
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if conn == nil {
		return
	}
	if f, err := NewFrame(DestLeave, nil); err == nil {
		_ = conn.WriteFrame(f) // best effort
	}
	_ = conn.Close()
	m.log.Info("websocket disconnected")
}

// Reset is Disconnect plus dropping the pending queue and the replay
// buffer. Used on logout.
func (m *Manager) Reset() {
	m.Disconnect()
	m.queue.Clear()
	m.subMu.Lock()
	m.replay = nil
	m.subMu.Unlock()
}

// PendingMessages exposes the queued outbound messages, oldest first.
func (m *Manager) PendingMessages() []chat.Outbound {
	return m.queue.Snapshot()
}

// Messages subscribes to inbound chat messages. Recent messages (bounded
// replay buffer) are delivered first so late subscribers catch up. The
// cancel function detaches the subscriber; shared state is unaffected.
func (m *Manager) Messages() (<-chan chat.Message, func()) {
	m.subMu.Lock()
	ch := make(chan chat.Message, subBuffer+len(m.replay))
	for _, msg := range m.replay {
		ch <- msg
	}
	id := m.nextSub
	m.nextSub++
	m.msgSubs[id] = ch
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if sub, ok := m.msgSubs[id]; ok {
			delete(m.msgSubs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// States subscribes to connection state transitions. The current state is
// delivered immediately.
func (m *Manager) States() (<-chan State, func()) {
	m.mu.Lock()
	current := m.state
	m.mu.Unlock()

	m.subMu.Lock()
	ch := make(chan State, subBuffer)
	ch <- current
	id := m.nextSub
	m.nextSub++
	m.stateSubs[id] = ch
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if sub, ok := m.stateSubs[id]; ok {
			delete(m.stateSubs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.subMu.Lock()
	for id, sub := range m.stateSubs {
		select {
		case sub <- s:
		default:
			m.log.Debug("state subscriber lagging", zap.Int("subscriber", id))
		}
	}
	m.subMu.Unlock()
}

func (m *Manager) readLoop(conn Conn) {
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			m.handleClosed(conn, err)
			return
		}
		switch f.Destination {
		case DestPrivate:
			var msg chat.Message
			if uerr := json.Unmarshal(f.Body, &msg); uerr != nil {
				obs.FramesDropped.Inc()
				m.log.Warn("dropping unparseable frame", zap.Error(uerr))
				continue
			}
			obs.MessagesReceived.Inc()
			m.publish(msg)
		case DestErrors:
			m.log.Warn("server error frame", zap.ByteString("body", f.Body))
		default:
			m.log.Debug("frame for unknown destination",
				zap.String("destination", f.Destination))
		}
	}
}

func (m *Manager) publish(msg chat.Message) {
	m.subMu.Lock()
	m.replay = append(m.replay, msg)
	if over := len(m.replay) - m.cfg.ReplayBuffer; over > 0 {
		m.replay = m.replay[over:]
	}
	for id, sub := range m.msgSubs {
		select {
		case sub <- msg:
		default:
			m.log.Warn("message subscriber lagging, dropping delivery",
				zap.Int("subscriber", id), zap.Int64("message_id", msg.ID))
		}
	}
	m.subMu.Unlock()
}

func (m *Manager) handleClosed(conn Conn, err error) {
	m.mu.Lock()
	if m.conn != conn {
		// superseded by a newer connection or a deliberate Disconnect
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.setStateLocked(StateDisconnected)
	m.scheduleReconnectLocked()
	m.mu.Unlock()
	m.log.Warn("websocket closed", zap.Error(err))
}

func (m *Manager) scheduleReconnectLocked() {
	if m.retryTimer != nil {
		return
	}
	if !m.sess.IsLoggedIn() {
		m.log.Info("session ended, websocket stays down")
		return
	}
	if m.cfg.MaxAttempts > 0 && m.attempts >= m.cfg.MaxAttempts {
		obs.ReconnectExhausted.Inc()
		m.log.Error("reconnection attempts exhausted, giving up",
			zap.Int("attempts", m.attempts))
		return
	}
	m.attempts++
	delay := m.sched.Delay(m.attempts)
	obs.ReconnectAttempts.Inc()
	m.log.Info("reconnect scheduled",
		zap.Int("attempt", m.attempts), zap.Duration("delay", delay))
	m.retryTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		m.retryTimer = nil
		m.mu.Unlock()
		_ = m.Connect(context.Background(), "")
	})
}

func (m *Manager) announceJoin(conn Conn, peerID string) {
	body := struct {
		RecipientID string `json:"recipientId"`
	}{RecipientID: peerID}
	f, err := NewFrame(DestJoin, body)
	if err != nil {
		m.log.Warn("encode join announcement", zap.Error(err))
		return
	}
	if err := conn.WriteFrame(f); err != nil {
		m.log.Warn("join announcement failed", zap.Error(err))
	}
}

func (m *Manager) transmit(conn Conn, msg chat.Outbound) error {
	f, err := NewFrame(DestSend, msg)
	if err != nil {
		return err
	}
	if err := conn.WriteFrame(f); err != nil {
		return err
	}
	obs.MessagesSent.Inc()
	return nil
}

// drain replays the pending queue in order. A failed send goes back to
// the front and the drain stops there; the next successful connect picks
// it up again.
func (m *Manager) drain(conn Conn) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	m.drainLocked(conn)
}

func (m *Manager) drainLocked(conn Conn) {
	for {
		msg, ok := m.queue.PopFront()
		if !ok {
			return
		}
		if err := m.transmit(conn, msg); err != nil {
			m.queue.PushFront(msg)
			m.log.Warn("drain stopped, message requeued",
				zap.String("client_id", msg.ClientID), zap.Error(err))
			return
		}
	}
}
