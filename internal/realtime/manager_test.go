package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	client_config "github.com/stayloop/stayloop-go/internal/config/client"
	"github.com/stayloop/stayloop-go/internal/domain/chat"
	domain "github.com/stayloop/stayloop-go/internal/domain/session"
	"github.com/stayloop/stayloop-go/internal/session"
)

// fakeConn records written frames and feeds inbound ones from a channel.
type fakeConn struct {
	mu       sync.Mutex
	written  []Frame
	failDest string // WriteFrame errors for this destination
	inbound  chan Frame
	closed   atomic.Bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan Frame, 16)}
}

func (c *fakeConn) ReadFrame() (Frame, error) {
	f, ok := <-c.inbound
	if !ok {
		return Frame{}, io.EOF
	}
	return f, nil
}

func (c *fakeConn) WriteFrame(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDest != "" && f.Destination == c.failDest {
		return errors.New("write failed")
	}
	c.written = append(c.written, f)
	return nil
}

func (c *fakeConn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.inbound)
	}
	return nil
}

func (c *fakeConn) writtenTo(dest string) []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var got []Frame
	for _, f := range c.written {
		if f.Destination == dest {
			got = append(got, f)
		}
	}
	return got
}

// fakeDialer hands out fakeConns, optionally failing the first n dials
// or parking a dial until holdDial is closed.
type fakeDialer struct {
	mu       sync.Mutex
	calls    int
	failNext int
	conns    []*fakeConn
	prepare  func(*fakeConn)
	started  chan struct{}
	holdDial chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, wsURL, token string) (Conn, error) {
	d.mu.Lock()
	d.calls++
	fail := false
	if d.failNext > 0 {
		d.failNext--
		fail = true
	}
	started, hold := d.started, d.holdDial
	d.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if hold != nil {
		<-hold
	}
	if fail {
		return nil, errors.New("dial refused")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	c := newFakeConn()
	if d.prepare != nil {
		d.prepare(c)
	}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

type noRefresh struct{}

func (noRefresh) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	return domain.TokenPair{}, errors.New("unused")
}

func testConfig() client_config.Realtime {
	return client_config.Realtime{
		URL:          "ws://test/ws",
		BaseDelay:    10 * time.Millisecond,
		MaxDelay:     80 * time.Millisecond,
		MaxAttempts:  5,
		ReplayBuffer: 50,
	}
}

func newTestManager(t *testing.T, d *fakeDialer) (*Manager, *session.Manager) {
	t.Helper()
	sess := session.NewManager(session.NewMemoryStore(), noRefresh{}, zap.NewNop())
	sess.Login("access-token", "refresh-token")
	m := NewManager(testConfig(), sess, d, zap.NewNop())
	t.Cleanup(m.Disconnect)
	return m, sess
}

func TestConnectWithoutSessionFailsFast(t *testing.T) {
	d := &fakeDialer{}
	sess := session.NewManager(session.NewMemoryStore(), noRefresh{}, zap.NewNop())
	m := NewManager(testConfig(), sess, d, zap.NewNop())

	err := m.Connect(context.Background(), "")
	require.Error(t, err)
	assert.Zero(t, d.dialCalls())
	assert.Equal(t, StateDisconnected, m.State())
}

func TestConnectIsIdempotent(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(t, d)

	require.NoError(t, m.Connect(context.Background(), "peer-1"))
	require.NoError(t, m.Connect(context.Background(), "peer-1"))
	require.NoError(t, m.Connect(context.Background(), ""))

	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, 1, d.dialCalls(), "one dial")
	joins := d.lastConn().writtenTo(DestJoin)
	require.Len(t, joins, 1, "one presence announcement")

	var body struct {
		RecipientID string `json:"recipientId"`
	}
	require.NoError(t, json.Unmarshal(joins[0].Body, &body))
	assert.Equal(t, "peer-1", body.RecipientID)
}

func TestSendWhileConnected(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(t, d)
	require.NoError(t, m.Connect(context.Background(), ""))

	require.NoError(t, m.Send(chat.Outbound{RecipientID: "p", Content: "hola", ConversationID: 3}))

	sent := d.lastConn().writtenTo(DestSend)
	require.Len(t, sent, 1)
	var body chat.Outbound
	require.NoError(t, json.Unmarshal(sent[0].Body, &body))
	assert.Equal(t, "hola", body.Content)
	assert.EqualValues(t, 3, body.ConversationID)
	assert.Zero(t, m.queue.Len())
}

func TestSendWhileDisconnectedQueuesAndKicksConnect(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(t, d)

	require.NoError(t, m.Send(out("a")))

	require.Eventually(t, func() bool { return d.dialCalls() >= 1 },
		time.Second, 5*time.Millisecond, "connect kicked by send")
	require.Eventually(t, func() bool {
		c := d.lastConn()
		return c != nil && len(c.writtenTo(DestSend)) == 1
	}, time.Second, 5*time.Millisecond, "queued message drained after connect")
	assert.Zero(t, m.queue.Len())
}

func TestDrainPreservesOrderOnFailure(t *testing.T) {
	d := &fakeDialer{failNext: 1, prepare: func(c *fakeConn) { c.failDest = DestSend }}
	m, _ := newTestManager(t, d)

	// dial fails: all three stay queued, in order
	_ = m.Send(out("a"))
	require.Eventually(t, func() bool { return d.dialCalls() >= 1 }, time.Second, 5*time.Millisecond)
	_ = m.Send(out("b"))
	_ = m.Send(out("c"))
	require.Equal(t, []string{"a", "b", "c"}, contents(m.PendingMessages()))

	// sends fail on the next connect: drain must stop at "a"
	m.Disconnect()
	require.NoError(t, m.Connect(context.Background(), ""))
	assert.Equal(t, []string{"a", "b", "c"}, contents(m.PendingMessages()),
		"b and c never overtake a")

	// transport recovers: everything drains in order
	d.mu.Lock()
	d.prepare = nil
	d.mu.Unlock()
	m.Disconnect()
	require.NoError(t, m.Connect(context.Background(), ""))
	assert.Zero(t, m.queue.Len())
	sent := d.lastConn().writtenTo(DestSend)
	require.Len(t, sent, 3)
	var got []string
	for _, f := range sent {
		var body chat.Outbound
		require.NoError(t, json.Unmarshal(f.Body, &body))
		got = append(got, body.Content)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSendResumesDrainOnHealthyConn(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(t, d)
	require.NoError(t, m.Connect(context.Background(), ""))

	conn := d.lastConn()
	conn.mu.Lock()
	conn.failDest = DestSend
	conn.mu.Unlock()

	require.Error(t, m.Send(out("a")))
	require.Equal(t, []string{"a"}, contents(m.PendingMessages()))

	// the write failure was transient; the socket itself stays up
	conn.mu.Lock()
	conn.failDest = ""
	conn.mu.Unlock()

	require.NoError(t, m.Send(out("b")))
	assert.Zero(t, m.queue.Len(), "later send flushes the stalled queue")
	sent := conn.writtenTo(DestSend)
	require.Len(t, sent, 2)
	var got []string
	for _, f := range sent {
		var body chat.Outbound
		require.NoError(t, json.Unmarshal(f.Body, &body))
		got = append(got, body.Content)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestDisconnectDuringDialWins(t *testing.T) {
	d := &fakeDialer{started: make(chan struct{}, 1), holdDial: make(chan struct{})}
	m, _ := newTestManager(t, d)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Connect(context.Background(), "") }()
	<-d.started

	m.Disconnect()
	close(d.holdDial)
	require.NoError(t, <-errCh)

	assert.Equal(t, StateDisconnected, m.State())
	require.Eventually(t, func() bool {
		c := d.lastConn()
		return c != nil && c.closed.Load()
	}, time.Second, 5*time.Millisecond, "late dial result closed, not installed")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateDisconnected, m.State())
	assert.Equal(t, 1, d.dialCalls())
}

func TestReconnectAfterDrop(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(t, d)
	require.NoError(t, m.Connect(context.Background(), ""))

	states, cancel := m.States()
	defer cancel()

	// kill the socket
	first := d.lastConn()
	first.Close()

	require.Eventually(t, func() bool { return m.State() == StateConnected && d.dialCalls() == 2 },
		time.Second, 5*time.Millisecond, "reconnected on a fresh dial")
	assert.Zero(t, m.ReconnectAttempts(), "attempt counter reset on success")

	var seen []State
	seen = append(seen, <-states) // subscription snapshot: connected
	for len(states) > 0 {
		seen = append(seen, <-states)
	}
	assert.Contains(t, seen, StateDisconnected)
	assert.Contains(t, seen, StateConnected)
}

func TestReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(t, d)
	require.NoError(t, m.Connect(context.Background(), ""))

	// every future dial is refused
	d.mu.Lock()
	d.failNext = 1 << 20
	d.mu.Unlock()
	d.lastConn().Close()

	// initial dial plus the five scheduled retries, then nothing more
	require.Eventually(t, func() bool { return d.dialCalls() == 6 },
		2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, m.ReconnectAttempts())
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 6, d.dialCalls(), "no further automatic dials")
	assert.Equal(t, StateDisconnected, m.State())

	// manual reconnection is still permitted and resets on success
	d.mu.Lock()
	d.failNext = 0
	d.mu.Unlock()
	require.NoError(t, m.Connect(context.Background(), ""))
	assert.Equal(t, StateConnected, m.State())
	assert.Zero(t, m.ReconnectAttempts())
}

func TestNoReconnectAfterLogout(t *testing.T) {
	d := &fakeDialer{}
	m, sess := newTestManager(t, d)
	require.NoError(t, m.Connect(context.Background(), ""))

	sess.Logout()
	d.lastConn().Close()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, d.dialCalls(), "no reconnect without a session")
	assert.Equal(t, StateDisconnected, m.State())
}

func TestDisconnectKeepsQueueResetClearsIt(t *testing.T) {
	d := &fakeDialer{failNext: 1 << 20}
	m, _ := newTestManager(t, d)

	_ = m.Send(out("a"))
	_ = m.Send(out("b"))
	require.Equal(t, 2, m.queue.Len())

	m.Disconnect()
	assert.Equal(t, 2, m.queue.Len(), "disconnect keeps pending messages")

	m.Reset()
	assert.Zero(t, m.queue.Len(), "reset drops them")
}

func TestDisconnectSendsLeaveAndStopsReconnect(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(t, d)
	require.NoError(t, m.Connect(context.Background(), ""))
	conn := d.lastConn()

	m.Disconnect()
	assert.Len(t, conn.writtenTo(DestLeave), 1)
	assert.Equal(t, StateDisconnected, m.State())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, d.dialCalls(), "deliberate disconnect does not reconnect")
}

func TestInboundDelivery(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(t, d)
	require.NoError(t, m.Connect(context.Background(), ""))

	msgs, cancel := m.Messages()
	defer cancel()

	conn := d.lastConn()
	good, _ := NewFrame(DestPrivate, chat.Message{ID: 1, Content: "hey", ConversationID: 9})
	conn.inbound <- Frame{Destination: DestPrivate, Body: json.RawMessage(`{malformed`)}
	conn.inbound <- good
	conn.inbound <- Frame{Destination: DestErrors, Body: json.RawMessage(`"boom"`)}

	select {
	case got := <-msgs:
		assert.EqualValues(t, 1, got.ID)
		assert.Equal(t, "hey", got.Content)
	case <-time.After(time.Second):
		t.Fatal("inbound message never delivered")
	}
	// the malformed frame was dropped, not delivered
	select {
	case got := <-msgs:
		t.Fatalf("unexpected extra message: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLateSubscriberGetsReplay(t *testing.T) {
	d := &fakeDialer{}
	m, _ := newTestManager(t, d)
	require.NoError(t, m.Connect(context.Background(), ""))

	conn := d.lastConn()
	for i := 1; i <= 3; i++ {
		f, _ := NewFrame(DestPrivate, chat.Message{ID: int64(i), Content: "m"})
		conn.inbound <- f
	}
	require.Eventually(t, func() bool {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		return len(m.replay) == 3
	}, time.Second, 5*time.Millisecond)

	msgs, cancel := m.Messages()
	defer cancel()
	for want := int64(1); want <= 3; want++ {
		select {
		case got := <-msgs:
			assert.Equal(t, want, got.ID)
		case <-time.After(time.Second):
			t.Fatalf("replayed message %d missing", want)
		}
	}
}
