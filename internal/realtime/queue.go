package realtime

import (
	"sync"

	"github.com/stayloop/stayloop-go/internal/domain/chat"
	"github.com/stayloop/stayloop-go/internal/obs"
)

// Queue holds outbound messages accepted while the connection is down.
// FIFO; a message whose send failed goes back to the front so nothing
// overtakes it.
type Queue struct {
	mu    sync.Mutex
	items []chat.Outbound
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) PushBack(m chat.Outbound) {
	q.mu.Lock()
	q.items = append(q.items, m)
	q.report()
	q.mu.Unlock()
}

func (q *Queue) PushFront(m chat.Outbound) {
	q.mu.Lock()
	q.items = append([]chat.Outbound{m}, q.items...)
	q.report()
	q.mu.Unlock()
}

func (q *Queue) PopFront() (chat.Outbound, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return chat.Outbound{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	q.report()
	return m, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot copies the queued messages in order, oldest first.
func (q *Queue) Snapshot() []chat.Outbound {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]chat.Outbound, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.report()
	q.mu.Unlock()
}

func (q *Queue) report() {
	obs.PendingOutbound.Set(float64(len(q.items)))
}
