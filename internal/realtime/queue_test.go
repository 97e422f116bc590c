package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stayloop/stayloop-go/internal/domain/chat"
)

func out(content string) chat.Outbound {
	return chat.Outbound{RecipientID: "peer", Content: content, ConversationID: 1}
}

func contents(msgs []chat.Outbound) []string {
	var got []string
	for _, m := range msgs {
		got = append(got, m.Content)
	}
	return got
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	q.PushBack(out("a"))
	q.PushBack(out("b"))
	q.PushBack(out("c"))
	assert.Equal(t, 3, q.Len())

	m, ok := q.PopFront()
	assert.True(t, ok)
	assert.Equal(t, "a", m.Content)
	assert.Equal(t, []string{"b", "c"}, contents(q.Snapshot()))
}

func TestQueuePushFrontPreservesOrder(t *testing.T) {
	q := NewQueue()
	q.PushBack(out("b"))
	q.PushBack(out("c"))
	q.PushFront(out("a"))
	assert.Equal(t, []string{"a", "b", "c"}, contents(q.Snapshot()))
}

func TestQueueEmptyAndClear(t *testing.T) {
	q := NewQueue()
	_, ok := q.PopFront()
	assert.False(t, ok)

	q.PushBack(out("x"))
	q.Clear()
	assert.Zero(t, q.Len())
	assert.Empty(t, q.Snapshot())
}
