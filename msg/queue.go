package msg

import (
	"container/list"
	"sync"
)

// MsgQueue is a blocking, mutex-protected FIFO — the cross-thread boundary
// between pipeline stages. Dequeue blocks on empty. The duplicate-enqueue
// invariant (a message must not be queued while already in a queue) is
// checked by walking the list on every Enqueue.
type MsgQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items *list.List
}

// NewMsgQueue returns an empty MsgQueue.
func NewMsgQueue() *MsgQueue {
	q := &MsgQueue{items: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *MsgQueue) containsLocked(m Msg) bool {
	for e := q.items.Front(); e != nil; e = e.Next() {
		if e.Value.(Msg) == m {
			return true
		}
	}
	return false
}

// Enqueue appends m to the tail, waking one blocked Dequeue.
func (q *MsgQueue) Enqueue(m Msg) {
	q.mu.Lock()
	assertf(!q.containsLocked(m), "msg: duplicate enqueue of the same message")
	q.items.PushBack(m)
	q.mu.Unlock()
	q.cond.Signal()
}

// EnqueueAtHead pushes m to the front, for messages that must be
// re-delivered ahead of everything already queued (e.g. a replaced Halt).
func (q *MsgQueue) EnqueueAtHead(m Msg) {
	q.mu.Lock()
	assertf(!q.containsLocked(m), "msg: duplicate enqueue of the same message")
	q.items.PushFront(m)
	q.mu.Unlock()
	q.cond.Signal()
}

// Dequeue blocks until a message is available and returns it.
func (q *MsgQueue) Dequeue() Msg {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Len() == 0 {
		q.cond.Wait()
	}
	e := q.items.Front()
	q.items.Remove(e)
	return e.Value.(Msg)
}

// Clear removes every queued message, releasing each one's reference.
func (q *MsgQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for e := q.items.Front(); e != nil; e = e.Next() {
		e.Value.(Msg).RemoveRef()
	}
	q.items.Init()
}

// Len returns the current queue length. Racy by construction — intended
// for diagnostics only.
func (q *MsgQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// MsgQueueLite is the single-threaded counterpart of MsgQueue: no locking,
// asserts on empty Dequeue. Must never be shared across goroutines.
type MsgQueueLite struct {
	items *list.List
}

// NewMsgQueueLite returns an empty MsgQueueLite.
func NewMsgQueueLite() *MsgQueueLite {
	return &MsgQueueLite{items: list.New()}
}

func (q *MsgQueueLite) containsLocked(m Msg) bool {
	for e := q.items.Front(); e != nil; e = e.Next() {
		if e.Value.(Msg) == m {
			return true
		}
	}
	return false
}

func (q *MsgQueueLite) Enqueue(m Msg) {
	assertf(!q.containsLocked(m), "msg: duplicate enqueue of the same message")
	q.items.PushBack(m)
}

func (q *MsgQueueLite) EnqueueAtHead(m Msg) {
	assertf(!q.containsLocked(m), "msg: duplicate enqueue of the same message")
	q.items.PushFront(m)
}

func (q *MsgQueueLite) Dequeue() Msg {
	e := q.items.Front()
	assertf(e != nil, "msg: Dequeue on empty MsgQueueLite")
	q.items.Remove(e)
	return e.Value.(Msg)
}

func (q *MsgQueueLite) Clear() {
	for e := q.items.Front(); e != nil; e = e.Next() {
		e.Value.(Msg).RemoveRef()
	}
	q.items.Init()
}

func (q *MsgQueueLite) Len() int { return q.items.Len() }
func (q *MsgQueueLite) Empty() bool { return q.items.Len() == 0 }
