package msg

import (
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	f := NewFactory(DefaultPoolSizes())
	q := NewMsgQueue()

	var sent []Msg
	for i := 0; i < 5; i++ {
		m := f.CreateTrack("uri", "", uint32(i))
		sent = append(sent, m)
		q.Enqueue(m)
	}

	for i, want := range sent {
		got := q.Dequeue()
		if got != want {
			t.Fatalf("item %d: got %v, want %v", i, got, want)
		}
		got.RemoveRef()
	}
}

func TestQueueEnqueueAtHead(t *testing.T) {
	f := NewFactory(DefaultPoolSizes())
	q := NewMsgQueue()

	a := f.CreateTrack("a", "", 0)
	b := f.CreateTrack("b", "", 1)
	c := f.CreateTrack("c", "", 2)
	q.Enqueue(a)
	q.Enqueue(b)
	q.EnqueueAtHead(c)

	if got := q.Dequeue(); got != c {
		t.Fatalf("expected head-pushed item first, got %v", got)
	}
	if got := q.Dequeue(); got != a {
		t.Fatalf("expected a second, got %v", got)
	}
	if got := q.Dequeue(); got != b {
		t.Fatalf("expected b third, got %v", got)
	}
	a.RemoveRef()
	b.RemoveRef()
	c.RemoveRef()
}

func TestQueueDequeueBlocksOnEmpty(t *testing.T) {
	q := NewMsgQueue()
	f := NewFactory(DefaultPoolSizes())

	done := make(chan Msg, 1)
	go func() { done <- q.Dequeue() }()

	select {
	case <-done:
		t.Fatal("Dequeue should block on an empty queue")
	case <-time.After(30 * time.Millisecond):
	}

	m := f.CreateWait()
	q.Enqueue(m)

	select {
	case got := <-done:
		if got != m {
			t.Fatal("unexpected message delivered")
		}
		got.RemoveRef()
	case <-time.After(time.Second):
		t.Fatal("Dequeue never unblocked")
	}
}

func TestQueueDuplicateEnqueueAsserts(t *testing.T) {
	f := NewFactory(DefaultPoolSizes())
	q := NewMsgQueue()
	m := f.CreateWait()
	q.Enqueue(m)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on duplicate enqueue")
		}
		m.RemoveRef()
	}()
	q.Enqueue(m)
}

func TestQueueLiteAssertsOnEmptyDequeue(t *testing.T) {
	q := NewMsgQueueLite()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic dequeuing an empty MsgQueueLite")
		}
	}()
	q.Dequeue()
}
