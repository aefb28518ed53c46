package msg

import (
	"testing"
	"time"
)

func TestRefCountIntegrity(t *testing.T) {
	f := NewFactory(DefaultPoolSizes())
	for n := 1; n <= 5; n++ {
		m := f.CreateMode("test")
		for k := 0; k < n; k++ {
			m.AddRef()
		}
		for k := 0; k < n+1; k++ {
			m.RemoveRef()
		}
		// The cell must have returned to the pool: allocating the full
		// capacity again must not block.
	}
	stats := f.Stats()[KindMode]
	if stats.InUse != 0 {
		t.Fatalf("expected 0 in-use Mode cells, got %d", stats.InUse)
	}
}

func TestPoolExhaustionBlocks(t *testing.T) {
	sizes := DefaultPoolSizes()
	sizes.Mode = 2
	f := NewFactory(sizes)
	a := f.CreateMode("a")
	_ = f.CreateMode("b")

	done := make(chan *MsgMode, 1)
	go func() {
		done <- f.CreateMode("c")
	}()

	select {
	case <-done:
		t.Fatal("third allocation should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	a.RemoveRef()

	select {
	case m := <-done:
		if m == nil {
			t.Fatal("expected a valid message after freeing one cell")
		}
	case <-time.After(time.Second):
		t.Fatal("third allocation did not unblock after freeing a cell")
	}
}

func TestAllocateAssertsClearedRefcount(t *testing.T) {
	f := NewFactory(DefaultPoolSizes())
	m := f.CreateMode("x")
	m.RemoveRef()
	m2 := f.CreateMode("y")
	if m2.RefCount() != 1 {
		t.Fatalf("expected fresh refcount 1, got %d", m2.RefCount())
	}
}
