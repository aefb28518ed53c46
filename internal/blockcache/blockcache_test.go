package blockcache

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
)

type countingFetcher struct {
	calls int32
	data  []byte
}

func (f *countingFetcher) Fetch(ctx context.Context, url string, offset, length uint64) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	end := offset + length
	if end > uint64(len(f.data)) {
		end = uint64(len(f.data))
	}
	if offset > uint64(len(f.data)) {
		return nil, nil
	}
	return f.data[offset:end], nil
}

func TestCacheMissThenHit(t *testing.T) {
	fetcher := &countingFetcher{data: []byte("0123456789abcdef")}
	c, err := Open("", fetcher)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	var buf bytes.Buffer
	if err := c.TryGet(&buf, "mem://x", 0, 10); err != nil {
		t.Fatalf("TryGet (miss): %v", err)
	}
	if buf.String() != "0123456789" {
		t.Fatalf("got %q, want 0123456789", buf.String())
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetcher.calls)
	}

	buf.Reset()
	if err := c.TryGet(&buf, "mem://x", 0, 10); err != nil {
		t.Fatalf("TryGet (hit): %v", err)
	}
	if buf.String() != "0123456789" {
		t.Fatalf("got %q on cache hit, want 0123456789", buf.String())
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetch calls after cache hit = %d, want still 1", fetcher.calls)
	}
}

func TestCacheDistinctRangesDoNotCollide(t *testing.T) {
	fetcher := &countingFetcher{data: []byte("0123456789abcdef")}
	c, err := Open("", fetcher)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	var buf bytes.Buffer
	if err := c.TryGet(&buf, "mem://x", 0, 4); err != nil {
		t.Fatalf("TryGet: %v", err)
	}
	if buf.String() != "0123" {
		t.Fatalf("got %q, want 0123", buf.String())
	}
	buf.Reset()
	if err := c.TryGet(&buf, "mem://x", 4, 4); err != nil {
		t.Fatalf("TryGet: %v", err)
	}
	if buf.String() != "4567" {
		t.Fatalf("got %q, want 4567", buf.String())
	}
	if fetcher.calls != 2 {
		t.Fatalf("fetch calls = %d, want 2", fetcher.calls)
	}
}

func TestCacheRequiresFetcher(t *testing.T) {
	if _, err := Open("", nil); err == nil {
		t.Fatalf("expected an error opening a cache with no Fetcher")
	}
}
