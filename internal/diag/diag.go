// Package diag collects the introspection and logging helpers shared by
// the pipeline's cmd/ entry points: periodic allocator/muter snapshots on
// a ticker, plus structured slog lifecycle events.
package diag

import (
	"context"
	"log"
	"log/slog"
	"sort"
	"time"

	"audiopipeline/msg"
	"audiopipeline/mute"
)

// PoolReport is one allocator's usage snapshot, keyed by message kind.
type PoolReport struct {
	Kind     msg.Kind
	Capacity int
	InUse    int
	Peak     int
}

// Snapshot captures the factory's pool usage and the muter's current state
// at one instant, for a single status read or one periodic log line.
type Snapshot struct {
	Pools      []PoolReport
	MuterState mute.State
}

// Collect reads the current pool stats from factory and the current state
// from muter. muter may be nil if the caller's pipeline has no muting
// stage wired up.
func Collect(factory *msg.Factory, muter *mute.MuterVolume) Snapshot {
	stats := factory.Stats()
	reports := make([]PoolReport, 0, len(stats))
	for kind, s := range stats {
		reports = append(reports, PoolReport{Kind: kind, Capacity: s.Capacity, InUse: s.InUse, Peak: s.Peak})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Kind < reports[j].Kind })
	snap := Snapshot{Pools: reports}
	if muter != nil {
		snap.MuterState = muter.State()
	}
	return snap
}

// RunPeriodicLog logs a Collect snapshot every interval until ctx is
// canceled.
func RunPeriodicLog(ctx context.Context, factory *msg.Factory, muter *mute.MuterVolume, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := Collect(factory, muter)
			var inUse, capacity int
			for _, p := range snap.Pools {
				inUse += p.InUse
				capacity += p.Capacity
			}
			log.Printf("[diag] muter=%s pools_in_use=%d/%d", snap.MuterState, inUse, capacity)
		}
	}
}

// LogLifecycle emits a structured lifecycle event the way the store
// packages log opens/migrations, for cmd/ entry points that want
// consistent startup/shutdown logging without pulling in a metrics loop.
func LogLifecycle(event string, args ...any) {
	slog.Info(event, args...)
}
