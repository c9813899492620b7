package world

import (
	"context"
	"time"
)

// Run ticks the world at TickRateHz until ctx is done. Observer joins and
// leaves, autosave results and the autosave interval are all handled on
// this goroutine, so unit state is never touched concurrently.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var autosave <-chan time.Time
	if w.cfg.AutosaveInterval > 0 && w.saver.store != nil {
		t := time.NewTicker(w.cfg.AutosaveInterval)
		defer t.Stop()
		autosave = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case r := <-w.saver.done:
			w.finishAutosave(r)
		case <-autosave:
			w.startAutosave(ctx)
		case <-ticker.C:
			w.Tick()
		}
	}
}
