package world

import (
	"context"
	"errors"

	"beltworks.ai/internal/persistence/snapshot"
)

// SnapshotStore is the durable collaborator behind the autosave.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap snapshot.SnapshotV1) error
}

type autosaver struct {
	store    SnapshotStore
	inflight bool
	done     chan saveResult
}

type saveResult struct {
	gen  uint64 // mutation count at export time
	tick uint64
	err  error
}

// SetSnapshotStore wires the autosave target. Call before Run.
func (w *World) SetSnapshotStore(s SnapshotStore) { w.saver.store = s }

// startAutosave exports on the world goroutine and writes in the background.
// It does nothing when clean, when no store is set, or while a save is running.
func (w *World) startAutosave(ctx context.Context) bool {
	if !w.dirty || w.saver.store == nil || w.saver.inflight {
		return false
	}
	snap := w.ExportSnapshot()
	gen := w.mutations
	store, done := w.saver.store, w.saver.done
	w.saver.inflight = true
	go func() {
		err := store.SaveSnapshot(ctx, snap)
		done <- saveResult{gen: gen, tick: snap.Header.Tick, err: err}
	}()
	return true
}

// finishAutosave applies a save outcome. The dirty flag clears only when the
// save succeeded and nothing changed after the export.
func (w *World) finishAutosave(r saveResult) {
	w.saver.inflight = false
	if r.err != nil {
		w.logf("autosave tick %d failed (will retry): %v", r.tick, r.err)
		return
	}
	if r.gen == w.mutations {
		w.dirty = false
	}
}

// SaveNow exports and saves synchronously, e.g. on shutdown. It must be
// called from the world goroutine, or after Run has returned.
func (w *World) SaveNow(ctx context.Context) error {
	if w.saver.store == nil {
		return errors.New("no snapshot store")
	}
	if w.saver.inflight {
		// Let the running save land first so results arrive in order.
		select {
		case r := <-w.saver.done:
			w.finishAutosave(r)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	gen := w.mutations
	snap := w.ExportSnapshot()
	if err := w.saver.store.SaveSnapshot(ctx, snap); err != nil {
		w.logf("save tick %d failed: %v", snap.Header.Tick, err)
		return err
	}
	if gen == w.mutations {
		w.dirty = false
	}
	return nil
}

// PollAutosave drives one autosave cycle without Run: it applies a finished
// save if one is ready, then starts a new one when dirty.
func (w *World) PollAutosave(ctx context.Context) {
	select {
	case r := <-w.saver.done:
		w.finishAutosave(r)
	default:
	}
	w.startAutosave(ctx)
}

// AwaitAutosave blocks until the in-flight save (if any) reports back.
func (w *World) AwaitAutosave(ctx context.Context) error {
	if !w.saver.inflight {
		return nil
	}
	select {
	case r := <-w.saver.done:
		w.finishAutosave(r)
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
