package log

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"beltworks.ai/internal/persistence/snapshot"
)

// JSONLZstdWriter appends JSON lines to one zstd file per UTC day.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu     sync.Mutex
	curDay string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	day := w.now().UTC().Format("2006-01-02")
	if day != w.curDay {
		if err := w.rotateLocked(day); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(day string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.PathFor(day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curDay = day
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curDay = ""
	return err1
}

// PathFor is the file holding entries for a UTC day (YYYY-MM-DD).
func (w *JSONLZstdWriter) PathFor(day string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, day))
}

// SaveRecord is one journal line per save attempt.
type SaveRecord struct {
	At           string `json:"at"`
	WorldID      string `json:"world_id"`
	Tick         uint64 `json:"tick"`
	Transporters int    `json:"transporters"`
	Manipulators int    `json:"manipulators"`
	Holdings     int    `json:"holdings"`
	Crafting     int    `json:"crafting"`
	DurationMs   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
}

// SnapshotStore matches the world's autosave collaborator.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap snapshot.SnapshotV1) error
}

// JournaledStore records every save attempt (and its outcome) before
// returning the underlying store's result unchanged.
type JournaledStore struct {
	Store   SnapshotStore
	Journal *JSONLZstdWriter
}

func NewJournaledStore(store SnapshotStore, worldDir string) *JournaledStore {
	return &JournaledStore{
		Store:   store,
		Journal: NewJSONLZstdWriter(filepath.Join(worldDir, "saves"), "saves"),
	}
}

func (s *JournaledStore) SaveSnapshot(ctx context.Context, snap snapshot.SnapshotV1) error {
	start := time.Now()
	err := s.Store.SaveSnapshot(ctx, snap)
	rec := SaveRecord{
		At:           start.UTC().Format(time.RFC3339Nano),
		WorldID:      snap.Header.WorldID,
		Tick:         snap.Header.Tick,
		Transporters: len(snap.Transporters),
		Manipulators: len(snap.Manipulators),
		Holdings:     len(snap.Holdings),
		Crafting:     len(snap.Crafting),
		DurationMs:   time.Since(start).Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	// The journal is advisory; its failure never masks the save result.
	_ = s.Journal.Write(rec)
	return err
}

func (s *JournaledStore) Close() error { return s.Journal.Close() }
