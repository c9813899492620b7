package r2s3

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"beltworks.ai/internal/persistence/snapshot"
)

type Stats struct {
	QueueDepth          int
	QueueCapacity       int
	EnqueuedTotal       uint64
	QueueSaturatedTotal uint64
	DroppedTotal        uint64
	UploadSuccessTotal  uint64
	UploadFailTotal     uint64
	LastSuccessUnix     int64
	LastErrorUnix       int64
}

type upload struct {
	key  string
	blob []byte
}

// Mirror copies saved snapshots to a bucket in the background. Each world
// keeps a rolling latest object plus one object per saved tick.
type Mirror struct {
	client *Client
	prefix string
	logger *log.Logger

	jobs        chan upload
	enqueueWait time.Duration
	retryBase   time.Duration
	wg          sync.WaitGroup

	enqueuedTotal       atomic.Uint64
	queueSaturatedTotal atomic.Uint64
	droppedTotal        atomic.Uint64
	uploadSuccessTotal  atomic.Uint64
	uploadFailTotal     atomic.Uint64
	lastSuccessUnix     atomic.Int64
	lastErrorUnix       atomic.Int64
}

func NewMirror(client *Client, prefix string, workers, queueCapacity int, enqueueWait time.Duration, logger *log.Logger) *Mirror {
	if workers <= 0 {
		workers = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = 64
	}
	if enqueueWait <= 0 {
		enqueueWait = 25 * time.Millisecond
	}
	m := &Mirror{
		client:      client,
		prefix:      strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/"),
		logger:      logger,
		jobs:        make(chan upload, queueCapacity),
		enqueueWait: enqueueWait,
		retryBase:   200 * time.Millisecond,
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for u := range m.jobs {
				m.uploadOne(u)
			}
		}()
	}
	return m
}

func (m *Mirror) latestKey(worldID string) string {
	return path.Join(m.prefix, worldID, "latest.snap.zst")
}

func (m *Mirror) tickKey(worldID string, tick uint64) string {
	return path.Join(m.prefix, worldID, "snapshots", fmt.Sprintf("%d.snap.zst", tick))
}

// Enqueue schedules snap for upload. It never blocks longer than the
// enqueue wait; a saturated queue drops the upload.
func (m *Mirror) Enqueue(snap snapshot.SnapshotV1) {
	if m == nil || m.client == nil {
		return
	}
	blob, err := snapshot.Marshal(snap)
	if err != nil {
		m.printf("r2 mirror encode tick=%d err=%v", snap.Header.Tick, err)
		return
	}
	world := snap.Header.WorldID
	m.enqueue(upload{key: m.tickKey(world, snap.Header.Tick), blob: blob})
	m.enqueue(upload{key: m.latestKey(world), blob: blob})
}

func (m *Mirror) enqueue(u upload) {
	m.enqueuedTotal.Add(1)

	select {
	case m.jobs <- u:
		return
	default:
	}

	m.queueSaturatedTotal.Add(1)
	timer := time.NewTimer(m.enqueueWait)
	defer timer.Stop()
	select {
	case m.jobs <- u:
		return
	case <-timer.C:
		dropped := m.droppedTotal.Add(1)
		m.printf("r2 mirror drop key=%s reason=queue_saturated wait_ms=%d dropped_total=%d", u.key, m.enqueueWait.Milliseconds(), dropped)
	}
}

// LoadLatest fetches the world's latest mirrored snapshot.
func (m *Mirror) LoadLatest(ctx context.Context, worldID string) (snapshot.SnapshotV1, bool, error) {
	blob, ok, err := m.client.Get(ctx, m.latestKey(worldID))
	if err != nil || !ok {
		return snapshot.SnapshotV1{}, false, err
	}
	snap, err := snapshot.Unmarshal(blob)
	if err != nil {
		return snapshot.SnapshotV1{}, false, fmt.Errorf("decode mirrored snapshot: %w", err)
	}
	return snap, true, nil
}

// Close drains queued uploads and stops the workers.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	close(m.jobs)
	m.wg.Wait()
}

func (m *Mirror) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:          len(m.jobs),
		QueueCapacity:       cap(m.jobs),
		EnqueuedTotal:       m.enqueuedTotal.Load(),
		QueueSaturatedTotal: m.queueSaturatedTotal.Load(),
		DroppedTotal:        m.droppedTotal.Load(),
		UploadSuccessTotal:  m.uploadSuccessTotal.Load(),
		UploadFailTotal:     m.uploadFailTotal.Load(),
		LastSuccessUnix:     m.lastSuccessUnix.Load(),
		LastErrorUnix:       m.lastErrorUnix.Load(),
	}
}

func (m *Mirror) uploadOne(u upload) {
	if err := m.uploadWithRetry(u); err != nil {
		m.uploadFailTotal.Add(1)
		m.lastErrorUnix.Store(time.Now().UTC().Unix())
		m.printf("r2 mirror upload failed key=%s err=%v", u.key, err)
		return
	}
	m.uploadSuccessTotal.Add(1)
	m.lastSuccessUnix.Store(time.Now().UTC().Unix())
}

func (m *Mirror) uploadWithRetry(u upload) error {
	const maxAttempts = 4
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := m.client.Put(ctx, u.key, u.blob)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt*attempt) * m.retryBase)
		}
	}
	return lastErr
}

func (m *Mirror) printf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}

// SnapshotStore is the primary store a MirroredStore wraps.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap snapshot.SnapshotV1) error
}

// MirroredStore saves to Primary and, once that succeeds, queues an
// off-site copy. Mirror failures never fail the save.
type MirroredStore struct {
	Primary SnapshotStore
	Mirror  *Mirror
}

func (s MirroredStore) SaveSnapshot(ctx context.Context, snap snapshot.SnapshotV1) error {
	if err := s.Primary.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	s.Mirror.Enqueue(snap)
	return nil
}
