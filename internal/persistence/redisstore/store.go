package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"beltworks.ai/internal/persistence/snapshot"
)

// Store keeps the latest snapshot per world in Redis: the encoded snapshot
// under one key and a small metadata hash beside it, written atomically.
type Store struct {
	client *redis.Client
	prefix string
}

// Meta describes the snapshot currently held for a world.
type Meta struct {
	SaveID  string
	Tick    uint64
	SavedAt time.Time
	Bytes   int
}

func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "beltworks"
	}
	return &Store{client: client, prefix: prefix}
}

// Dial builds a client for addr and checks it answers.
func Dial(ctx context.Context, addr, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(client, prefix), nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) snapshotKey(worldID string) string { return s.prefix + ":" + worldID + ":snapshot" }
func (s *Store) metaKey(worldID string) string     { return s.prefix + ":" + worldID + ":meta" }

// SaveSnapshot replaces the world's stored snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap snapshot.SnapshotV1) error {
	blob, err := snapshot.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	world := snap.Header.WorldID
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.snapshotKey(world), blob, 0)
	pipe.HSet(ctx, s.metaKey(world),
		"save_id", uuid.NewString(),
		"tick", strconv.FormatUint(snap.Header.Tick, 10),
		"saved_at", time.Now().UTC().Format(time.RFC3339Nano),
		"bytes", len(blob),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save %s: %w", world, err)
	}
	return nil
}

// LoadLatest returns the stored snapshot; ok is false when there is none.
func (s *Store) LoadLatest(ctx context.Context, worldID string) (snapshot.SnapshotV1, bool, error) {
	blob, err := s.client.Get(ctx, s.snapshotKey(worldID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snapshot.SnapshotV1{}, false, nil
	}
	if err != nil {
		return snapshot.SnapshotV1{}, false, err
	}
	snap, err := snapshot.Unmarshal(blob)
	if err != nil {
		return snapshot.SnapshotV1{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Meta reads the metadata hash; ok is false when nothing was saved.
func (s *Store) Meta(ctx context.Context, worldID string) (Meta, bool, error) {
	m, err := s.client.HGetAll(ctx, s.metaKey(worldID)).Result()
	if err != nil {
		return Meta{}, false, err
	}
	if len(m) == 0 {
		return Meta{}, false, nil
	}
	out := Meta{SaveID: m["save_id"]}
	if out.Tick, err = strconv.ParseUint(m["tick"], 10, 64); err != nil {
		return Meta{}, false, fmt.Errorf("meta tick: %w", err)
	}
	if out.Bytes, err = strconv.Atoi(m["bytes"]); err != nil {
		return Meta{}, false, fmt.Errorf("meta bytes: %w", err)
	}
	if out.SavedAt, err = time.Parse(time.RFC3339Nano, m["saved_at"]); err != nil {
		return Meta{}, false, fmt.Errorf("meta saved_at: %w", err)
	}
	return out, true, nil
}
