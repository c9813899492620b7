package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"beltworks.ai/internal/persistence/snapshot"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(client, "")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func snap(world string, tick uint64) snapshot.SnapshotV1 {
	return snapshot.SnapshotV1{
		Header:   snapshot.Header{Version: snapshot.Version, WorldID: world, Tick: tick},
		Holdings: []snapshot.HoldingV1{{EntityID: 1, Resources: map[int]int{7: 499, 1: 1}}},
		Crafting: []snapshot.CraftingV1{{EntityID: 1, RecipeID: 1, TicksRemaining: 59}},
		Transporters: []snapshot.TransporterV1{
			{EntityID: 3, Status: "waiting_transfer", Resource: 1, Amount: 1, Position: 1},
		},
		Manipulators: []snapshot.ManipulatorV1{{EntityID: 2, Status: "idle", ArmPosition: 0.5}},
	}
}

func TestStore_SaveLoadAndMeta(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	_, ok, err := s.LoadLatest(ctx, "world_1")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = s.Meta(ctx, "world_1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SaveSnapshot(ctx, snap("world_1", 30)))
	first, ok, err := s.Meta(ctx, "world_1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(30), first.Tick)

	require.NoError(t, s.SaveSnapshot(ctx, snap("world_1", 60)))
	got, ok, err := s.LoadLatest(ctx, "world_1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap("world_1", 60), got)

	meta, ok, err := s.Meta(ctx, "world_1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(60), meta.Tick)
	require.NotEqual(t, first.SaveID, meta.SaveID)
	require.Positive(t, meta.Bytes)

	require.True(t, mr.Exists("beltworks:world_1:snapshot"))
	require.Equal(t, "60", mr.HGet("beltworks:world_1:meta", "tick"))
}

func TestStore_SaveFailsWhenServerDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()
	require.Error(t, s.SaveSnapshot(context.Background(), snap("world_1", 30)))
}

func TestStore_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("beltworks:w:snapshot", "not a snapshot"))
	_, _, err := s.LoadLatest(ctx, "w")
	require.Error(t, err)
}
