package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"beltworks.ai/internal/persistence/indexdb"
	persistlog "beltworks.ai/internal/persistence/log"
	"beltworks.ai/internal/persistence/redisstore"
	"beltworks.ai/internal/persistence/snapshot"
	"beltworks.ai/internal/sim/catalogs"
	"beltworks.ai/internal/sim/tuning"
)

// storeBackend is the snapshot store the server saves to and resumes from.
type storeBackend struct {
	name   string
	save   persistlog.SnapshotStore
	load   func(ctx context.Context) (snapshot.SnapshotV1, bool, error)
	upsert func(ctx context.Context, cats *catalogs.Catalogs, tune tuning.Tuning) error
	close  func() error
}

type storeOptions struct {
	Backend   string
	WorldID   string
	WorldDir  string
	Keep      int
	RedisAddr string
}

func openStoreBackend(ctx context.Context, o storeOptions) (*storeBackend, error) {
	backend := strings.ToLower(strings.TrimSpace(o.Backend))
	if backend == "" {
		backend = strings.ToLower(strings.TrimSpace(os.Getenv("BW_STORE_BACKEND")))
	}
	if backend == "" {
		backend = "file"
	}

	switch backend {
	case "file":
		fs := snapshot.NewFileStore(filepath.Join(o.WorldDir, "snapshots"), o.Keep)
		return &storeBackend{
			name:  backend,
			save:  fs,
			load:  fs.LoadLatest,
			close: func() error { return nil },
		}, nil
	case "sqlite":
		db, err := indexdb.OpenSQLite(filepath.Join(o.WorldDir, "index", "world.sqlite"), o.Keep)
		if err != nil {
			return nil, err
		}
		return &storeBackend{
			name: backend,
			save: db,
			load: func(ctx context.Context) (snapshot.SnapshotV1, bool, error) {
				return db.LoadLatest(ctx, o.WorldID)
			},
			upsert: db.UpsertCatalogs,
			close:  db.Close,
		}, nil
	case "redis":
		addr := strings.TrimSpace(o.RedisAddr)
		if addr == "" {
			addr = strings.TrimSpace(os.Getenv("BW_REDIS_ADDR"))
		}
		if addr == "" {
			return nil, fmt.Errorf("store backend redis but no address given")
		}
		rs, err := redisstore.Dial(ctx, addr, "")
		if err != nil {
			return nil, err
		}
		return &storeBackend{
			name: backend,
			save: rs,
			load: func(ctx context.Context) (snapshot.SnapshotV1, bool, error) {
				return rs.LoadLatest(ctx, o.WorldID)
			},
			close: rs.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}
