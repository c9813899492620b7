package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"beltworks.ai/internal/persistence/snapshot"
	"beltworks.ai/internal/sim/catalogs"
	"beltworks.ai/internal/sim/tuning"
)

// SQLiteStore keeps encoded snapshots (plus a summary row per save) in a
// single SQLite file. It satisfies the world's snapshot store.
type SQLiteStore struct {
	db   *sql.DB
	keep int

	once sync.Once
}

// SaveInfo summarises one stored snapshot.
type SaveInfo struct {
	SaveID       string
	WorldID      string
	Tick         uint64
	Transporters int
	Manipulators int
	Holdings     int
	Crafting     int
	Bytes        int
	CreatedAt    string
}

// OpenSQLite opens (or creates) the store. keep bounds retained snapshots
// per world; 0 keeps everything.
func OpenSQLite(path string, keep int) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, keep: keep}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			save_id TEXT NOT NULL UNIQUE,
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			transporters INTEGER NOT NULL,
			manipulators INTEGER NOT NULL,
			holdings INTEGER NOT NULL,
			crafting INTEGER NOT NULL,
			blob BLOB NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_world_seq ON snapshots(world_id, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`)
	return err
}

func (s *SQLiteStore) Close() error {
	var err error
	s.once.Do(func() { err = s.db.Close() })
	return err
}

// SaveSnapshot stores snap under a fresh save id and prunes old rows.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap snapshot.SnapshotV1) error {
	blob, err := snapshot.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots(save_id,world_id,tick,transporters,manipulators,holdings,crafting,blob,created_at)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), snap.Header.WorldID, int64(snap.Header.Tick),
		len(snap.Transporters), len(snap.Manipulators), len(snap.Holdings), len(snap.Crafting),
		blob, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if s.keep > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM snapshots WHERE world_id = ? AND seq NOT IN (
				SELECT seq FROM snapshots WHERE world_id = ? ORDER BY seq DESC LIMIT ?)`,
			snap.Header.WorldID, snap.Header.WorldID, s.keep)
		if err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}
	return tx.Commit()
}

// LoadLatest returns the most recently saved snapshot for worldID.
func (s *SQLiteStore) LoadLatest(ctx context.Context, worldID string) (snapshot.SnapshotV1, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT blob FROM snapshots WHERE world_id = ? ORDER BY seq DESC LIMIT 1`, worldID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
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

// History lists stored saves for worldID, newest first.
func (s *SQLiteStore) History(ctx context.Context, worldID string) ([]SaveInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT save_id, world_id, tick, transporters, manipulators, holdings, crafting, length(blob), created_at
		 FROM snapshots WHERE world_id = ? ORDER BY seq DESC`, worldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaveInfo
	for rows.Next() {
		var (
			si   SaveInfo
			tick int64
		)
		if err := rows.Scan(&si.SaveID, &si.WorldID, &tick, &si.Transporters, &si.Manipulators, &si.Holdings, &si.Crafting, &si.Bytes, &si.CreatedAt); err != nil {
			return nil, err
		}
		si.Tick = uint64(tick)
		out = append(out, si)
	}
	return out, rows.Err()
}

// UpsertCatalogs records the catalogs and tuning a world was started with,
// so saved snapshots can be matched to the definitions they assume.
func (s *SQLiteStore) UpsertCatalogs(ctx context.Context, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv

	resources := make([]catalogs.ResourceDef, 0, len(cats.Resources.ByID))
	for _, id := range cats.SortedResourceIDs() {
		resources = append(resources, cats.Resources.ByID[id])
	}
	if b, _ := json.Marshal(resources); len(b) > 0 {
		rows = append(rows, kv{name: "resources", digest: cats.Resources.Digest, json: b})
	}

	recipes := make([]catalogs.RecipeDef, 0, len(cats.Recipes.ByID))
	for _, r := range cats.Recipes.ByID {
		recipes = append(recipes, r)
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })
	if b, _ := json.Marshal(recipes); len(b) > 0 {
		rows = append(rows, kv{name: "recipes", digest: cats.Recipes.Digest, json: b})
	}

	entities := make([]catalogs.EntityDef, 0, len(cats.Entities.ByName))
	for _, e := range cats.Entities.ByName {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	if b, _ := json.Marshal(entities); len(b) > 0 {
		rows = append(rows, kv{name: "entities", digest: cats.Entities.Digest, json: b})
	}

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CatalogDigest returns the recorded digest for a catalog name.
func (s *SQLiteStore) CatalogDigest(ctx context.Context, name string) (string, bool, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM catalogs WHERE name = ?`, name).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return d, true, nil
}
