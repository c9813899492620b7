package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"beltworks.ai/internal/persistence/indexdb"
	persistlog "beltworks.ai/internal/persistence/log"
	"beltworks.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "saves":
			savesCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// snapshotCmd prints a summary of one snapshot file (default: latest on disk).
func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (used when -path is empty)")
	path := fs.String("path", "", "snapshot path (optional)")
	asJSON := fs.Bool("json", false, "dump the full snapshot as JSON")
	_ = fs.Parse(args)

	var snap snapshot.SnapshotV1
	var err error
	if p := strings.TrimSpace(*path); p != "" {
		snap, err = snapshot.ReadSnapshot(p)
	} else {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -path")
			os.Exit(2)
		}
		var ok bool
		store := snapshot.NewFileStore(filepath.Join(*dataDir, "worlds", *worldID, "snapshots"), 0)
		snap, ok, err = store.LoadLatest(context.Background())
		if err == nil && !ok {
			fmt.Fprintln(os.Stderr, "no snapshot found")
			os.Exit(2)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
		return
	}
	printSnapshotSummary(os.Stdout, snap)
}

func printSnapshotSummary(w io.Writer, snap snapshot.SnapshotV1) {
	fmt.Fprintf(w, "snapshot v%d world=%s tick=%d transporters=%d manipulators=%d holdings=%d crafting=%d\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.Tick,
		len(snap.Transporters), len(snap.Manipulators), len(snap.Holdings), len(snap.Crafting))

	totals := snapshotTotals(snap)
	ids := make([]int, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "  resource %d: %d\n", id, totals[id])
	}
}

// snapshotTotals sums resources across every unit captured in snap.
func snapshotTotals(snap snapshot.SnapshotV1) map[int]int {
	out := map[int]int{}
	for _, h := range snap.Holdings {
		for r, n := range h.Resources {
			out[r] += n
		}
	}
	for _, t := range snap.Transporters {
		if t.Amount > 0 {
			out[t.Resource] += t.Amount
		}
	}
	for _, m := range snap.Manipulators {
		if m.Amount > 0 {
			out[m.Resource] += m.Amount
		}
	}
	return out
}

// dbCmd lists saves held by the sqlite store, newest first.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := indexdb.OpenSQLite(path, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	hist, err := db.History(context.Background(), *worldID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "history:", err)
		os.Exit(1)
	}
	if *limit > 0 && len(hist) > *limit {
		hist = hist[:*limit]
	}
	for _, h := range hist {
		fmt.Printf("%s tick=%d transporters=%d manipulators=%d holdings=%d crafting=%d bytes=%d at=%s\n",
			h.SaveID, h.Tick, h.Transporters, h.Manipulators, h.Holdings, h.Crafting, h.Bytes, h.CreatedAt)
	}
}

// savesCmd prints the save journal, optionally only failed attempts.
func savesCmd(args []string) {
	fs := flag.NewFlagSet("saves", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required)")
	failedOnly := fs.Bool("failed", false, "only show failed saves")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	recs, err := readSaveJournal(filepath.Join(*dataDir, "worlds", *worldID, "saves"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read journal:", err)
		os.Exit(1)
	}
	for _, r := range recs {
		if *failedOnly && r.Error == "" {
			continue
		}
		status := "ok"
		if r.Error != "" {
			status = "FAILED: " + r.Error
		}
		fmt.Printf("%s tick=%d %dms %s\n", r.At, r.Tick, r.DurationMs, status)
	}
}

// readSaveJournal reads every daily journal file in dir, oldest day first.
func readSaveJournal(dir string) ([]persistlog.SaveRecord, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "saves-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []persistlog.SaveRecord
	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		sc := bufio.NewScanner(dec)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			var r persistlog.SaveRecord
			if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
				dec.Close()
				_ = f.Close()
				return nil, fmt.Errorf("%s: unmarshal: %w", name, err)
			}
			out = append(out, r)
		}
		err = sc.Err()
		dec.Close()
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
