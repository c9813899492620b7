package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"beltworks.ai/internal/persistence/snapshot"
	"beltworks.ai/internal/sim/catalogs"
	"beltworks.ai/internal/sim/layout"
	"beltworks.ai/internal/sim/tuning"
	"beltworks.ai/internal/sim/world"
)

// replay runs a factory headless for a number of frames, optionally resuming
// from a snapshot and checking that a save/load split reproduces the same state.
func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		layoutPath = flag.String("layout", "", "path to layout.yaml (default: <configs>/layout.yaml)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		snapPath   = flag.String("snapshot", "", "path to .snap.zst to resume from (optional)")
		ticks      = flag.Int("ticks", 600, "frames to run")
		splitAt    = flag.Int("verify_split", 0, "if > 0, also run a copy that saves and reloads after this many frames and compare")
		outPath    = flag.String("out", "", "write the final snapshot here (optional)")
		verbose    = flag.Bool("v", false, "log world warnings to stderr")
	)
	flag.Parse()

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := log.New(logOut, "[replay] ", 0)

	in, err := loadInputs(*configDir, *layoutPath, *tuningPath, *snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	w, err := in.build(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
	start := w.CurrentTick()
	for i := 0; i < *ticks; i++ {
		w.Tick()
	}
	final := w.ExportSnapshot()
	fmt.Printf("world=%s ticks %d..%d\n", final.Header.WorldID, start, final.Header.Tick)
	printTotals(os.Stdout, w.TotalResources())

	if *splitAt > 0 && *splitAt < *ticks {
		ok, err := verifySplit(in, logger, *ticks, *splitAt, final)
		if err != nil {
			fmt.Fprintln(os.Stderr, "verify:", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("verify: MISMATCH after save/load split")
			os.Exit(3)
		}
		fmt.Printf("verify: split at %d reproduces final state\n", *splitAt)
	}

	if p := strings.TrimSpace(*outPath); p != "" {
		if err := snapshot.WriteSnapshot(p, final); err != nil {
			fmt.Fprintln(os.Stderr, "write snapshot:", err)
			os.Exit(1)
		}
		fmt.Println("wrote", p)
	}
}

type inputs struct {
	cats *catalogs.Catalogs
	tune tuning.Tuning
	lay  layout.Layout
	snap *snapshot.SnapshotV1
}

func loadInputs(configDir, layoutPath, tuningPath, snapPath string) (inputs, error) {
	var in inputs
	var err error
	if in.cats, err = catalogs.Load(configDir); err != nil {
		return in, fmt.Errorf("load catalogs: %w", err)
	}
	if tuningPath == "" {
		tuningPath = filepath.Join(configDir, "tuning.yaml")
	}
	if in.tune, err = tuning.Load(tuningPath); err != nil {
		if !os.IsNotExist(err) {
			return in, fmt.Errorf("load tuning: %w", err)
		}
		in.tune = tuning.Defaults()
	}
	if layoutPath == "" {
		layoutPath = filepath.Join(configDir, "layout.yaml")
	}
	if in.lay, err = layout.Load(layoutPath); err != nil {
		return in, fmt.Errorf("load layout: %w", err)
	}
	if snapPath != "" {
		snap, err := snapshot.ReadSnapshot(snapPath)
		if err != nil {
			return in, fmt.Errorf("read snapshot: %w", err)
		}
		in.snap = &snap
	}
	return in, nil
}

// build places the layout and applies the snapshot, if any.
func (in inputs) build(logger *log.Logger) (*world.World, error) {
	id := in.lay.WorldID
	if in.snap != nil && in.snap.Header.WorldID != "" {
		id = in.snap.Header.WorldID
	}
	if id == "" {
		id = "world_1"
	}
	w, err := world.New(world.ConfigFromTuning(id, in.tune), in.cats, logger)
	if err != nil {
		return nil, err
	}
	ents, err := world.LayoutEntities(in.lay)
	if err != nil {
		return nil, err
	}
	if err := w.AddEntities(ents); err != nil {
		logger.Printf("layout: %v", err)
	}
	if in.snap != nil {
		if err := w.ImportSnapshot(*in.snap); err != nil {
			return nil, fmt.Errorf("import snapshot: %w", err)
		}
	}
	return w, nil
}

// verifySplit runs a fresh world to splitAt, round-trips it through the
// snapshot codec into another fresh world and finishes the run there.
func verifySplit(in inputs, logger *log.Logger, ticks, splitAt int, want snapshot.SnapshotV1) (bool, error) {
	a, err := in.build(logger)
	if err != nil {
		return false, err
	}
	for i := 0; i < splitAt; i++ {
		a.Tick()
	}
	blob, err := snapshot.Marshal(a.ExportSnapshot())
	if err != nil {
		return false, err
	}
	mid, err := snapshot.Unmarshal(blob)
	if err != nil {
		return false, err
	}

	in.snap = &mid
	b, err := in.build(logger)
	if err != nil {
		return false, err
	}
	for i := splitAt; i < ticks; i++ {
		b.Tick()
	}
	return reflect.DeepEqual(b.ExportSnapshot(), want), nil
}

func printTotals(out io.Writer, totals map[int]int) {
	ids := make([]int, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(out, "  resource %d: %d\n", id, totals[id])
	}
}
