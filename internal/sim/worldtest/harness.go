// Package worldtest drives a world through its exported API only, so
// scenario tests can live outside the world package.
package worldtest

import (
	"bytes"
	"log"
	"testing"

	"beltworks.ai/internal/persistence/snapshot"
	"beltworks.ai/internal/sim/catalogs"
	"beltworks.ai/internal/sim/layout"
	world "beltworks.ai/internal/sim/world"
)

// Harness is a small black-box test helper around one world.
type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	W    *world.World
	Log  *bytes.Buffer

	cfg  world.WorldConfig
	ents []world.Entity
}

func NewHarness(t *testing.T, cfg world.WorldConfig, cats *catalogs.Catalogs, ents []world.Entity) *Harness {
	t.Helper()
	var buf bytes.Buffer
	w, err := world.New(cfg, cats, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	if err := w.AddEntities(ents); err != nil {
		t.Fatalf("AddEntities: %v", err)
	}
	return &Harness{T: t, Cats: cats, W: w, Log: &buf, cfg: cfg, ents: ents}
}

// NewLayoutHarness builds a world from a layout file.
func NewLayoutHarness(t *testing.T, cfg world.WorldConfig, cats *catalogs.Catalogs, layoutPath string) *Harness {
	t.Helper()
	l, err := layout.Load(layoutPath)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	ents, err := world.LayoutEntities(l)
	if err != nil {
		t.Fatalf("layout entities: %v", err)
	}
	return NewHarness(t, cfg, cats, ents)
}

// StepFrames advances n animation frames.
func (h *Harness) StepFrames(n int) {
	for i := 0; i < n; i++ {
		h.W.Tick()
	}
}

// StepLogic runs n logic passes directly, skipping animation.
func (h *Harness) StepLogic(n int) {
	for i := 0; i < n; i++ {
		h.W.StepLogic()
	}
}

// Reload round-trips the world through the snapshot codec into a fresh
// world built from the same entities.
func (h *Harness) Reload() *Harness {
	h.T.Helper()
	blob, err := snapshot.Marshal(h.W.ExportSnapshot())
	if err != nil {
		h.T.Fatalf("marshal: %v", err)
	}
	snap, err := snapshot.Unmarshal(blob)
	if err != nil {
		h.T.Fatalf("unmarshal: %v", err)
	}
	next := NewHarness(h.T, h.cfg, h.Cats, h.ents)
	if err := next.W.ImportSnapshot(snap); err != nil {
		h.T.Fatalf("import: %v", err)
	}
	return next
}

func (h *Harness) Transporter(id world.EntityID) world.TransporterState {
	h.T.Helper()
	s, ok := h.W.UnitState(id).(world.TransporterState)
	if !ok {
		h.T.Fatalf("entity %d is not a transporter", id)
	}
	return s
}

func (h *Harness) Manipulator(id world.EntityID) world.ManipulatorState {
	h.T.Helper()
	s, ok := h.W.UnitState(id).(world.ManipulatorState)
	if !ok {
		h.T.Fatalf("entity %d is not a manipulator", id)
	}
	return s
}

func (h *Harness) Producer(id world.EntityID) world.ProductionState {
	h.T.Helper()
	s, ok := h.W.UnitState(id).(world.ProductionState)
	if !ok {
		h.T.Fatalf("entity %d is not a production unit", id)
	}
	return s
}

// Resources counts every resource in the world: what units hold plus the
// inputs locked in running crafts.
func (h *Harness) Resources() map[int]int {
	out := h.W.TotalResources()
	for r, n := range h.W.CraftingInputs() {
		out[r] += n
	}
	return out
}

// ResourceID looks a resource up by catalog name.
func (h *Harness) ResourceID(name string) int {
	h.T.Helper()
	for id, r := range h.Cats.Resources.ByID {
		if r.Name == name {
			return id
		}
	}
	h.T.Fatalf("unknown resource %q", name)
	return 0
}
