package world

import (
	"bytes"
	"log"
	"testing"

	"beltworks.ai/internal/sim/catalogs"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, _ := newLoggedTestWorld(t)
	return w
}

func newLoggedTestWorld(t *testing.T) (*World, *bytes.Buffer) {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	var buf bytes.Buffer
	w, err := New(WorldConfig{ID: "test"}, cats, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w, &buf
}

func ent(id EntityID, typ string, x, y int, dir Direction) Entity {
	return Entity{ID: id, Type: typ, Pos: Tile{X: x, Y: y}, Dir: dir}
}

func entHolding(id EntityID, typ string, x, y int, holdings map[int]int) Entity {
	return Entity{ID: id, Type: typ, Pos: Tile{X: x, Y: y}, Dir: Right, Holdings: holdings}
}

func place(t *testing.T, w *World, es ...Entity) {
	t.Helper()
	if err := w.AddEntities(es); err != nil {
		t.Fatalf("add entities: %v", err)
	}
}

func mustTransporter(t *testing.T, w *World, id EntityID) *Transporter {
	t.Helper()
	tr, ok := w.Transporter(id)
	if !ok {
		t.Fatalf("transporter %d missing", id)
	}
	return tr
}

func mustManipulator(t *testing.T, w *World, id EntityID) *Manipulator {
	t.Helper()
	m, ok := w.Manipulator(id)
	if !ok {
		t.Fatalf("manipulator %d missing", id)
	}
	return m
}

func mustProducer(t *testing.T, w *World, id EntityID) *ProductionUnit {
	t.Helper()
	p, ok := w.ProductionUnit(id)
	if !ok {
		t.Fatalf("production unit %d missing", id)
	}
	return p
}

// loadWaiting puts a stack at the exit of a belt, ready to hand off.
func loadWaiting(t *testing.T, w *World, id EntityID, s Stack) *Transporter {
	t.Helper()
	tr := mustTransporter(t, w, id)
	tr.Stack = s
	tr.Status = TransporterWaiting
	tr.Position = 1
	tr.LateralOffset = 0
	return tr
}

func runTicks(w *World, n int) {
	for i := 0; i < n; i++ {
		w.Tick()
	}
}

func sameTotals(a, b map[int]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
