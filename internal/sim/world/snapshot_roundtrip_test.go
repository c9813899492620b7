package world

import (
	"reflect"
	"strings"
	"testing"

	"beltworks.ai/internal/persistence/snapshot"
)

func smallFactory() []Entity {
	return []Entity{
		entHolding(1, "miner", 0, 0, map[int]int{7: 50, 1: 5}),
		ent(2, "arm", 2, 0, Right),
		ent(3, "belt", 3, 0, Right),
		ent(4, "belt", 4, 0, Right),
		ent(5, "fast_belt", 5, 0, Right),
		entHolding(6, "chest", 6, 0, nil),
	}
}

func TestSnapshot_RoundTripReproducesUnitState(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, smallFactory()...)
	runTicks(w, 905)

	want := w.ExportSnapshot()
	if len(want.Crafting) == 0 {
		t.Fatalf("expected a running craft in the export")
	}
	b, err := snapshot.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := snapshot.Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	w2 := newTestWorld(t)
	place(t, w2, smallFactory()...)
	if err := w2.ImportSnapshot(decoded); err != nil {
		t.Fatalf("import: %v", err)
	}
	got := w2.ExportSnapshot()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch:\nwant=%+v\n got=%+v", want, got)
	}
	if w2.CurrentTick() != w.CurrentTick() {
		t.Fatalf("tick=%d want %d", w2.CurrentTick(), w.CurrentTick())
	}
	if w2.Dirty() {
		t.Fatalf("freshly imported world should be clean")
	}

	// Both worlds keep evolving identically.
	runTicks(w, 300)
	runTicks(w2, 300)
	if !reflect.DeepEqual(w.ExportSnapshot(), w2.ExportSnapshot()) {
		t.Fatalf("worlds diverged after import")
	}
}

func TestSnapshot_ImportDefaultsMissingUnits(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, smallFactory()...)
	runTicks(w, 300)

	snap := w.ExportSnapshot()
	snap.Transporters = nil
	snap.Manipulators = nil
	snap.Holdings = nil
	snap.Crafting = nil
	if err := w.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}

	for _, id := range []EntityID{3, 4, 5} {
		tr := mustTransporter(t, w, id)
		if tr.Status != TransporterEmpty || tr.Position != 0 {
			t.Fatalf("belt %d=%+v want initial state", id, tr)
		}
	}
	m := mustManipulator(t, w, 2)
	if m.Status != ManipulatorIdle || m.ArmPosition != 0.5 {
		t.Fatalf("arm=%+v want idle at pivot", m)
	}
	miner := mustProducer(t, w, 1)
	// Layout holdings are restored and the load pass restarts extraction.
	if miner.Held[1] != 5 || miner.Held[7] != 49 || miner.ActiveRecipe != 1 {
		t.Fatalf("miner held=%v active=%d", miner.Held, miner.ActiveRecipe)
	}
}

func TestSnapshot_ImportSkipsStaleEntries(t *testing.T) {
	w, logs := newLoggedTestWorld(t)
	place(t, w, smallFactory()...)
	snap := w.ExportSnapshot()
	snap.Transporters = append(snap.Transporters,
		snapshot.TransporterV1{EntityID: 99, Status: "carrying", Resource: 1, Amount: 1},
		snapshot.TransporterV1{EntityID: 3, Status: "flying", Resource: 1, Amount: 1},
	)
	snap.Crafting = append(snap.Crafting, snapshot.CraftingV1{EntityID: 6, RecipeID: 4242, TicksRemaining: 3})

	if err := w.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if tr := mustTransporter(t, w, 3); tr.Status != TransporterEmpty {
		t.Fatalf("belt 3 status=%s want empty", tr.Status)
	}
	if mustProducer(t, w, 6).crafting() {
		t.Fatalf("unknown recipe was applied")
	}
	for _, want := range []string{"99", "flying", "4242"} {
		if !strings.Contains(logs.String(), want) {
			t.Fatalf("log missing %q:\n%s", want, logs.String())
		}
	}
}

func TestSnapshot_ImportRejectsVersionAndWorld(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, smallFactory()...)

	snap := w.ExportSnapshot()
	snap.Header.Version = 2
	if err := w.ImportSnapshot(snap); err == nil {
		t.Fatalf("expected version error")
	}
	snap = w.ExportSnapshot()
	snap.Header.WorldID = "other"
	if err := w.ImportSnapshot(snap); err == nil {
		t.Fatalf("expected world mismatch error")
	}
}

func TestSnapshot_ImportNormalizesManipulatorStatus(t *testing.T) {
	w, logs := newLoggedTestWorld(t)
	place(t, w, smallFactory()...)
	snap := w.ExportSnapshot()
	snap.Manipulators = []snapshot.ManipulatorV1{
		{EntityID: 2, Status: "picking", Resource: 1, Amount: 1, ArmPosition: 0.2},
	}
	if err := w.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	m := mustManipulator(t, w, 2)
	if m.Status != ManipulatorCarrying || m.Stack != (Stack{Resource: 1, Amount: 1}) {
		t.Fatalf("arm=%s %+v want carrying 1 iron_ore", m.Status, m.Stack)
	}
	if !strings.Contains(logs.String(), "manipulator 2") {
		t.Fatalf("normalization not logged:\n%s", logs.String())
	}
	before := w.TotalResources()[1] + w.CraftingInputs()[1]
	w.StepLogic()
	if got := mustManipulator(t, w, 2).Stack; got.Empty() {
		t.Fatalf("held stack lost after a logic pass")
	}
	if after := w.TotalResources()[1] + w.CraftingInputs()[1]; after != before {
		t.Fatalf("iron_ore %d -> %d", before, after)
	}

	snap.Manipulators = []snapshot.ManipulatorV1{{EntityID: 2, Status: "placing", ArmPosition: 1}}
	if err := w.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if m := mustManipulator(t, w, 2); m.Status != ManipulatorIdle || !m.Stack.Empty() {
		t.Fatalf("empty-handed placing arm=%s %+v want idle", m.Status, m.Stack)
	}
}
