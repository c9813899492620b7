package world

import "testing"

func TestTransfer_StraightHandOffAfterTraversal(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 0, 0, Right),
		ent(2, "belt", 1, 0, Right),
	)
	a := mustTransporter(t, w, 1)
	a.receive(w, Stack{Resource: 1, Amount: 1}, Right)
	if a.Position != 0 || a.Status != TransporterCarrying {
		t.Fatalf("a=%+v want carrying at 0", a)
	}

	runTicks(w, w.Config().TraversalTicks)

	b := mustTransporter(t, w, 2)
	if a.Status != TransporterEmpty || !a.Stack.Empty() {
		t.Fatalf("a status=%s stack=%+v want empty", a.Status, a.Stack)
	}
	if b.Stack != (Stack{Resource: 1, Amount: 1}) {
		t.Fatalf("b stack=%+v want {1 1}", b.Stack)
	}
	if b.Position != 0 || b.LateralOffset != 0 || b.Status != TransporterCarrying {
		t.Fatalf("b=%+v want carrying at position 0, offset 0", b)
	}
}

func TestTransfer_TwoCycleSwaps(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 0, 0, Right),
		ent(2, "belt", 1, 0, Left),
	)
	a := loadWaiting(t, w, 1, Stack{Resource: 1, Amount: 1})
	b := loadWaiting(t, w, 2, Stack{Resource: 2, Amount: 1})

	w.StepLogic()

	if a.Stack.Resource != 2 || b.Stack.Resource != 1 {
		t.Fatalf("a=%+v b=%+v want swapped contents", a.Stack, b.Stack)
	}
	if a.Status != TransporterCarrying || b.Status != TransporterCarrying {
		t.Fatalf("status a=%s b=%s want carrying", a.Status, b.Status)
	}
	for _, tr := range []*Transporter{a, b} {
		if tr.Position != 0.5 || tr.LateralOffset != 0 {
			t.Fatalf("belt %d head-on entry at position=%v offset=%v want 0.5, 0", tr.ID, tr.Position, tr.LateralOffset)
		}
	}
}

func TestTransfer_FourCycleRotatesAndTailWaits(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 0, 0, Right),
		ent(2, "belt", 1, 0, Down),
		ent(3, "belt", 1, 1, Left),
		ent(4, "belt", 0, 1, Up),
		ent(5, "belt", -1, 0, Right), // feeds into the loop at 1
	)
	for id := EntityID(1); id <= 5; id++ {
		loadWaiting(t, w, id, Stack{Resource: int(id), Amount: 1})
	}
	before := w.TotalResources()

	w.StepLogic()

	want := map[EntityID]int{1: 4, 2: 1, 3: 2, 4: 3}
	for id, res := range want {
		tr := mustTransporter(t, w, id)
		if tr.Stack.Resource != res || tr.Status != TransporterCarrying {
			t.Fatalf("belt %d stack=%+v status=%s want resource %d carrying", id, tr.Stack, tr.Status, res)
		}
	}
	tail := mustTransporter(t, w, 5)
	if tail.Status != TransporterWaiting || tail.Stack.Resource != 5 {
		t.Fatalf("tail=%+v want still waiting with resource 5", tail)
	}
	if after := w.TotalResources(); !sameTotals(before, after) {
		t.Fatalf("totals changed: before=%v after=%v", before, after)
	}
}

func TestTransfer_ChainPullsThrough(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 0, 0, Right),
		ent(2, "belt", 1, 0, Right),
		ent(3, "belt", 2, 0, Right),
	)
	a := loadWaiting(t, w, 1, Stack{Resource: 1, Amount: 1})
	b := loadWaiting(t, w, 2, Stack{Resource: 2, Amount: 1})
	c := mustTransporter(t, w, 3)

	w.StepLogic()

	if c.Stack.Resource != 2 || c.Position != 0 {
		t.Fatalf("c=%+v want resource 2 at 0", c)
	}
	if b.Stack.Resource != 1 || b.Position != 0 || b.Status != TransporterCarrying {
		t.Fatalf("b=%+v want resource 1 pulled to 0", b)
	}
	if a.Status != TransporterEmpty {
		t.Fatalf("a status=%s want empty", a.Status)
	}
}

func TestTransfer_StraightSourceHasPriority(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(2, "belt", 1, 1, Up), // side source, lower id
		ent(5, "belt", 0, 0, Right),
		ent(10, "belt", 1, 0, Right),
		ent(11, "belt", 2, 0, Right),
	)
	if got := mustTransporter(t, w, 10).Straight; got != 5 {
		t.Fatalf("straight=%d want 5", got)
	}
	side := loadWaiting(t, w, 2, Stack{Resource: 2, Amount: 1})
	straight := loadWaiting(t, w, 5, Stack{Resource: 5, Amount: 1})
	mid := loadWaiting(t, w, 10, Stack{Resource: 10, Amount: 1})

	w.StepLogic()

	if d := mustTransporter(t, w, 11); d.Stack.Resource != 10 {
		t.Fatalf("downstream=%+v want resource 10", d.Stack)
	}
	if mid.Stack.Resource != 5 || mid.Position != 0 {
		t.Fatalf("mid=%+v want straight resource 5 at 0", mid)
	}
	if straight.Status != TransporterEmpty {
		t.Fatalf("straight status=%s want empty", straight.Status)
	}
	if side.Status != TransporterWaiting || side.Stack.Resource != 2 {
		t.Fatalf("side=%+v want still waiting", side)
	}
}

func TestTransfer_StraightWinsEmptyTarget(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(2, "belt", 1, 1, Up),
		ent(5, "belt", 0, 0, Right),
		ent(10, "belt", 1, 0, Right),
	)
	loadWaiting(t, w, 2, Stack{Resource: 2, Amount: 1})
	loadWaiting(t, w, 5, Stack{Resource: 5, Amount: 1})

	w.StepLogic()

	if got := mustTransporter(t, w, 10).Stack.Resource; got != 5 {
		t.Fatalf("target resource=%d want 5", got)
	}
	if side := mustTransporter(t, w, 2); side.Status != TransporterWaiting {
		t.Fatalf("side status=%s want waiting", side.Status)
	}
}

func TestTransfer_SideSourcesRoundRobin(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 1, 0, Down),
		ent(2, "belt", 1, 2, Up),
		ent(10, "belt", 1, 1, Right),
	)
	target := mustTransporter(t, w, 10)
	loadWaiting(t, w, 1, Stack{Resource: 1, Amount: 1})
	loadWaiting(t, w, 2, Stack{Resource: 2, Amount: 1})

	var got []int
	for i := 0; i < 4; i++ {
		w.StepLogic()
		if target.Stack.Empty() {
			t.Fatalf("round %d: target empty", i)
		}
		got = append(got, target.Stack.Resource)
		target.clear()
		for _, id := range []EntityID{1, 2} {
			if tr := mustTransporter(t, w, id); tr.Status == TransporterEmpty {
				loadWaiting(t, w, id, Stack{Resource: int(id), Amount: 1})
			}
		}
	}
	want := []int{1, 2, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pull order=%v want %v", got, want)
		}
	}
}

func TestTransfer_SideEntryStartsMidBeltWithOffset(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 1, 0, Down),
		ent(10, "belt", 1, 1, Right),
	)
	loadWaiting(t, w, 1, Stack{Resource: 1, Amount: 1})

	w.StepLogic()

	tr := mustTransporter(t, w, 10)
	if tr.Position != 0.5 || tr.LateralOffset != -0.5 {
		t.Fatalf("position=%v offset=%v want 0.5,-0.5", tr.Position, tr.LateralOffset)
	}

	// The offset settles before the belt moves forward.
	w.animate()
	if tr.Position != 0.5 || tr.LateralOffset == -0.5 {
		t.Fatalf("after one frame position=%v offset=%v", tr.Position, tr.LateralOffset)
	}
}

func TestTransfer_BuildingCapUnderSimultaneousArrivals(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 0, 0, Right),
		ent(2, "belt", 1, 2, Up),
		entHolding(20, "furnace", 1, 0, map[int]int{1: 9}),
	)
	if got := mustTransporter(t, w, 2).Target; got != 20 {
		t.Fatalf("belt 2 target=%d want furnace", got)
	}
	loadWaiting(t, w, 1, Stack{Resource: 1, Amount: 1})
	loadWaiting(t, w, 2, Stack{Resource: 1, Amount: 1})

	w.StepLogic()

	f := mustProducer(t, w, 20)
	if f.Held[1] != 10 {
		t.Fatalf("held iron_ore=%d want 10", f.Held[1])
	}
	if tr := mustTransporter(t, w, 2); tr.Status != TransporterWaiting {
		t.Fatalf("second arrival status=%s want waiting", tr.Status)
	}

	// Full: further arrivals keep waiting.
	w.StepLogic()
	if f.Held[1] != 10 {
		t.Fatalf("held iron_ore=%d want 10 after refusal", f.Held[1])
	}
}

func TestTransfer_ReceivingInputStartsCraft(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 0, 0, Right),
		entHolding(20, "furnace", 1, 0, map[int]int{1: 3}),
	)
	loadWaiting(t, w, 1, Stack{Resource: 9, Amount: 1})

	w.StepLogic()

	f := mustProducer(t, w, 20)
	if f.ActiveRecipe != 4 || f.TicksRemaining != 90 {
		t.Fatalf("active=%d remaining=%d want smelt_iron 90", f.ActiveRecipe, f.TicksRemaining)
	}
	if f.Held[1] != 2 || f.Held[9] != 0 {
		t.Fatalf("held=%v want inputs consumed", f.Held)
	}
}

func TestTransfer_RejectedByMiningAndUnknownInputs(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 0, 0, Right),
		entHolding(20, "miner", 1, 0, map[int]int{7: 10}),
		ent(2, "belt", 0, 5, Right),
		entHolding(21, "furnace", 1, 5, nil),
	)
	loadWaiting(t, w, 1, Stack{Resource: 1, Amount: 1})
	loadWaiting(t, w, 2, Stack{Resource: 6, Amount: 1}) // circuits are not a furnace input

	w.StepLogic()

	for _, id := range []EntityID{1, 2} {
		if tr := mustTransporter(t, w, id); tr.Status != TransporterWaiting {
			t.Fatalf("belt %d status=%s want waiting", id, tr.Status)
		}
	}
}

func TestTransfer_StorageLimits(t *testing.T) {
	w := newTestWorld(t)
	w.cfg.StorageSlotCap = 2
	place(t, w,
		ent(1, "belt", 0, 0, Right),
		entHolding(20, "chest", 1, 0, map[int]int{1: 50, 2: 1}),
	)
	chest := mustProducer(t, w, 20)

	cases := []struct {
		s    Stack
		want Acceptance
	}{
		{Stack{Resource: 1, Amount: 1}, AcceptNo},  // at max_stack
		{Stack{Resource: 2, Amount: 1}, AcceptYes}, // existing kind
		{Stack{Resource: 3, Amount: 1}, AcceptNo},  // no free slot
	}
	for _, c := range cases {
		if got := chest.accept(w, c.s); got != c.want {
			t.Fatalf("accept(%+v)=%s want %s", c.s, got, c.want)
		}
	}

	loadWaiting(t, w, 1, Stack{Resource: 2, Amount: 1})
	w.StepLogic()
	if chest.Held[2] != 2 {
		t.Fatalf("chest held=%v want copper_ore 2", chest.Held)
	}
}

func TestTransfer_LoopConservesResources(t *testing.T) {
	w := newTestWorld(t)
	place(t, w,
		ent(1, "belt", 0, 0, Right),
		ent(2, "fast_belt", 1, 0, Down),
		ent(3, "belt", 1, 1, Left),
		ent(4, "belt", 0, 1, Up),
		ent(5, "belt", -1, 0, Right),
		ent(6, "belt", -2, 0, Right),
	)
	for _, id := range []EntityID{1, 3, 5, 6} {
		mustTransporter(t, w, id).receive(w, Stack{Resource: int(id), Amount: 2}, Right)
	}
	before := w.TotalResources()

	for i := 0; i < 40; i++ {
		runTicks(w, w.Config().LogicIntervalTicks)
		if after := w.TotalResources(); !sameTotals(before, after) {
			t.Fatalf("pass %d: totals changed: before=%v after=%v", i, before, after)
		}
	}
}

func TestSortedKeys_Ascending(t *testing.T) {
	m := map[EntityID][]EntityID{42: nil, 7: nil, 19: {1}, 3: nil}
	got := sortedKeys(m)
	want := []EntityID{3, 7, 19, 42}
	if len(got) != len(want) {
		t.Fatalf("keys=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys=%v want %v", got, want)
		}
	}
}
