package world

import (
	"beltworks.ai/internal/persistence/snapshot"
)

// ExportSnapshot captures every unit state. Lists are in ascending entity id.
// It must be called from the goroutine that ticks the world.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    w.tick,
		},
		Holdings:     make([]snapshot.HoldingV1, 0, len(w.producerIDs)),
		Transporters: make([]snapshot.TransporterV1, 0, len(w.transporterIDs)),
		Manipulators: make([]snapshot.ManipulatorV1, 0, len(w.manipulatorIDs)),
	}

	for _, id := range w.producerIDs {
		p, _ := w.producers.Get(id)
		res := make(map[int]int, len(p.Held))
		for r, n := range p.Held {
			if n > 0 {
				res[r] = n
			}
		}
		snap.Holdings = append(snap.Holdings, snapshot.HoldingV1{EntityID: uint64(id), Resources: res})
		if p.crafting() {
			snap.Crafting = append(snap.Crafting, snapshot.CraftingV1{
				EntityID:       uint64(id),
				RecipeID:       p.ActiveRecipe,
				TicksRemaining: p.TicksRemaining,
			})
		}
	}

	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		snap.Transporters = append(snap.Transporters, snapshot.TransporterV1{
			EntityID:      uint64(id),
			Status:        string(t.Status),
			Resource:      t.Stack.Resource,
			Amount:        t.Stack.Amount,
			Position:      t.Position,
			LateralOffset: t.LateralOffset,
			SideCursor:    t.sideCursor,
		})
	}

	for _, id := range w.manipulatorIDs {
		m, _ := w.manipulators.Get(id)
		snap.Manipulators = append(snap.Manipulators, snapshot.ManipulatorV1{
			EntityID:    uint64(id),
			Status:      string(m.Status),
			Resource:    m.Stack.Resource,
			Amount:      m.Stack.Amount,
			ArmPosition: m.ArmPosition,
		})
	}
	return snap
}
