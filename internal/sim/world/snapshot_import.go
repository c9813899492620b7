package world

import (
	"fmt"

	"beltworks.ai/internal/persistence/snapshot"
)

// ImportSnapshot resets every unit to its initial state and applies the
// saved per-unit fields on top. Entries for entities that no longer exist
// are logged and skipped. The world tick resumes from the snapshot tick.
//
// This must be called only when the world is stopped or from the world loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}
	if s.Header.WorldID != "" && w.cfg.ID != "" && s.Header.WorldID != w.cfg.ID {
		return fmt.Errorf("snapshot world mismatch: cfg=%s snap=%s", w.cfg.ID, s.Header.WorldID)
	}

	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		t.reset()
	}
	for _, id := range w.manipulatorIDs {
		m, _ := w.manipulators.Get(id)
		m.reset()
	}
	for _, id := range w.producerIDs {
		p, _ := w.producers.Get(id)
		p.seed(w.entities[id].Holdings)
	}

	for _, h := range s.Holdings {
		p, ok := w.producers.Get(EntityID(h.EntityID))
		if !ok {
			w.logf("snapshot: holdings for unknown production unit %d", h.EntityID)
			continue
		}
		p.seed(h.Resources)
	}
	for _, c := range s.Crafting {
		p, ok := w.producers.Get(EntityID(c.EntityID))
		if !ok {
			w.logf("snapshot: crafting for unknown production unit %d", c.EntityID)
			continue
		}
		if _, ok := w.cats.Recipes.ByID[c.RecipeID]; !ok {
			w.logf("snapshot: unit %d: unknown recipe %d", c.EntityID, c.RecipeID)
			continue
		}
		p.ActiveRecipe = c.RecipeID
		p.TicksRemaining = c.TicksRemaining
		if p.TicksRemaining < 1 {
			p.TicksRemaining = 1
		}
	}
	for _, ts := range s.Transporters {
		t, ok := w.transporters.Get(EntityID(ts.EntityID))
		if !ok {
			w.logf("snapshot: unknown transporter %d", ts.EntityID)
			continue
		}
		st, err := parseTransporterStatus(ts.Status)
		if err != nil {
			w.logf("snapshot: transporter %d: %v", ts.EntityID, err)
			continue
		}
		t.Status = st
		t.Stack = Stack{Resource: ts.Resource, Amount: ts.Amount}
		t.Position = clamp01(ts.Position)
		t.LateralOffset = ts.LateralOffset
		t.sideCursor = ts.SideCursor
		if st == TransporterEmpty || t.Stack.Empty() {
			t.clear()
		}
	}
	for _, ms := range s.Manipulators {
		m, ok := w.manipulators.Get(EntityID(ms.EntityID))
		if !ok {
			w.logf("snapshot: unknown manipulator %d", ms.EntityID)
			continue
		}
		st, err := parseManipulatorStatus(ms.Status)
		if err != nil {
			w.logf("snapshot: manipulator %d: %v", ms.EntityID, err)
			continue
		}
		m.Status = st
		m.Stack = Stack{Resource: ms.Resource, Amount: ms.Amount}
		m.ArmPosition = clamp01(ms.ArmPosition)
		// Idle and picking arms hold nothing; carrying and placing arms hold a stack.
		// A held stack under an empty-handed status keeps the stack and carries it on.
		switch st {
		case ManipulatorIdle, ManipulatorPicking:
			if !m.Stack.Empty() {
				w.logf("snapshot: manipulator %d: %s with a held stack, resuming as carrying", ms.EntityID, st)
				m.Status = ManipulatorCarrying
			}
		case ManipulatorCarrying, ManipulatorPlacing:
			if m.Stack.Empty() {
				m.Status = ManipulatorIdle
				m.Stack = Stack{}
			}
		}
	}

	// Side cursors are only meaningful against the current link set.
	w.resolveLinks()
	w.tick = s.Header.Tick
	w.startAllCrafts()
	w.dirty = false
	return nil
}

func parseTransporterStatus(s string) (TransporterStatus, error) {
	switch st := TransporterStatus(s); st {
	case TransporterEmpty, TransporterCarrying, TransporterWaiting:
		return st, nil
	}
	return "", fmt.Errorf("unknown transporter status %q", s)
}

func parseManipulatorStatus(s string) (ManipulatorStatus, error) {
	switch st := ManipulatorStatus(s); st {
	case ManipulatorIdle, ManipulatorPicking, ManipulatorCarrying, ManipulatorPlacing:
		return st, nil
	}
	return "", fmt.Errorf("unknown manipulator status %q", s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
