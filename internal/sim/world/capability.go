package world

import (
	"sort"

	"beltworks.ai/internal/sim/catalogs"
)

// unit is what the transfer and manipulator passes need from any endpoint.
type unit interface {
	unitID() EntityID
	// accept answers whether s could be handed to this unit now.
	accept(w *World, s Stack) Acceptance
	// offer is the stack a manipulator would pick up.
	offer(w *World) (Stack, bool)
	take(w *World, s Stack)
	// receive fills the unit; from is the orientation of the handing unit.
	receive(w *World, s Stack, from Direction)
}

func (w *World) unit(id EntityID) unit {
	if id == 0 {
		return nil
	}
	if t, ok := w.transporters.Get(id); ok {
		return t
	}
	if m, ok := w.manipulators.Get(id); ok {
		return m
	}
	if p, ok := w.producers.Get(id); ok {
		return p
	}
	return nil
}

// --- Transporter ---

func (t *Transporter) unitID() EntityID { return t.ID }

func (t *Transporter) accept(_ *World, s Stack) Acceptance {
	if s.Empty() {
		return AcceptNo
	}
	switch t.Status {
	case TransporterEmpty:
		return AcceptYes
	case TransporterWaiting:
		return AcceptIfFreed
	}
	return AcceptNo
}

func (t *Transporter) offer(_ *World) (Stack, bool) {
	if t.Status == TransporterEmpty || t.Stack.Empty() {
		return Stack{}, false
	}
	return t.Stack, true
}

func (t *Transporter) take(w *World, _ Stack) {
	t.clear()
	w.markDirty()
}

func (t *Transporter) receive(w *World, s Stack, from Direction) {
	t.Stack = s
	t.Status = TransporterCarrying
	// Only a same-orientation entry starts at the belt's start. Side and
	// head-on entries land mid-belt; head-on entries have no lateral offset.
	if from == t.Dir {
		t.Position = 0
		t.LateralOffset = 0
	} else {
		t.Position = 0.5
		t.LateralOffset = lateralOffsets[[2]Direction{from, t.Dir}]
	}
	w.markDirty()
}

// --- Manipulator ---

func (m *Manipulator) unitID() EntityID { return m.ID }

func (m *Manipulator) accept(_ *World, s Stack) Acceptance {
	if s.Empty() || m.Status != ManipulatorIdle || !m.Stack.Empty() {
		return AcceptNo
	}
	return AcceptYes
}

// Manipulators never hand to each other's pick phase.
func (m *Manipulator) offer(_ *World) (Stack, bool) { return Stack{}, false }

func (m *Manipulator) take(_ *World, _ Stack) {}

func (m *Manipulator) receive(w *World, s Stack, _ Direction) {
	m.Stack = s
	m.Status = ManipulatorCarrying
	w.markDirty()
}

// --- Production unit ---

// productionRules holds the category-specific accept/give policy.
type productionRules interface {
	accepts(w *World, p *ProductionUnit, s Stack) bool
	// give picks the resource offered to manipulators.
	give(w *World, p *ProductionUnit) (resource int, ok bool)
}

func rulesFor(category string) productionRules {
	switch category {
	case catalogs.CategoryMining:
		return miningRules{}
	case catalogs.CategoryStorage:
		return storageRules{}
	default:
		return buildingRules{}
	}
}

func (p *ProductionUnit) unitID() EntityID { return p.ID }

func (p *ProductionUnit) accept(w *World, s Stack) Acceptance {
	if s.Empty() || !p.rules.accepts(w, p, s) {
		return AcceptNo
	}
	return AcceptYes
}

func (p *ProductionUnit) offer(w *World) (Stack, bool) {
	r, ok := p.rules.give(w, p)
	if !ok {
		return Stack{}, false
	}
	n := p.Held[r]
	if n > w.cfg.ArmStackSize {
		n = w.cfg.ArmStackSize
	}
	return Stack{Resource: r, Amount: n}, true
}

func (p *ProductionUnit) take(w *World, s Stack) {
	p.sub(s.Resource, s.Amount)
	w.markDirty()
	// Freed output room may unblock a craft.
	w.tryStartCraft(p)
}

func (p *ProductionUnit) receive(w *World, s Stack, _ Direction) {
	p.add(s.Resource, s.Amount)
	w.markDirty()
	w.tryStartCraft(p)
}

// committed is held plus amounts promised earlier in the same transfer batch.
func (p *ProductionUnit) committed(resource int) int {
	return p.Held[resource] + p.pending[resource]
}

func lowestHeld(p *ProductionUnit, allow func(resource int) bool) (int, bool) {
	ids := make([]int, 0, len(p.Held))
	for r, n := range p.Held {
		if n > 0 && allow(r) {
			ids = append(ids, r)
		}
	}
	if len(ids) == 0 {
		return 0, false
	}
	sort.Ints(ids)
	return ids[0], true
}

type buildingRules struct{}

func (buildingRules) accepts(w *World, p *ProductionUnit, s Stack) bool {
	if !p.Inputs[s.Resource] {
		return false
	}
	return p.committed(s.Resource)+s.Amount <= w.cfg.InputCap
}

// Buildings only give their recipe outputs.
func (buildingRules) give(_ *World, p *ProductionUnit) (int, bool) {
	return lowestHeld(p, func(r int) bool { return p.Outputs[r] })
}

type miningRules struct{}

func (miningRules) accepts(*World, *ProductionUnit, Stack) bool { return false }

func (miningRules) give(w *World, p *ProductionUnit) (int, bool) {
	return lowestHeld(p, func(r int) bool {
		def, ok := w.cats.Resources.ByID[r]
		return ok && !def.Deposit
	})
}

type storageRules struct{}

func (storageRules) accepts(w *World, p *ProductionUnit, s Stack) bool {
	def, ok := w.cats.Resources.ByID[s.Resource]
	if !ok {
		w.logf("unit %d: unknown resource %d offered to storage", p.ID, s.Resource)
		return false
	}
	have := p.committed(s.Resource)
	if have+s.Amount > def.MaxStack {
		return false
	}
	if have > 0 {
		return true
	}
	kinds := 0
	for r := range p.Held {
		if p.committed(r) > 0 {
			kinds++
		}
	}
	for r, n := range p.pending {
		if n > 0 && p.Held[r] <= 0 {
			kinds++
		}
	}
	return kinds < w.cfg.StorageSlotCap
}

func (storageRules) give(_ *World, p *ProductionUnit) (int, bool) {
	return lowestHeld(p, func(int) bool { return true })
}
