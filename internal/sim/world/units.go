package world

import "beltworks.ai/internal/sim/spatial"

// Transporter is a belt segment carrying at most one stack from entry
// (Position 0) to exit (Position 1).
type Transporter struct {
	ID    EntityID
	Pos   Tile
	Dir   Direction
	Power int

	Status        TransporterStatus
	Stack         Stack
	Position      float64
	LateralOffset float64

	// Links, rebuilt by resolveLinks.
	Target   EntityID
	Sources  []EntityID // ascending entity id
	Straight EntityID

	// sideCursor rotates over the non-straight sources for fair pulls.
	sideCursor int
}

func newTransporter(e Entity, power int) *Transporter {
	return &Transporter{
		ID:     e.ID,
		Pos:    e.Pos,
		Dir:    e.Dir,
		Power:  power,
		Status: TransporterEmpty,
	}
}

func (t *Transporter) reset() {
	t.Status = TransporterEmpty
	t.Stack = Stack{}
	t.Position = 0
	t.LateralOffset = 0
	t.sideCursor = 0
}

func (t *Transporter) clear() {
	t.Status = TransporterEmpty
	t.Stack = Stack{}
	t.Position = 0
	t.LateralOffset = 0
}

// Manipulator is an arm moving one stack per cycle from the cell Reach
// tiles behind it to the cell Reach tiles ahead. ArmPosition is 0 at the
// source, 0.5 at the pivot and 1 at the target.
type Manipulator struct {
	ID    EntityID
	Pos   Tile
	Dir   Direction
	Power int
	Reach int

	Status      ManipulatorStatus
	Stack       Stack
	ArmPosition float64

	SourceCell Tile
	TargetCell Tile
	Source     EntityID
	Target     EntityID
}

func newManipulator(e Entity, power, reach int) *Manipulator {
	m := &Manipulator{
		ID:    e.ID,
		Pos:   e.Pos,
		Dir:   e.Dir,
		Power: power,
		Reach: reach,
	}
	m.reset()
	return m
}

func (m *Manipulator) reset() {
	m.Status = ManipulatorIdle
	m.Stack = Stack{}
	m.ArmPosition = 0.5
}

// ProductionUnit is a building, extractor or storage container.
type ProductionUnit struct {
	ID        EntityID
	Pos       Tile
	Footprint spatial.Footprint
	Category  string
	Power     int

	Held    map[int]int
	Recipes []int
	Inputs  map[int]bool
	Outputs map[int]bool

	ActiveRecipe   int // 0 when idle
	TicksRemaining int

	rules productionRules
	// pending holds amounts promised to this unit during a transfer decision.
	pending map[int]int
}

func (p *ProductionUnit) crafting() bool { return p.ActiveRecipe != 0 }

func (p *ProductionUnit) add(resource, amount int) {
	if amount <= 0 {
		return
	}
	p.Held[resource] += amount
}

func (p *ProductionUnit) sub(resource, amount int) {
	p.Held[resource] -= amount
	if p.Held[resource] <= 0 {
		delete(p.Held, resource)
	}
}

func (p *ProductionUnit) seed(holdings map[int]int) {
	p.Held = make(map[int]int, len(holdings))
	for r, n := range holdings {
		if n > 0 {
			p.Held[r] = n
		}
	}
	p.ActiveRecipe = 0
	p.TicksRemaining = 0
}

// speed is the per-frame progress of a unit with the given throughput.
func (w *World) speed(power int) float64 {
	return (float64(power) / 100) / float64(w.cfg.TraversalTicks)
}
