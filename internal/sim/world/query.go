package world

// CraftingProgress is the display view of a running craft.
type CraftingProgress struct {
	RecipeID       int
	Fraction       float64 // 0 at start, approaching 1 at completion
	TicksRemaining int
}

// CraftingProgress reports the running craft of a production unit, or false
// when the unit is idle or unknown.
func (w *World) CraftingProgress(id EntityID) (CraftingProgress, bool) {
	p, ok := w.producers.Get(id)
	if !ok || !p.crafting() {
		return CraftingProgress{}, false
	}
	out := CraftingProgress{RecipeID: p.ActiveRecipe, TicksRemaining: p.TicksRemaining}
	if r, ok := w.cats.Recipes.ByID[p.ActiveRecipe]; ok {
		if total := craftTicks(r.DurationTicks, p.Power); total > 0 {
			out.Fraction = float64(total-p.TicksRemaining) / float64(total)
		}
	}
	if out.Fraction < 0 {
		out.Fraction = 0
	}
	return out, true
}

// UnitState is a read-only copy of one unit, for rendering.
type UnitState interface {
	EntityID() EntityID
}

type TransporterState struct {
	ID            EntityID
	Pos           Tile
	Dir           Direction
	Status        TransporterStatus
	Stack         Stack
	Position      float64
	LateralOffset float64
	Target        EntityID
}

type ManipulatorState struct {
	ID          EntityID
	Pos         Tile
	Dir         Direction
	Status      ManipulatorStatus
	Stack       Stack
	ArmPosition float64
	Source      EntityID
	Target      EntityID
}

type ProductionState struct {
	ID       EntityID
	Pos      Tile
	Category string
	Held     map[int]int
	Crafting *CraftingProgress
}

func (s TransporterState) EntityID() EntityID { return s.ID }
func (s ManipulatorState) EntityID() EntityID { return s.ID }
func (s ProductionState) EntityID() EntityID  { return s.ID }

// UnitState returns a copy of the unit's state, or nil for unknown ids.
func (w *World) UnitState(id EntityID) UnitState {
	if t, ok := w.transporters.Get(id); ok {
		return TransporterState{
			ID:            t.ID,
			Pos:           t.Pos,
			Dir:           t.Dir,
			Status:        t.Status,
			Stack:         t.Stack,
			Position:      t.Position,
			LateralOffset: t.LateralOffset,
			Target:        t.Target,
		}
	}
	if m, ok := w.manipulators.Get(id); ok {
		return ManipulatorState{
			ID:          m.ID,
			Pos:         m.Pos,
			Dir:         m.Dir,
			Status:      m.Status,
			Stack:       m.Stack,
			ArmPosition: m.ArmPosition,
			Source:      m.Source,
			Target:      m.Target,
		}
	}
	if p, ok := w.producers.Get(id); ok {
		held := make(map[int]int, len(p.Held))
		for r, n := range p.Held {
			held[r] = n
		}
		st := ProductionState{ID: p.ID, Pos: p.Pos, Category: p.Category, Held: held}
		if cp, ok := w.CraftingProgress(id); ok {
			st.Crafting = &cp
		}
		return st
	}
	return nil
}
