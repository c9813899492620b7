package world

// craftTicks scales a recipe's base duration by the unit's throughput,
// rounding up: duration 60 at power 100 is 60, at power 200 it is 30.
func craftTicks(duration, power int) int {
	if power <= 0 {
		power = 100
	}
	n := (duration*100 + power - 1) / power
	if n < 1 {
		n = 1
	}
	return n
}

// tryStartCraft selects the first satisfiable recipe in declared order and
// starts it. It is a no-op while a craft is running.
func (w *World) tryStartCraft(p *ProductionUnit) bool {
	if p == nil || p.crafting() {
		return false
	}
	for _, rid := range p.Recipes {
		r, ok := w.cats.Recipes.ByID[rid]
		if !ok {
			w.logf("unit %d: skip unknown recipe %d", p.ID, rid)
			continue
		}
		if p.Held[r.Output.Resource]+r.Output.Amount > w.cfg.OutputCap {
			continue
		}
		satisfied := true
		for _, in := range r.Inputs {
			if p.Held[in.Resource] < in.Amount {
				satisfied = false
				break
			}
		}
		if !satisfied {
			continue
		}
		for _, in := range r.Inputs {
			p.sub(in.Resource, in.Amount)
		}
		p.ActiveRecipe = rid
		p.TicksRemaining = craftTicks(r.DurationTicks, p.Power)
		w.markDirty()
		return true
	}
	return false
}

// startAllCrafts is the world-load pass over every production unit.
func (w *World) startAllCrafts() {
	for _, id := range w.producerIDs {
		p, _ := w.producers.Get(id)
		w.guard(id, "craft-start", func() { w.tryStartCraft(p) })
	}
}

// advanceCrafting counts every running craft down by one logic tick and
// completes the ones that reach zero.
func (w *World) advanceCrafting() {
	for _, id := range w.producerIDs {
		p, _ := w.producers.Get(id)
		if !p.crafting() {
			continue
		}
		w.guard(id, "craft", func() { w.advanceCraft(p) })
	}
}

func (w *World) advanceCraft(p *ProductionUnit) {
	p.TicksRemaining--
	w.markDirty()
	if p.TicksRemaining > 0 {
		return
	}
	r, ok := w.cats.Recipes.ByID[p.ActiveRecipe]
	if !ok {
		w.logf("unit %d: active recipe %d vanished; dropping craft", p.ID, p.ActiveRecipe)
	} else {
		p.add(r.Output.Resource, r.Output.Amount)
	}
	p.ActiveRecipe = 0
	p.TicksRemaining = 0
	w.tryStartCraft(p)
}

// CraftingInputs sums the recipe inputs consumed by crafts still running.
// Together with TotalResources it accounts for every resource in the world.
func (w *World) CraftingInputs() map[int]int {
	out := map[int]int{}
	for _, id := range w.producerIDs {
		p, _ := w.producers.Get(id)
		if !p.crafting() {
			continue
		}
		r, ok := w.cats.Recipes.ByID[p.ActiveRecipe]
		if !ok {
			continue
		}
		for _, in := range r.Inputs {
			out[in.Resource] += in.Amount
		}
	}
	return out
}
