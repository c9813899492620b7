package world

import "sort"

// transferEntry is one decided hand-off in a logic-pass batch.
type transferEntry struct {
	src   EntityID
	dst   EntityID
	stack Stack
	dir   Direction
}

// resolveTransfers runs the transporter hand-off batch:
//
//  1. every waiting transporter with a target asks it yes / no / yes_if_freed
//     (answers come from the pre-batch state, never from partial results);
//  2. yes answers are arbitrated so each target admits what it can hold, and
//     closed loops of yes_if_freed rotate as a whole;
//  3. decided hand-offs are collected;
//  4. every source is cleared;
//  5. then every target is filled;
//  6. transporters left empty pull from their own waiting sources, straight
//     first and side sources round-robin, recursively up each belt line.
//
// A transporter whose target keeps refusing simply stays waiting.
func (w *World) resolveTransfers() {
	// Step 1: acceptance query.
	answers := make(map[EntityID]Acceptance)
	byTarget := make(map[EntityID][]EntityID)
	var waiting []EntityID
	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		if t.Status != TransporterWaiting || t.Target == 0 {
			continue
		}
		dst := w.unit(t.Target)
		if dst == nil {
			continue
		}
		a := dst.accept(w, t.Stack)
		answers[id] = a
		if a != AcceptNo {
			waiting = append(waiting, id)
			byTarget[t.Target] = append(byTarget[t.Target], id)
		}
	}
	if len(waiting) == 0 {
		return
	}

	// Step 2: decide.
	will := w.decideTransfers(answers, byTarget, waiting)

	// Step 3: collect.
	var batch []transferEntry
	for _, id := range waiting {
		if !will[id] {
			continue
		}
		t, _ := w.transporters.Get(id)
		batch = append(batch, transferEntry{src: id, dst: t.Target, stack: t.Stack, dir: t.Dir})
	}
	if len(batch) == 0 {
		return
	}

	// Step 4: clear every source before any target is filled.
	freed := make([]EntityID, 0, len(batch))
	for _, e := range batch {
		t, _ := w.transporters.Get(e.src)
		t.clear()
		freed = append(freed, e.src)
	}
	w.markDirty()

	// Step 5: fill targets.
	for _, e := range batch {
		e := e
		w.guard(e.dst, "transfer-fill", func() {
			if dst := w.unit(e.dst); dst != nil {
				dst.receive(w, e.stack, e.dir)
			}
		})
	}

	// Step 6: pull-through.
	for _, id := range freed {
		t, _ := w.transporters.Get(id)
		if t.Status == TransporterEmpty {
			w.pullThrough(t)
		}
	}
}

// decideTransfers computes willTransfer for every candidate source.
func (w *World) decideTransfers(answers map[EntityID]Acceptance, byTarget map[EntityID][]EntityID, waiting []EntityID) map[EntityID]bool {
	will := make(map[EntityID]bool, len(waiting))

	// Direct acceptances: one source per transporter/manipulator target,
	// capacity-bounded for production units.
	for _, target := range sortedKeys(byTarget) {
		srcs := byTarget[target]
		yes := make(map[EntityID]bool, len(srcs))
		for _, id := range srcs {
			if answers[id] == AcceptYes {
				yes[id] = true
			}
		}
		if len(yes) == 0 {
			continue
		}
		switch dst := w.unit(target).(type) {
		case *Transporter:
			if src := w.pickSource(dst, func(s *Transporter) bool { return yes[s.ID] }); src != nil {
				will[src.ID] = true
			}
		case *ProductionUnit:
			dst.pending = map[int]int{}
			for _, id := range srcs {
				if !yes[id] {
					continue
				}
				t, _ := w.transporters.Get(id)
				if dst.accept(w, t.Stack) == AcceptYes {
					dst.pending[t.Stack.Resource] += t.Stack.Amount
					will[id] = true
				}
			}
			dst.pending = nil
		default:
			// Manipulators (and anything else single-slot): lowest id wins.
			for _, id := range srcs {
				if yes[id] {
					will[id] = true
					break
				}
			}
		}
	}

	// Closed loops where every member answered yes_if_freed: the whole loop
	// rotates, each member refilled by its predecessor. Open chains are left
	// to pull-through so a target is never claimed twice.
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[EntityID]int, len(waiting))
	for _, start := range waiting {
		if state[start] != unvisited {
			continue
		}
		var path []EntityID
		cur := start
		for {
			if answers[cur] != AcceptIfFreed || state[cur] == done {
				break
			}
			if state[cur] == onPath {
				for i := len(path) - 1; i >= 0; i-- {
					will[path[i]] = true
					if path[i] == cur {
						break
					}
				}
				break
			}
			state[cur] = onPath
			path = append(path, cur)
			t, _ := w.transporters.Get(cur)
			cur = t.Target
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return will
}

// pullThrough refills an emptied transporter from its waiting sources and
// walks up the line. Each unit is freed at most once per batch because a
// refilled unit is carrying, never waiting.
func (w *World) pullThrough(t *Transporter) {
	for t != nil && t.Status == TransporterEmpty {
		dst := t
		src := w.pickSource(dst, func(s *Transporter) bool {
			return s.Status == TransporterWaiting && s.Target == dst.ID && !s.Stack.Empty()
		})
		if src == nil {
			return
		}
		stack, dir := src.Stack, src.Dir
		src.clear()
		dst.receive(w, stack, dir)
		t = src
	}
}

func sortedKeys(m map[EntityID][]EntityID) []EntityID {
	keys := make([]EntityID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
