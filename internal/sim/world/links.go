package world

// resolveLinks rebuilds the whole flow graph from positions, orientations
// and reach. Iteration is by ascending entity id, so "first found wins"
// for straight sources is deterministic. Missing neighbours leave links at 0.
func (w *World) resolveLinks() {
	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		t.Target = 0
		t.Sources = t.Sources[:0]
		t.Straight = 0
	}

	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		if target, ok := w.index.IDAt(t.Dir.Step(t.Pos, 1)); ok && target != t.ID {
			t.Target = target
		}
	}

	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		if t.Target == 0 {
			continue
		}
		dst, ok := w.transporters.Get(t.Target)
		if !ok {
			continue
		}
		dst.Sources = append(dst.Sources, t.ID)
		if dst.Straight == 0 && dst.Dir == t.Dir {
			dst.Straight = t.ID
		}
	}

	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		if side := len(t.Sources) - boolInt(t.Straight != 0); side > 0 {
			t.sideCursor %= side
		} else {
			t.sideCursor = 0
		}
	}

	for _, id := range w.manipulatorIDs {
		m, _ := w.manipulators.Get(id)
		m.SourceCell = m.Dir.Opposite().Step(m.Pos, m.Reach)
		m.TargetCell = m.Dir.Step(m.Pos, m.Reach)
		m.Source, m.Target = 0, 0
		if src, ok := w.index.IDAt(m.SourceCell); ok && src != m.ID {
			m.Source = src
		}
		if dst, ok := w.index.IDAt(m.TargetCell); ok && dst != m.ID {
			m.Target = dst
		}
	}
}

// sideSources lists incoming sources other than the straight one, in id order.
func (t *Transporter) sideSources() []EntityID {
	out := make([]EntityID, 0, len(t.Sources))
	for _, id := range t.Sources {
		if id != t.Straight {
			out = append(out, id)
		}
	}
	return out
}

// pickSource chooses which incoming source may fill t: the straight source
// if eligible, otherwise the next eligible side source in round-robin order.
// The side cursor only advances when a side source is chosen.
func (w *World) pickSource(t *Transporter, eligible func(src *Transporter) bool) *Transporter {
	if t.Straight != 0 {
		if s, ok := w.transporters.Get(t.Straight); ok && eligible(s) {
			return s
		}
	}
	side := t.sideSources()
	for k := 0; k < len(side); k++ {
		idx := (t.sideCursor + k) % len(side)
		s, ok := w.transporters.Get(side[idx])
		if !ok || !eligible(s) {
			continue
		}
		t.sideCursor = (idx + 1) % len(side)
		return s
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
