package world

// stepManipulator advances one arm through
// idle -> picking -> carrying -> placing -> idle.
// Arm travel happens in the animation pass; this only reacts to it.
func (w *World) stepManipulator(m *Manipulator) {
	switch m.Status {
	case ManipulatorIdle:
		src := w.unit(m.Source)
		if src == nil {
			return
		}
		if _, ok := src.offer(w); ok {
			m.Status = ManipulatorPicking
			w.markDirty()
		}

	case ManipulatorPicking:
		if m.ArmPosition > epsilon {
			return
		}
		src := w.unit(m.Source)
		if src == nil {
			m.Status = ManipulatorIdle
			w.markDirty()
			return
		}
		s, ok := src.offer(w)
		if !ok {
			// Someone else emptied the source while the arm travelled.
			m.Status = ManipulatorIdle
			w.markDirty()
			return
		}
		src.take(w, s)
		m.Stack = s
		m.Status = ManipulatorCarrying
		w.markDirty()

	case ManipulatorCarrying:
		if m.ArmPosition < 1-epsilon {
			return
		}
		m.Status = ManipulatorPlacing
		w.markDirty()
		w.tryPlace(m)

	case ManipulatorPlacing:
		w.tryPlace(m)
	}
}

// tryPlace hands the held stack to the target if it accepts outright.
// A refusal leaves the arm in placing; it retries next logic pass.
func (w *World) tryPlace(m *Manipulator) {
	if m.Stack.Empty() {
		m.Status = ManipulatorIdle
		return
	}
	dst := w.unit(m.Target)
	if dst == nil {
		return
	}
	if dst.accept(w, m.Stack) != AcceptYes {
		return
	}
	s := m.Stack
	m.Stack = Stack{}
	m.Status = ManipulatorIdle
	dst.receive(w, s, m.Dir)
	w.markDirty()
}
