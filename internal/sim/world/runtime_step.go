package world

import (
	"fmt"
	"runtime/debug"
)

// Tick advances one frame: the animation pass always runs, the logic pass
// runs on every LogicIntervalTicks-th frame. It reports whether the logic
// pass ran.
func (w *World) Tick() bool {
	w.tick++
	w.animate()
	if w.tick%uint64(w.cfg.LogicIntervalTicks) != 0 {
		return false
	}
	w.logicPass()
	return true
}

// StepLogic runs one logic pass without animating; tests use it to drive
// decisions from hand-set positions.
func (w *World) StepLogic() { w.logicPass() }

func (w *World) animate() {
	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		if t.Status == TransporterEmpty {
			continue
		}
		v := w.speed(t.Power)
		if t.LateralOffset != 0 {
			t.LateralOffset = approach(t.LateralOffset, 0, v)
			continue
		}
		if t.Position < 1 {
			t.Position = approach(t.Position, 1, v)
		}
	}
	for _, id := range w.manipulatorIDs {
		m, _ := w.manipulators.Get(id)
		v := w.speed(m.Power)
		switch m.Status {
		case ManipulatorPicking:
			m.ArmPosition = approach(m.ArmPosition, 0, v)
		case ManipulatorCarrying:
			m.ArmPosition = approach(m.ArmPosition, 1, v)
		}
	}
}

func (w *World) logicPass() {
	w.advanceCrafting()

	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		if t.Status == TransporterCarrying && t.Position >= 1-epsilon {
			t.Position = 1
			t.Status = TransporterWaiting
			w.markDirty()
		}
	}

	w.guard(0, "transfer", w.resolveTransfers)

	for _, id := range w.manipulatorIDs {
		m, _ := w.manipulators.Get(id)
		w.guard(id, "manipulator", func() { w.stepManipulator(m) })
	}

	w.publishObserverFrame()
}

// guard isolates one unit's step: a panic is logged and the batch continues.
func (w *World) guard(id EntityID, phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logf("tick %d %s unit=%d: recovered: %v\n%s", w.tick, phase, id, fmt.Sprint(r), debug.Stack())
		}
	}()
	fn()
}

// approach moves v toward target by at most step, snapping within epsilon.
func approach(v, target, step float64) float64 {
	switch {
	case v < target:
		v += step
		if v >= target-epsilon {
			v = target
		}
	case v > target:
		v -= step
		if v <= target+epsilon {
			v = target
		}
	}
	return v
}
