package worldtest

import (
	"reflect"
	"testing"

	"beltworks.ai/internal/sim/catalogs"
	"beltworks.ai/internal/sim/tuning"
	world "beltworks.ai/internal/sim/world"
)

const layoutPath = "../../../configs/layout.yaml"

func starterHarness(t *testing.T) *Harness {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return NewLayoutHarness(t, world.ConfigFromTuning("world_1", tuning.Defaults()), cats, layoutPath)
}

func TestStarterFactory_SmeltsAndConserves(t *testing.T) {
	h := starterHarness(t)
	deposit, ore, plate, coal := h.ResourceID("iron_deposit"), h.ResourceID("iron_ore"), h.ResourceID("iron_plate"), h.ResourceID("coal")

	for i := 0; i < 50; i++ {
		h.StepFrames(300)
		tot := h.Resources()
		if got := tot[deposit] + tot[ore] + tot[plate]; got != 500 {
			t.Fatalf("frame %d: iron not conserved: %v", h.W.CurrentTick(), tot)
		}
		if got := tot[coal] + tot[plate]; got != 40 {
			t.Fatalf("frame %d: coal not conserved: %v", h.W.CurrentTick(), tot)
		}
	}

	if got := h.Producer(7).Held[plate]; got < 2 {
		t.Fatalf("furnace made %d plates after %d frames", got, h.W.CurrentTick())
	}
	if got := h.Producer(8).Held[coal]; got >= 40 {
		t.Fatalf("coal never left the chest")
	}
	if h.Log.Len() != 0 {
		t.Fatalf("unexpected warnings:\n%s", h.Log.String())
	}
}

func TestStarterFactory_ReloadMatchesUninterruptedRun(t *testing.T) {
	a := starterHarness(t)
	a.StepFrames(2345)
	b := a.Reload()

	a.StepFrames(3000)
	b.StepFrames(3000)
	if !reflect.DeepEqual(a.W.ExportSnapshot(), b.W.ExportSnapshot()) {
		t.Fatalf("reloaded world diverged")
	}
}

func TestStarterFactory_BrokenLineBacksUp(t *testing.T) {
	h := starterHarness(t)
	plate := h.ResourceID("iron_plate")

	h.W.OnEntityRemoved(5)
	h.StepFrames(9000)

	up := h.Transporter(4)
	if up.Target != 0 {
		t.Fatalf("belt 4 still targets %d", up.Target)
	}
	if up.Status != world.TransporterWaiting {
		t.Fatalf("belt 4 status=%s want waiting", up.Status)
	}
	if got := h.Producer(7).Held[plate]; got != 0 {
		t.Fatalf("furnace made %d plates without ore", got)
	}
	if h.W.UnitState(5) != nil {
		t.Fatalf("removed belt still has state")
	}
}
