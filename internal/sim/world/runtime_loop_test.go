package world

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"beltworks.ai/internal/observerproto"
	"beltworks.ai/internal/sim/catalogs"
)

func TestRun_TicksAutosavesAndStreamsFrames(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	w, err := New(WorldConfig{
		ID:                 "run",
		TickRateHz:         600,
		LogicIntervalTicks: 6,
		AutosaveInterval:   20 * time.Millisecond,
	}, cats, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	place(t, w, smallFactory()...)
	store := &fakeStore{}
	w.SetSnapshotStore(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	out := make(chan []byte, 4)
	w.ObserverJoin() <- ObserverJoinRequest{SessionID: "o1", Out: out}

	select {
	case b := <-out:
		var f observerproto.FrameMsg
		if err := json.Unmarshal(b, &f); err != nil {
			t.Fatalf("frame: %v", err)
		}
		if f.Type != "FRAME" || f.WorldID != "run" || len(f.Transporters) != 3 || len(f.Producers) != 2 {
			t.Fatalf("frame=%+v", f)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no observer frame")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, saved := store.counts(); saved > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no autosave happened")
		}
		time.Sleep(10 * time.Millisecond)
	}

	w.ObserverLeave() <- "o1"
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("run returned %v", err)
	}
	if w.CurrentTick() == 0 {
		t.Fatalf("world never ticked")
	}
}

func TestObserver_EveryNAndLeave(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, ent(1, "belt", 0, 0, Right))
	out := make(chan []byte, 8)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "o1", Out: out, EveryN: 2})

	for i := 0; i < 4; i++ {
		w.StepLogic()
	}
	if len(out) != 2 {
		t.Fatalf("frames=%d want 2", len(out))
	}

	w.handleObserverLeave("o1")
	for range out {
	}
	w.StepLogic()
	if len(w.observers) != 0 {
		t.Fatalf("observer still registered")
	}
}

func TestObserver_SlowReaderGetsLatestFrame(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, ent(1, "belt", 0, 0, Right))
	out := make(chan []byte, 1)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "o1", Out: out})

	w.tick = 10
	w.StepLogic()
	w.tick = 20
	w.StepLogic()

	var f observerproto.FrameMsg
	if err := json.Unmarshal(<-out, &f); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if f.Tick != 20 {
		t.Fatalf("tick=%d want latest 20", f.Tick)
	}
}
