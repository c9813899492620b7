package world

import (
	"encoding/json"

	"beltworks.ai/internal/observerproto"
)

// ObserverJoinRequest registers a read-only observer session that receives a
// JSON frame after every logic pass (or every EveryN-th one).
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	Out       chan []byte
	EveryN    int
}

type observerSession struct {
	out    chan []byte
	everyN int
	passes uint64
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string             { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	if old, ok := w.observers[req.SessionID]; ok {
		close(old.out)
	}
	n := req.EveryN
	if n < 1 {
		n = 1
	}
	w.observers[req.SessionID] = observerSession{out: req.Out, everyN: n}
}

func (w *World) handleObserverLeave(id string) {
	if s, ok := w.observers[id]; ok {
		close(s.out)
		delete(w.observers, id)
	}
}

// publishObserverFrame sends the current frame to every observer without
// blocking the tick; slow observers only ever see the latest frame.
func (w *World) publishObserverFrame() {
	if len(w.observers) == 0 {
		return
	}
	var b []byte
	for id, s := range w.observers {
		s.passes++
		w.observers[id] = s
		if (s.passes-1)%uint64(s.everyN) != 0 {
			continue
		}
		if b == nil {
			var err error
			b, err = json.Marshal(w.BuildFrame())
			if err != nil {
				w.logf("observer frame: %v", err)
				return
			}
		}
		sendLatest(s.out, b)
	}
}

// BuildFrame renders the public unit state in ascending entity id.
func (w *World) BuildFrame() observerproto.FrameMsg {
	f := observerproto.FrameMsg{
		Type:            "FRAME",
		ProtocolVersion: observerproto.Version,
		WorldID:         w.cfg.ID,
		Tick:            w.tick,
		Transporters:    make([]observerproto.TransporterState, 0, len(w.transporterIDs)),
		Manipulators:    make([]observerproto.ManipulatorState, 0, len(w.manipulatorIDs)),
		Producers:       make([]observerproto.ProducerState, 0, len(w.producerIDs)),
	}
	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		f.Transporters = append(f.Transporters, observerproto.TransporterState{
			ID:            uint64(id),
			Pos:           [2]int{t.Pos.X, t.Pos.Y},
			Dir:           t.Dir.String(),
			Status:        string(t.Status),
			Stack:         protoStack(t.Stack),
			Position:      t.Position,
			LateralOffset: t.LateralOffset,
		})
	}
	for _, id := range w.manipulatorIDs {
		m, _ := w.manipulators.Get(id)
		f.Manipulators = append(f.Manipulators, observerproto.ManipulatorState{
			ID:          uint64(id),
			Pos:         [2]int{m.Pos.X, m.Pos.Y},
			Dir:         m.Dir.String(),
			Status:      string(m.Status),
			Stack:       protoStack(m.Stack),
			ArmPosition: m.ArmPosition,
		})
	}
	for _, id := range w.producerIDs {
		p, _ := w.producers.Get(id)
		ps := observerproto.ProducerState{
			ID:       uint64(id),
			Pos:      [2]int{p.Pos.X, p.Pos.Y},
			Category: p.Category,
			Held:     make(map[int]int, len(p.Held)),
		}
		for r, n := range p.Held {
			ps.Held[r] = n
		}
		if cp, ok := w.CraftingProgress(id); ok {
			ps.Crafting = &observerproto.Crafting{
				RecipeID:       cp.RecipeID,
				Fraction:       cp.Fraction,
				TicksRemaining: cp.TicksRemaining,
			}
		}
		f.Producers = append(f.Producers, ps)
	}
	return f
}

func protoStack(s Stack) *observerproto.Stack {
	if s.Empty() {
		return nil
	}
	return &observerproto.Stack{Resource: s.Resource, Amount: s.Amount}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
