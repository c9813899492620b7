package world

import (
	"testing"

	"beltworks.ai/internal/sim/layout"
)

func TestLayoutEntities_StarterFactory(t *testing.T) {
	l, err := layout.Load("../../../configs/layout.yaml")
	if err != nil {
		t.Fatalf("load layout: %v", err)
	}
	ents, err := LayoutEntities(l)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(ents) != len(l.Entities) {
		t.Fatalf("got %d entities want %d", len(ents), len(l.Entities))
	}
	for i, e := range ents {
		if uint64(e.ID) != l.Entities[i].ID || e.Type != l.Entities[i].Type {
			t.Fatalf("entity %d: %+v vs %+v", i, e, l.Entities[i])
		}
	}

	w := newTestWorld(t)
	place(t, w, ents...)
	if got := mustProducer(t, w, 8).Held[9]; got != 40 {
		t.Fatalf("chest holds %d coal want 40", got)
	}
	if got := mustTransporter(t, w, 4).Straight; got != 3 {
		t.Fatalf("belt 4 straight=%d want 3", got)
	}
	if got := mustTransporter(t, w, 3).Straight; got != 0 {
		t.Fatalf("belt 3 straight=%d want 0, it is fed by arm 2", got)
	}
}

func TestLayoutEntities_Directions(t *testing.T) {
	bad := layout.Layout{Entities: []layout.Entity{{ID: 1, Type: "belt", Dir: "sideways"}}}
	if _, err := LayoutEntities(bad); err == nil {
		t.Fatalf("expected error for bad direction")
	}

	l := layout.Layout{Entities: []layout.Entity{{ID: 1, Type: "belt"}, {ID: 2, Type: "belt", Dir: "up"}}}
	ents, err := LayoutEntities(l)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if ents[0].Dir != Right || ents[1].Dir != Up {
		t.Fatalf("dirs=%v,%v", ents[0].Dir, ents[1].Dir)
	}
}
