package world

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/kamstrup/intmap"

	"beltworks.ai/internal/sim/catalogs"
	"beltworks.ai/internal/sim/spatial"
)

// World is one simulation context: it owns the spatial index and every
// unit-state arena. It is single-threaded; all mutation happens on the
// goroutine calling Tick (or Run).
type World struct {
	cfg  WorldConfig
	cats *catalogs.Catalogs
	log  *log.Logger

	tick uint64

	index    *spatial.Index
	entities map[EntityID]*placedEntity

	transporters *intmap.Map[EntityID, *Transporter]
	manipulators *intmap.Map[EntityID, *Manipulator]
	producers    *intmap.Map[EntityID, *ProductionUnit]

	// Ascending ids per arena; every pass iterates these.
	transporterIDs []EntityID
	manipulatorIDs []EntityID
	producerIDs    []EntityID

	// Persistence bridge state.
	dirty     bool
	mutations uint64
	saver     autosaver

	observers     map[string]observerSession
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
}

type placedEntity struct {
	Entity
	def catalogs.EntityDef
	fp  spatial.Footprint
}

func New(cfg WorldConfig, cats *catalogs.Catalogs, logger *log.Logger) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("world: nil catalogs")
	}
	cfg.applyDefaults()
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w := &World{
		cfg:  cfg,
		cats: cats,
		log:  logger,

		index:    spatial.NewIndex(),
		entities: map[EntityID]*placedEntity{},

		transporters: intmap.New[EntityID, *Transporter](256),
		manipulators: intmap.New[EntityID, *Manipulator](64),
		producers:    intmap.New[EntityID, *ProductionUnit](64),

		observers:     map[string]observerSession{},
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerLeave: make(chan string, 16),
	}
	w.saver.done = make(chan saveResult, 1)
	return w, nil
}

func (w *World) ID() string                   { return w.cfg.ID }
func (w *World) Config() WorldConfig          { return w.cfg }
func (w *World) Catalogs() *catalogs.Catalogs { return w.cats }
func (w *World) CurrentTick() uint64          { return w.tick }
func (w *World) Index() *spatial.Index        { return w.index }

func (w *World) logf(format string, args ...any) {
	w.log.Printf(format, args...)
}

func (w *World) markDirty() {
	w.dirty = true
	w.mutations++
}

// Dirty reports whether state changed since the last confirmed save.
func (w *World) Dirty() bool { return w.dirty }

// OnEntityAdded creates the unit state for e and re-resolves all links.
func (w *World) OnEntityAdded(e Entity) error {
	if err := w.addEntity(e); err != nil {
		return err
	}
	w.resolveLinks()
	if p, ok := w.producers.Get(e.ID); ok {
		w.tryStartCraft(p)
	}
	return nil
}

// AddEntities loads a batch of entities (world load) and resolves links once.
// Entities with unknown types are logged and skipped.
func (w *World) AddEntities(es []Entity) error {
	var firstErr error
	for _, e := range es {
		if err := w.addEntity(e); err != nil {
			w.logf("load entity %d: %v", e.ID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	w.resolveLinks()
	w.startAllCrafts()
	return firstErr
}

func (w *World) addEntity(e Entity) error {
	if e.ID == 0 {
		return fmt.Errorf("entity %q: id 0 is reserved", e.Type)
	}
	if _, dup := w.entities[e.ID]; dup {
		return fmt.Errorf("entity %d already exists", e.ID)
	}
	def, ok := w.cats.Entities.ByName[e.Type]
	if !ok {
		return fmt.Errorf("entity %d: unknown type %q", e.ID, e.Type)
	}
	pe := &placedEntity{Entity: e, def: def, fp: spatial.Footprint{W: def.Width, H: def.Height}}
	switch def.Kind {
	case catalogs.KindTransporter:
		pe.fp = spatial.Unit
		w.transporters.Put(e.ID, newTransporter(e, def.Power))
		w.transporterIDs = insertID(w.transporterIDs, e.ID)
	case catalogs.KindManipulator:
		pe.fp = spatial.Unit
		w.manipulators.Put(e.ID, newManipulator(e, def.Power, def.ArmReach()))
		w.manipulatorIDs = insertID(w.manipulatorIDs, e.ID)
	case catalogs.KindProduction:
		w.producers.Put(e.ID, w.newProductionUnit(e, def, pe.fp))
		w.producerIDs = insertID(w.producerIDs, e.ID)
	default:
		return fmt.Errorf("entity %d: unknown kind %q", e.ID, def.Kind)
	}
	w.entities[e.ID] = pe
	w.index.Add(e.ID, e.Pos, pe.fp)
	w.markDirty()
	return nil
}

func (w *World) newProductionUnit(e Entity, def catalogs.EntityDef, fp spatial.Footprint) *ProductionUnit {
	p := &ProductionUnit{
		ID:        e.ID,
		Pos:       e.Pos,
		Footprint: fp,
		Category:  def.Category,
		Power:     def.Power,
		Recipes:   append([]int(nil), def.Recipes...),
		Inputs:    map[int]bool{},
		Outputs:   map[int]bool{},
		rules:     rulesFor(def.Category),
	}
	for _, rid := range p.Recipes {
		r, ok := w.cats.Recipes.ByID[rid]
		if !ok {
			w.logf("unit %d: unknown recipe %d", e.ID, rid)
			continue
		}
		for _, in := range r.Inputs {
			p.Inputs[in.Resource] = true
		}
		p.Outputs[r.Output.Resource] = true
	}
	p.seed(e.Holdings)
	return p
}

// OnEntityRemoved deletes the unit state (and anything it held) and
// re-resolves all links. Unknown ids are ignored.
func (w *World) OnEntityRemoved(id EntityID) {
	pe, ok := w.entities[id]
	if !ok {
		return
	}
	w.index.Remove(id, pe.Pos, pe.fp)
	delete(w.entities, id)
	if w.transporters.Del(id) {
		w.transporterIDs = removeID(w.transporterIDs, id)
	}
	if w.manipulators.Del(id) {
		w.manipulatorIDs = removeID(w.manipulatorIDs, id)
	}
	if w.producers.Del(id) {
		w.producerIDs = removeID(w.producerIDs, id)
	}
	w.resolveLinks()
	w.markDirty()
}

// MoveEntity relocates an entity footprint and re-resolves links.
func (w *World) MoveEntity(id EntityID, to Tile) error {
	pe, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("entity %d not found", id)
	}
	w.index.MoveTo(id, pe.Pos, to, pe.fp)
	pe.Pos = to
	if t, ok := w.transporters.Get(id); ok {
		t.Pos = to
	}
	if m, ok := w.manipulators.Get(id); ok {
		m.Pos = to
	}
	if p, ok := w.producers.Get(id); ok {
		p.Pos = to
	}
	w.resolveLinks()
	w.markDirty()
	return nil
}

func (w *World) Transporter(id EntityID) (*Transporter, bool)       { return w.transporters.Get(id) }
func (w *World) Manipulator(id EntityID) (*Manipulator, bool)       { return w.manipulators.Get(id) }
func (w *World) ProductionUnit(id EntityID) (*ProductionUnit, bool) { return w.producers.Get(id) }

// TotalResources sums every resource held by any unit, by resource id.
func (w *World) TotalResources() map[int]int {
	out := map[int]int{}
	for _, id := range w.transporterIDs {
		t, _ := w.transporters.Get(id)
		if !t.Stack.Empty() {
			out[t.Stack.Resource] += t.Stack.Amount
		}
	}
	for _, id := range w.manipulatorIDs {
		m, _ := w.manipulators.Get(id)
		if !m.Stack.Empty() {
			out[m.Stack.Resource] += m.Stack.Amount
		}
	}
	for _, id := range w.producerIDs {
		p, _ := w.producers.Get(id)
		for r, n := range p.Held {
			out[r] += n
		}
	}
	return out
}

func insertID(ids []EntityID, id EntityID) []EntityID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeID(ids []EntityID, id EntityID) []EntityID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return append(ids[:i], ids[i+1:]...)
	}
	return ids
}
