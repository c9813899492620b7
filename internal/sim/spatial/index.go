// Package spatial maps tile coordinates to the entity occupying them.
//
// The grid is unbounded and sparse. Each covered cell of an entity footprint
// holds one entry pointing at the entity id; multi-tile entities therefore
// own several cells. Overlapping placements are not rejected: the last write
// wins, and Remove only clears cells still owned by the removed id.
package spatial

import "github.com/kamstrup/intmap"

// ID identifies a placed entity. Zero is never a valid id.
type ID uint64

// Tile is an integer grid coordinate. Coordinates must fit in int32.
type Tile struct {
	X int
	Y int
}

func (t Tile) Add(dx, dy int) Tile { return Tile{X: t.X + dx, Y: t.Y + dy} }

// Footprint is the width/height of an entity in tiles, anchored at its
// origin tile and extending toward +X/+Y.
type Footprint struct {
	W int
	H int
}

// Unit is the 1x1 footprint.
var Unit = Footprint{W: 1, H: 1}

func (f Footprint) norm() Footprint {
	if f.W <= 0 {
		f.W = 1
	}
	if f.H <= 0 {
		f.H = 1
	}
	return f
}

// Cells lists every tile covered by a footprint at origin, row-major.
func (f Footprint) Cells(origin Tile) []Tile {
	f = f.norm()
	out := make([]Tile, 0, f.W*f.H)
	for dy := 0; dy < f.H; dy++ {
		for dx := 0; dx < f.W; dx++ {
			out = append(out, origin.Add(dx, dy))
		}
	}
	return out
}

func key(t Tile) uint64 {
	return uint64(uint32(int32(t.X)))<<32 | uint64(uint32(int32(t.Y)))
}

// Index is the tile -> entity id mapping. Not safe for concurrent use.
type Index struct {
	cells *intmap.Map[uint64, ID]
}

func NewIndex() *Index {
	return &Index{cells: intmap.New[uint64, ID](1024)}
}

// Add claims every cell of the footprint for id (last write wins).
func (ix *Index) Add(id ID, origin Tile, fp Footprint) {
	for _, c := range fp.Cells(origin) {
		ix.cells.Put(key(c), id)
	}
}

// Remove releases the footprint cells that are still owned by id.
func (ix *Index) Remove(id ID, origin Tile, fp Footprint) {
	for _, c := range fp.Cells(origin) {
		k := key(c)
		if cur, ok := ix.cells.Get(k); ok && cur == id {
			ix.cells.Del(k)
		}
	}
}

// MoveTo is Remove at from followed by Add at to.
func (ix *Index) MoveTo(id ID, from, to Tile, fp Footprint) {
	ix.Remove(id, from, fp)
	ix.Add(id, to, fp)
}

// IDAt returns the entity occupying t, if any.
func (ix *Index) IDAt(t Tile) (ID, bool) {
	return ix.cells.Get(key(t))
}

// Len is the number of occupied cells.
func (ix *Index) Len() int { return ix.cells.Len() }
