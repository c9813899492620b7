package world

import (
	"fmt"
	"strings"

	"beltworks.ai/internal/sim/spatial"
)

type (
	EntityID = spatial.ID
	Tile     = spatial.Tile
)

// Direction is a cardinal orientation on the tile grid. Up is -Y.
type Direction uint8

const (
	Up Direction = iota
	Right
	Down
	Left
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "n", "north":
		return Up, nil
	case "right", "e", "east", "":
		return Right, nil
	case "down", "s", "south":
		return Down, nil
	case "left", "w", "west":
		return Left, nil
	}
	return Right, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return "?"
}

func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	default:
		return -1, 0
	}
}

func (d Direction) Opposite() Direction { return (d + 2) % 4 }

// Step returns the tile n cells from t along d.
func (d Direction) Step(t Tile, n int) Tile {
	dx, dy := d.Delta()
	return t.Add(dx*n, dy*n)
}

// Stack is a single resource stack. It is never split in transit.
type Stack struct {
	Resource int
	Amount   int
}

func (s Stack) Empty() bool { return s.Amount <= 0 }

// Acceptance is the answer a unit gives when asked to take a stack.
type Acceptance uint8

const (
	AcceptNo Acceptance = iota
	AcceptYes
	// AcceptIfFreed means the target is a transporter that is itself
	// waiting to hand off; it would be empty if it also transfers.
	AcceptIfFreed
)

func (a Acceptance) String() string {
	switch a {
	case AcceptYes:
		return "yes"
	case AcceptIfFreed:
		return "yes_if_freed"
	}
	return "no"
}

type TransporterStatus string

const (
	TransporterEmpty    TransporterStatus = "empty"
	TransporterCarrying TransporterStatus = "carrying"
	TransporterWaiting  TransporterStatus = "waiting_transfer"
)

type ManipulatorStatus string

const (
	ManipulatorIdle     ManipulatorStatus = "idle"
	ManipulatorPicking  ManipulatorStatus = "picking"
	ManipulatorCarrying ManipulatorStatus = "carrying"
	ManipulatorPlacing  ManipulatorStatus = "placing"
)

// Entity is a placed-entity record handed over by the placement collaborator.
type Entity struct {
	ID   EntityID
	Type string
	Pos  Tile
	Dir  Direction

	// Holdings seeds production units at load and on reset.
	Holdings map[int]int
}

// lateralOffsets gives the merge-in offset for side entries, keyed by
// (source orientation, target orientation). Negative is the left side of
// the target's travel direction.
var lateralOffsets = map[[2]Direction]float64{
	{Right, Up}:   -0.5,
	{Left, Up}:    0.5,
	{Down, Right}: -0.5,
	{Up, Right}:   0.5,
	{Left, Down}:  -0.5,
	{Right, Down}: 0.5,
	{Up, Left}:    -0.5,
	{Down, Left}:  0.5,
}

const epsilon = 1e-9
