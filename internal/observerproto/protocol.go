package observerproto

// Version is the observer protocol version.
const Version = "0.1"

// Client -> Server. Must be the first message on the socket.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Every N-th logic pass is sent; 0 or 1 sends all.
	EveryN int `json:"every_n,omitempty"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	WorldParams     WorldParams `json:"world_params"`
	Resources       []Resource  `json:"resources"`
}

type WorldParams struct {
	TickRateHz         int `json:"tick_rate_hz"`
	LogicIntervalTicks int `json:"logic_interval_ticks"`
	TraversalTicks     int `json:"traversal_ticks"`
}

type Resource struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Server -> Client. Sent after every logic pass.
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WorldID         string `json:"world_id"`
	Tick            uint64 `json:"tick"`

	Transporters []TransporterState `json:"transporters"`
	Manipulators []ManipulatorState `json:"manipulators"`
	Producers    []ProducerState    `json:"producers"`
}

type Stack struct {
	Resource int `json:"resource"`
	Amount   int `json:"amount"`
}

type TransporterState struct {
	ID            uint64  `json:"id"`
	Pos           [2]int  `json:"pos"`
	Dir           string  `json:"dir"`
	Status        string  `json:"status"`
	Stack         *Stack  `json:"stack,omitempty"`
	Position      float64 `json:"position"`
	LateralOffset float64 `json:"lateral_offset,omitempty"`
}

type ManipulatorState struct {
	ID          uint64  `json:"id"`
	Pos         [2]int  `json:"pos"`
	Dir         string  `json:"dir"`
	Status      string  `json:"status"`
	Stack       *Stack  `json:"stack,omitempty"`
	ArmPosition float64 `json:"arm_position"`
}

type ProducerState struct {
	ID       uint64      `json:"id"`
	Pos      [2]int      `json:"pos"`
	Category string      `json:"category"`
	Held     map[int]int `json:"held"`
	Crafting *Crafting   `json:"crafting,omitempty"`
}

type Crafting struct {
	RecipeID       int     `json:"recipe_id"`
	Fraction       float64 `json:"fraction"`
	TicksRemaining int     `json:"ticks_remaining"`
}
