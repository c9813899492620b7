package world

import (
	"time"

	"beltworks.ai/internal/sim/tuning"
)

type WorldConfig struct {
	ID         string
	TickRateHz int

	// Logic pass runs every LogicIntervalTicks frames.
	LogicIntervalTicks int
	TraversalTicks     int

	InputCap       int
	OutputCap      int
	StorageSlotCap int
	ArmStackSize   int

	AutosaveInterval time.Duration
}

func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                 id,
		TickRateHz:         t.TickRateHz,
		LogicIntervalTicks: t.LogicIntervalTicks,
		TraversalTicks:     t.TraversalTicks,
		InputCap:           t.InputCap,
		OutputCap:          t.OutputCap,
		StorageSlotCap:     t.StorageSlotCap,
		ArmStackSize:       t.ArmStackSize,
		AutosaveInterval:   t.AutosaveInterval(),
	}
}

func (c *WorldConfig) applyDefaults() {
	d := tuning.Defaults()
	if c.TickRateHz <= 0 {
		c.TickRateHz = d.TickRateHz
	}
	if c.LogicIntervalTicks <= 0 {
		c.LogicIntervalTicks = d.LogicIntervalTicks
	}
	if c.TraversalTicks <= 0 {
		c.TraversalTicks = d.TraversalTicks
	}
	if c.InputCap <= 0 {
		c.InputCap = d.InputCap
	}
	if c.OutputCap <= 0 {
		c.OutputCap = d.OutputCap
	}
	if c.StorageSlotCap <= 0 {
		c.StorageSlotCap = d.StorageSlotCap
	}
	if c.ArmStackSize <= 0 {
		c.ArmStackSize = d.ArmStackSize
	}
}
