package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// TickRateHz is the frame rate of the animation pass.
	TickRateHz int `yaml:"tick_rate_hz"`
	// LogicIntervalTicks gates the logic pass: it runs every Nth frame.
	LogicIntervalTicks int `yaml:"logic_interval_ticks"`
	// TraversalTicks is the number of frames a power-100 unit needs to
	// carry a resource across its full length (belt entry->exit, arm source->target).
	TraversalTicks int `yaml:"traversal_ticks"`

	AutosaveIntervalMs int `yaml:"autosave_interval_ms"`

	InputCap       int `yaml:"input_cap"`
	OutputCap      int `yaml:"output_cap"`
	StorageSlotCap int `yaml:"storage_slot_cap"`
	ArmStackSize   int `yaml:"arm_stack_size"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:         60,
		LogicIntervalTicks: 30,
		TraversalTicks:     60,
		AutosaveIntervalMs: 10_000,
		InputCap:           10,
		OutputCap:          10,
		StorageSlotCap:     16,
		ArmStackSize:       1,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0, got %d", t.TickRateHz)
	case t.LogicIntervalTicks <= 0:
		return fmt.Errorf("logic_interval_ticks must be > 0, got %d", t.LogicIntervalTicks)
	case t.TraversalTicks <= 0:
		return fmt.Errorf("traversal_ticks must be > 0, got %d", t.TraversalTicks)
	case t.InputCap <= 0 || t.OutputCap <= 0:
		return fmt.Errorf("input_cap/output_cap must be > 0, got %d/%d", t.InputCap, t.OutputCap)
	case t.StorageSlotCap <= 0:
		return fmt.Errorf("storage_slot_cap must be > 0, got %d", t.StorageSlotCap)
	case t.ArmStackSize <= 0:
		return fmt.Errorf("arm_stack_size must be > 0, got %d", t.ArmStackSize)
	}
	return nil
}

func (t Tuning) AutosaveInterval() time.Duration {
	if t.AutosaveIntervalMs <= 0 {
		return 0
	}
	return time.Duration(t.AutosaveIntervalMs) * time.Millisecond
}
