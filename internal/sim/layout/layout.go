// Package layout reads placed-entity records used to build a world at load time.
package layout

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Layout struct {
	WorldID  string   `yaml:"world_id"`
	Entities []Entity `yaml:"entities"`
}

type Entity struct {
	ID   uint64 `yaml:"id"`
	Type string `yaml:"type"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Dir  string `yaml:"dir"`

	// Holdings seeds a production unit (deposits for miners, stock for chests).
	Holdings map[int]int `yaml:"holdings,omitempty"`
}

func Load(path string) (Layout, error) {
	var l Layout
	raw, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return l, fmt.Errorf("layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return l, err
	}
	sort.Slice(l.Entities, func(i, j int) bool { return l.Entities[i].ID < l.Entities[j].ID })
	return l, nil
}

func (l Layout) Validate() error {
	seen := make(map[uint64]bool, len(l.Entities))
	for _, e := range l.Entities {
		if e.ID == 0 {
			return fmt.Errorf("layout: entity %q has id 0", e.Type)
		}
		if seen[e.ID] {
			return fmt.Errorf("layout: duplicate entity id %d", e.ID)
		}
		seen[e.ID] = true
		if strings.TrimSpace(e.Type) == "" {
			return fmt.Errorf("layout: entity %d has empty type", e.ID)
		}
	}
	return nil
}
