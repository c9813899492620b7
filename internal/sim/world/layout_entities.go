package world

import (
	"fmt"
	"strings"

	"beltworks.ai/internal/sim/layout"
)

// LayoutEntities converts layout records into placement records. A missing
// direction means Right.
func LayoutEntities(l layout.Layout) ([]Entity, error) {
	out := make([]Entity, 0, len(l.Entities))
	for _, e := range l.Entities {
		dir := Right
		if strings.TrimSpace(e.Dir) != "" {
			d, err := ParseDirection(e.Dir)
			if err != nil {
				return nil, fmt.Errorf("entity %d: %w", e.ID, err)
			}
			dir = d
		}
		out = append(out, Entity{
			ID:       EntityID(e.ID),
			Type:     e.Type,
			Pos:      Tile{X: e.X, Y: e.Y},
			Dir:      dir,
			Holdings: e.Holdings,
		})
	}
	return out, nil
}
