package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Unit kinds.
const (
	KindTransporter = "transporter"
	KindManipulator = "manipulator"
	KindProduction  = "production"
)

// Production unit categories.
const (
	CategoryBuilding = "building"
	CategoryMining   = "mining"
	CategoryStorage  = "storage"
)

// MaxRecipeInputs bounds the number of distinct inputs per recipe.
const MaxRecipeInputs = 3

type Catalogs struct {
	Resources ResourceCatalog
	Recipes   RecipeCatalog
	Entities  EntityCatalog
}

type ResourceCatalog struct {
	ByID   map[int]ResourceDef
	Digest string
}

type ResourceDef struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	MaxStack int    `json:"max_stack"`
	// Deposit marks raw, in-ground resources that only mining units hold.
	Deposit bool `json:"deposit,omitempty"`
}

type RecipeCatalog struct {
	ByID   map[int]RecipeDef
	Digest string
}

type RecipeDef struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	Inputs        []ResourceAmount `json:"inputs"`
	Output        ResourceAmount   `json:"output"`
	DurationTicks int              `json:"duration_ticks"`
}

type ResourceAmount struct {
	Resource int `json:"resource"`
	Amount   int `json:"amount"`
}

type EntityCatalog struct {
	ByName map[string]EntityDef
	Digest string
}

type EntityDef struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Category string `json:"category,omitempty"`
	Power    int    `json:"power"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Reach    int    `json:"reach,omitempty"`
	Recipes  []int  `json:"recipes,omitempty"`
}

// ArmReach is the manipulator reach in tiles: an explicit reach wins,
// otherwise a "long" name marker gives 2 and anything else 1.
func (d EntityDef) ArmReach() int {
	if d.Reach > 0 {
		return d.Reach
	}
	if strings.Contains(strings.ToLower(d.Name), "long") {
		return 2
	}
	return 1
}

// Load reads resources.json, recipes.json and entities.json from configDir.
func Load(configDir string) (*Catalogs, error) {
	var (
		resources []ResourceDef
		recipes   []RecipeDef
		entities  []EntityDef
		digests   [3]string
	)
	files := []struct {
		name   string
		schema string
		out    any
	}{
		{"resources.json", resourcesSchema, &resources},
		{"recipes.json", recipesSchema, &recipes},
		{"entities.json", entitiesSchema, &entities},
	}
	for i, f := range files {
		d, err := loadJSON(filepath.Join(configDir, f.name), f.schema, f.out)
		if err != nil {
			return nil, err
		}
		digests[i] = d
	}

	c, err := New(resources, recipes, entities)
	if err != nil {
		return nil, err
	}
	c.Resources.Digest = digests[0]
	c.Recipes.Digest = digests[1]
	c.Entities.Digest = digests[2]
	return c, nil
}

// New builds and cross-validates catalogs from in-memory definitions.
func New(resources []ResourceDef, recipes []RecipeDef, entities []EntityDef) (*Catalogs, error) {
	c := &Catalogs{
		Resources: ResourceCatalog{ByID: map[int]ResourceDef{}},
		Recipes:   RecipeCatalog{ByID: map[int]RecipeDef{}},
		Entities:  EntityCatalog{ByName: map[string]EntityDef{}},
	}

	for _, r := range resources {
		if r.ID <= 0 {
			return nil, fmt.Errorf("resource %q: invalid id %d", r.Name, r.ID)
		}
		if _, dup := c.Resources.ByID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate resource id %d", r.ID)
		}
		if r.MaxStack <= 0 {
			return nil, fmt.Errorf("resource %d: invalid max_stack=%d", r.ID, r.MaxStack)
		}
		c.Resources.ByID[r.ID] = r
	}

	for _, r := range recipes {
		if _, dup := c.Recipes.ByID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe id %d", r.ID)
		}
		if err := c.validateRecipe(r); err != nil {
			return nil, err
		}
		c.Recipes.ByID[r.ID] = r
	}

	for _, e := range entities {
		if e.Name == "" {
			return nil, fmt.Errorf("entities: empty name")
		}
		if _, dup := c.Entities.ByName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity type %q", e.Name)
		}
		if err := c.validateEntity(e); err != nil {
			return nil, err
		}
		c.Entities.ByName[e.Name] = e
	}

	c.Resources.Digest = digestOf(resources)
	c.Recipes.Digest = digestOf(recipes)
	c.Entities.Digest = digestOf(entities)
	return c, nil
}

func (c *Catalogs) validateRecipe(r RecipeDef) error {
	if r.DurationTicks <= 0 {
		return fmt.Errorf("recipe %d: invalid duration_ticks=%d", r.ID, r.DurationTicks)
	}
	if len(r.Inputs) > MaxRecipeInputs {
		return fmt.Errorf("recipe %d: %d inputs exceeds max %d", r.ID, len(r.Inputs), MaxRecipeInputs)
	}
	for _, in := range r.Inputs {
		if _, ok := c.Resources.ByID[in.Resource]; !ok {
			return fmt.Errorf("recipe %d: unknown input resource %d", r.ID, in.Resource)
		}
		if in.Amount <= 0 {
			return fmt.Errorf("recipe %d: input %d has amount %d", r.ID, in.Resource, in.Amount)
		}
	}
	if _, ok := c.Resources.ByID[r.Output.Resource]; !ok {
		return fmt.Errorf("recipe %d: unknown output resource %d", r.ID, r.Output.Resource)
	}
	if r.Output.Amount <= 0 {
		return fmt.Errorf("recipe %d: output amount %d", r.ID, r.Output.Amount)
	}
	return nil
}

func (c *Catalogs) validateEntity(e EntityDef) error {
	if e.Power <= 0 {
		return fmt.Errorf("entity %q: invalid power=%d", e.Name, e.Power)
	}
	switch e.Kind {
	case KindTransporter, KindManipulator:
		if len(e.Recipes) > 0 {
			return fmt.Errorf("entity %q: %s cannot run recipes", e.Name, e.Kind)
		}
	case KindProduction:
		switch e.Category {
		case CategoryBuilding, CategoryMining, CategoryStorage:
		default:
			return fmt.Errorf("entity %q: unknown category %q", e.Name, e.Category)
		}
		for _, id := range e.Recipes {
			if _, ok := c.Recipes.ByID[id]; !ok {
				return fmt.Errorf("entity %q: unknown recipe %d", e.Name, id)
			}
		}
	default:
		return fmt.Errorf("entity %q: unknown kind %q", e.Name, e.Kind)
	}
	return nil
}

// SortedResourceIDs returns resource ids in ascending order.
func (c *Catalogs) SortedResourceIDs() []int {
	ids := make([]int, 0, len(c.Resources.ByID))
	for id := range c.Resources.ByID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func loadJSON(path, schema string, out any) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	name := filepath.Base(path)

	sch, err := jsonschema.CompileString(name, schema)
	if err != nil {
		return "", fmt.Errorf("%s: compile schema: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if err := sch.Validate(doc); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return sha256Hex(raw), nil
}

func digestOf(v any) string {
	b, _ := json.Marshal(v)
	return sha256Hex(b)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
