package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	if len(c.Resources.ByID) == 0 || len(c.Recipes.ByID) == 0 || len(c.Entities.ByName) == 0 {
		t.Fatalf("empty catalogs: %+v", c)
	}
	for _, d := range []string{c.Resources.Digest, c.Recipes.Digest, c.Entities.Digest} {
		if len(d) != 64 {
			t.Fatalf("bad digest %q", d)
		}
	}
	if got := c.Entities.ByName["long_arm"].ArmReach(); got != 2 {
		t.Fatalf("long_arm reach=%d want 2", got)
	}
	if got := c.Entities.ByName["arm"].ArmReach(); got != 1 {
		t.Fatalf("arm reach=%d want 1", got)
	}
}

func TestLoad_SchemaRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"resources.json": `[{"id":1,"name":"ore","max_stack":5,"colour":"red"}]`,
		"recipes.json":   `[]`,
		"entities.json":  `[]`,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "resources.json") {
		t.Fatalf("err=%v want resources.json schema error", err)
	}
}

func TestNew_RejectsTooManyInputs(t *testing.T) {
	res := []ResourceDef{{ID: 1, Name: "a", MaxStack: 10}}
	rec := []RecipeDef{{
		ID:            1,
		Inputs:        []ResourceAmount{{1, 1}, {1, 1}, {1, 1}, {1, 1}},
		Output:        ResourceAmount{1, 1},
		DurationTicks: 10,
	}}
	if _, err := New(res, rec, nil); err == nil {
		t.Fatalf("expected error for 4 inputs")
	}
}

func TestNew_RejectsUnknownRecipeOnEntity(t *testing.T) {
	res := []ResourceDef{{ID: 1, Name: "a", MaxStack: 10}}
	ents := []EntityDef{{Name: "b", Kind: KindProduction, Category: CategoryBuilding, Power: 100, Recipes: []int{9}}}
	if _, err := New(res, nil, ents); err == nil {
		t.Fatalf("expected error for unknown recipe")
	}
}
