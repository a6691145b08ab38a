package catalog

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/joho/godotenv"

	"github.com/stackgen-labs/stackgen/internal/manifest"
)

func filePaths(t *Tree) []string {
	var out []string
	for _, f := range t.Files {
		out = append(out, f.Path)
	}
	return out
}

func TestList(t *testing.T) {
	sets, err := List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []Summary{
		{Name: "base", Description: "React client and Express backend skeleton"},
		{Name: "full", Description: "Base skeleton plus starter components, backend modules and .env files", Extends: "base"},
	}
	if diff := cmp.Diff(want, sets); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Base(t *testing.T) {
	set, err := Load(DefaultSet)
	if err != nil {
		t.Fatalf("Load(base) error: %v", err)
	}
	if len(set.Trees) != 2 || set.Trees[0].Name != "client" || set.Trees[1].Name != "backend" {
		t.Fatalf("trees = %+v", set.Trees)
	}

	client, _ := set.Tree("client")
	if diff := cmp.Diff([]string{".gitignore", "README.md", "package.json", "src/App.jsx", "src/index.jsx"}, filePaths(client)); diff != "" {
		t.Errorf("client files (-want +got):\n%s", diff)
	}
	if !client.Install {
		t.Error("client install should be requested")
	}
	if len(client.Directories) != 12 {
		t.Errorf("client directories = %d, want 12", len(client.Directories))
	}
	if len(client.Patches) != 1 || client.Patches[0].JSONKey == nil || client.Patches[0].JSONKey.Key != "browserslist" {
		t.Errorf("client patches = %+v", client.Patches)
	} else if got, want := client.Patches[0].Marker, `"browserslist": [`; got != want {
		// A bare "browserslist" would also match a dependency of that name.
		t.Errorf("browserslist marker = %q, want %q", got, want)
	}

	backend, _ := set.Tree("backend")
	if diff := cmp.Diff([]string{".gitignore", "README.md", "app.js", "package.json", "server.js"}, filePaths(backend)); diff != "" {
		t.Errorf("backend files (-want +got):\n%s", diff)
	}
	if len(backend.Patches) != 0 {
		t.Errorf("backend patches = %+v, want none", backend.Patches)
	}

	f, _ := client.File("package.json")
	pkg, err := manifest.Parse(f.Content)
	if err != nil {
		t.Fatalf("client package.json: %v", err)
	}
	if !pkg.HasDependency("react") || !pkg.HasDependency("react-dom") {
		t.Errorf("client dependencies = %v", pkg.Dependencies)
	}
	if pkg.Browserslist != nil {
		t.Error("base client manifest should leave browserslist to the patch")
	}
}

func TestLoad_FullOverlaysBase(t *testing.T) {
	set, err := Load("full")
	if err != nil {
		t.Fatalf("Load(full) error: %v", err)
	}
	if diff := cmp.Diff([]string{"full", "base"}, set.Chain); diff != "" {
		t.Errorf("Chain (-want +got):\n%s", diff)
	}

	client, _ := set.Tree("client")
	for _, p := range []string{".env", "src/index.jsx", "src/components/common/Button.jsx", "src/services/apiClient.js", "public/index.html"} {
		if _, ok := client.File(p); !ok {
			t.Errorf("client missing %s", p)
		}
	}
	app, _ := client.File("src/App.jsx")
	if !strings.Contains(string(app.Content), "Header") {
		t.Error("full App.jsx should replace the base one")
	}
	if len(client.Directories) != 12 {
		t.Errorf("client directories = %d, want 12 inherited", len(client.Directories))
	}
	if len(client.Patches) != 2 || client.Patches[1].AppendLine != ".env" {
		t.Errorf("client patches = %+v", client.Patches)
	}

	backend, _ := set.Tree("backend")
	env, _ := backend.File(".env")
	vars, err := godotenv.Unmarshal(string(env.Content))
	if err != nil {
		t.Fatalf("backend .env: %v", err)
	}
	if vars["PORT"] != "3000" || vars["MONGO_URI"] == "" {
		t.Errorf("backend env = %v", vars)
	}
	if _, ok := backend.File("config/dbConfig.js"); !ok {
		t.Error("backend missing config/dbConfig.js")
	}
}

func TestValidate_EmbeddedSets(t *testing.T) {
	sets, err := List()
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range sets {
		t.Run(s.Name, func(t *testing.T) {
			set, err := Load(s.Name)
			if err != nil {
				t.Fatalf("Load(%s) error: %v", s.Name, err)
			}
			if problems := Validate(set); len(problems) != 0 {
				t.Errorf("unexpected problems:\n%s", strings.Join(problems, "\n"))
			}
		})
	}
}

const testSets = `sets:
  one:
    description: first
    trees:
      - name: web
        directories: [src]
        env: {A: "1", B: "2"}
        patches:
          - target: missing.txt
            append_line: x
  two:
    description: second
    extends: one
    trees:
      - name: web
        install: true
        directories: [lib]
        env: {B: "3"}
      - name: api
`

func testCatalog(t *testing.T, descriptor string) *Catalog {
	t.Helper()
	fsys := fstest.MapFS{
		"sets.yaml":            {Data: []byte(descriptor)},
		"one/web/package.json": {Data: []byte(`{"name": "Web App"}`)},
		"one/web/src/a.js":     {Data: []byte("a")},
		"two/web/src/a.js":     {Data: []byte("overridden")},
		"two/api/main.js":      {Data: []byte("api")},
	}
	c, err := New(fsys)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestCatalogLoad_Overlay(t *testing.T) {
	set, err := testCatalog(t, testSets).Load("two")
	if err != nil {
		t.Fatalf("Load(two) error: %v", err)
	}

	web, _ := set.Tree("web")
	if !web.Install {
		t.Error("install should come from the nearer set")
	}
	if diff := cmp.Diff([]string{"src", "lib"}, web.Directories); diff != "" {
		t.Errorf("directories (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"A": "1", "B": "3"}, web.Env); diff != "" {
		t.Errorf("env (-want +got):\n%s", diff)
	}
	a, _ := web.File("src/a.js")
	if string(a.Content) != "overridden" {
		t.Errorf("src/a.js = %q, want overridden", a.Content)
	}
	env, _ := web.File(".env")
	if string(env.Content) != "A=1\nB=3\n" {
		t.Errorf(".env = %q", env.Content)
	}

	api, ok := set.Tree("api")
	if !ok || len(api.Files) != 1 {
		t.Errorf("api tree = %+v", api)
	}
}

func TestCatalogLoad_Errors(t *testing.T) {
	c := testCatalog(t, testSets)
	if _, err := c.Load("nope"); !errors.Is(err, ErrUnknownSet) {
		t.Errorf("Load(nope) error = %v, want ErrUnknownSet", err)
	}

	cyclic := `sets:
  a: {description: a, extends: b, trees: []}
  b: {description: b, extends: a, trees: []}
`
	if _, err := testCatalog(t, cyclic).Load("a"); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("Load(a) error = %v, want cycle", err)
	}
}

func TestNew_InvalidDescriptor(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"schema violation", "sets:\n  one:\n    trees: []\n"},
		{"unknown parent", "sets:\n  one: {description: x, extends: ghost, trees: []}\n"},
		{"not yaml", "sets: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"sets.yaml": {Data: []byte(tt.data)}}
			if _, err := New(fsys); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := New(fstest.MapFS{}); err == nil {
		t.Error("expected error for missing descriptor")
	}
}

func TestValidate_ReportsProblems(t *testing.T) {
	set, err := testCatalog(t, testSets).Load("one")
	if err != nil {
		t.Fatal(err)
	}
	problems := Validate(set)

	joined := strings.Join(problems, "\n")
	for _, want := range []string{"web/package.json: /name", "patch target missing.txt"} {
		if !strings.Contains(joined, want) {
			t.Errorf("problems missing %q:\n%s", want, joined)
		}
	}
}
