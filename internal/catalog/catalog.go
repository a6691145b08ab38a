package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/stackgen-labs/stackgen/internal/manifest"
)

//go:embed all:templates
var embedded embed.FS

const (
	// DefaultSet is used when no template is configured.
	DefaultSet = "base"

	// descriptorFile is the set descriptor, relative to the catalog root.
	descriptorFile = "sets.yaml"

	// envFile is the file rendered from a tree's env map.
	envFile = ".env"
)

// ErrUnknownSet is returned by Load for a name not in the catalog.
var ErrUnknownSet = errors.New("unknown template set")

// Catalog is a parsed set descriptor plus the tree holding its files.
type Catalog struct {
	fsys fs.FS
	sets *manifest.Sets
}

// Summary describes one set for listing.
type Summary struct {
	Name        string
	Description string
	Extends     string
}

// Set is a fully resolved template set.
type Set struct {
	Name        string
	Description string
	// Chain lists the set and its ancestors, nearest first.
	Chain []string
	Trees []Tree
}

// Tree returns the named tree.
func (s *Set) Tree(name string) (*Tree, bool) {
	for i := range s.Trees {
		if s.Trees[i].Name == name {
			return &s.Trees[i], true
		}
	}
	return nil, false
}

// Tree is one branch of a resolved set.
type Tree struct {
	Name        string
	Install     bool
	Directories []string
	Env         map[string]string
	Files       []File // sorted by Path
	Patches     []manifest.Patch
}

// File is one template file, keyed by its forward-slash path relative to
// the tree root.
type File struct {
	Path    string
	Content []byte
}

// File returns the file at rel.
func (t *Tree) File(rel string) (File, bool) {
	for _, f := range t.Files {
		if f.Path == rel {
			return f, true
		}
	}
	return File{}, false
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
	defaultErr     error
)

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			defaultErr = fmt.Errorf("opening embedded templates: %w", err)
			return
		}
		defaultCatalog, defaultErr = New(sub)
	})
	return defaultCatalog, defaultErr
}

// New reads and validates the set descriptor at the root of fsys.
func New(fsys fs.FS) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, descriptorFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", descriptorFile, err)
	}

	result, err := manifest.ValidateSets(data)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", descriptorFile, err)
	}
	if !result.Valid {
		msgs := make([]string, 0, len(result.Issues))
		for _, issue := range result.Issues {
			msgs = append(msgs, issue.String())
		}
		return nil, fmt.Errorf("invalid %s: %s", descriptorFile, strings.Join(msgs, "; "))
	}

	sets, err := manifest.ParseSets(data)
	if err != nil {
		return nil, err
	}
	for name, s := range sets.Sets {
		if s.Extends != "" {
			if _, ok := sets.Sets[s.Extends]; !ok {
				return nil, fmt.Errorf("set %q extends unknown set %q", name, s.Extends)
			}
		}
	}
	return &Catalog{fsys: fsys, sets: sets}, nil
}

// List returns every set sorted by name.
func (c *Catalog) List() []Summary {
	out := make([]Summary, 0, len(c.sets.Sets))
	for name, s := range c.sets.Sets {
		out = append(out, Summary{Name: name, Description: s.Description, Extends: s.Extends})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Load resolves the named set and its ancestors into a Set. Directories and
// patches accumulate from the root ancestor down; env entries and files
// from a nearer set replace those of the same key.
func (c *Catalog) Load(name string) (*Set, error) {
	chain, err := c.chain(name)
	if err != nil {
		return nil, err
	}

	set := &Set{Name: name, Description: c.sets.Sets[name].Description, Chain: chain}
	files := map[string]map[string][]byte{}

	// Root ancestor first so nearer sets overlay it.
	for i := len(chain) - 1; i >= 0; i-- {
		setName := chain[i]
		for _, mt := range c.sets.Sets[setName].Trees {
			t := set.tree(mt.Name)
			if mt.Install != nil {
				t.Install = *mt.Install
			}
			t.Directories = append(t.Directories, mt.Directories...)
			for k, v := range mt.Env {
				if t.Env == nil {
					t.Env = map[string]string{}
				}
				t.Env[k] = v
			}
			t.Patches = append(t.Patches, mt.Patches...)
		}

		for _, t := range set.Trees {
			treeName := t.Name
			if files[treeName] == nil {
				files[treeName] = map[string][]byte{}
			}
			if err := c.readTree(path.Join(setName, treeName), files[treeName]); err != nil {
				return nil, err
			}
		}
	}

	for i := range set.Trees {
		t := &set.Trees[i]
		tf := files[t.Name]
		if len(t.Env) > 0 {
			env, err := godotenv.Marshal(t.Env)
			if err != nil {
				return nil, fmt.Errorf("rendering %s for %s: %w", envFile, t.Name, err)
			}
			tf[envFile] = []byte(env + "\n")
		}

		paths := make([]string, 0, len(tf))
		for p := range tf {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			t.Files = append(t.Files, File{Path: p, Content: tf[p]})
		}
	}
	return set, nil
}

// Validate checks every package.json in the set against the package
// manifest schema and that every patch targets a file the tree provides.
// It returns one human-readable problem per issue.
func Validate(set *Set) []string {
	var problems []string
	for _, t := range set.Trees {
		for _, f := range t.Files {
			if path.Base(f.Path) != "package.json" {
				continue
			}
			result, err := manifest.Validate(f.Content)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s/%s: %v", t.Name, f.Path, err))
				continue
			}
			for _, issue := range result.Issues {
				problems = append(problems, fmt.Sprintf("%s/%s: %s", t.Name, f.Path, issue))
			}
		}
		for _, p := range t.Patches {
			if _, ok := t.File(p.Target); !ok {
				problems = append(problems, fmt.Sprintf("%s: patch target %s is not a template file", t.Name, p.Target))
			}
		}
	}
	return problems
}

func (c *Catalog) chain(name string) ([]string, error) {
	var chain []string
	seen := map[string]bool{}
	for cur := name; cur != ""; cur = c.sets.Sets[cur].Extends {
		if _, ok := c.sets.Sets[cur]; !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownSet, cur)
		}
		if seen[cur] {
			return nil, fmt.Errorf("set %q: extends cycle through %q", name, cur)
		}
		seen[cur] = true
		chain = append(chain, cur)
	}
	return chain, nil
}

// readTree adds every file under dir to files, keyed by path relative to
// dir. A missing dir contributes nothing.
func (c *Catalog) readTree(dir string, files map[string][]byte) error {
	if _, err := fs.Stat(c.fsys, dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fs.WalkDir(c.fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(c.fsys, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}
		files[strings.TrimPrefix(p, dir+"/")] = data
		return nil
	})
}

func (s *Set) tree(name string) *Tree {
	for i := range s.Trees {
		if s.Trees[i].Name == name {
			return &s.Trees[i]
		}
	}
	s.Trees = append(s.Trees, Tree{Name: name})
	return &s.Trees[len(s.Trees)-1]
}

// List returns the sets in the embedded catalog.
func List() ([]Summary, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.List(), nil
}

// Load resolves a set from the embedded catalog.
func Load(name string) (*Set, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.Load(name)
}

