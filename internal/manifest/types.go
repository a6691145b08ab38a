package manifest

// Package is the subset of an npm package.json that stackgen reads.
type Package struct {
	Name            string            `json:"name"`
	Version         string            `json:"version,omitempty"`
	Description     string            `json:"description,omitempty"`
	Private         bool              `json:"private,omitempty"`
	Main            string            `json:"main,omitempty"`
	Scripts         map[string]string `json:"scripts,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Engines         map[string]string `json:"engines,omitempty"`
	// Browserslist holds the supported target-environment queries. npm
	// also accepts a single string; Parse normalizes that to one element.
	Browserslist []string `json:"-"`
}

// HasDependency reports whether name is declared as a runtime or dev
// dependency.
func (p *Package) HasDependency(name string) bool {
	if _, ok := p.Dependencies[name]; ok {
		return true
	}
	_, ok := p.DevDependencies[name]
	return ok
}

// Sets is the template-set descriptor embedded in the catalog.
type Sets struct {
	Sets map[string]Set `yaml:"sets" json:"sets"`
}

// Set is one named template set.
type Set struct {
	Description string `yaml:"description" json:"description"`
	Extends     string `yaml:"extends,omitempty" json:"extends,omitempty"`
	Trees       []Tree `yaml:"trees" json:"trees"`
}

// Tree describes one branch of a template set.
type Tree struct {
	Name        string            `yaml:"name" json:"name"`
	Install     *bool             `yaml:"install,omitempty" json:"install,omitempty"`
	Directories []string          `yaml:"directories,omitempty" json:"directories,omitempty"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Patches     []Patch           `yaml:"patches,omitempty" json:"patches,omitempty"`
}

// Patch declares one conditional amendment to a written file. Exactly one
// of JSONKey and AppendLine is set.
type Patch struct {
	Target     string   `yaml:"target" json:"target"`
	Marker     string   `yaml:"marker,omitempty" json:"marker,omitempty"`
	JSONKey    *JSONKey `yaml:"json_key,omitempty" json:"json_key,omitempty"`
	AppendLine string   `yaml:"append_line,omitempty" json:"append_line,omitempty"`
}

// JSONKey adds a top-level key to a JSON document when absent.
type JSONKey struct {
	Key   string `yaml:"key" json:"key"`
	Value any    `yaml:"value" json:"value"`
}
