package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
	"go.yaml.in/yaml/v3"
)

// Parse decodes a package.json document. Comments and trailing commas
// are tolerated.
func Parse(data []byte) (*Package, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing package manifest: %w", err)
	}

	var p Package
	if err := json.Unmarshal(std, &p); err != nil {
		return nil, fmt.Errorf("decoding package manifest: %w", err)
	}

	var extra struct {
		Browserslist json.RawMessage `json:"browserslist"`
	}
	if err := json.Unmarshal(std, &extra); err != nil {
		return nil, fmt.Errorf("decoding package manifest: %w", err)
	}
	if len(extra.Browserslist) > 0 {
		list, err := parseBrowserslist(extra.Browserslist)
		if err != nil {
			return nil, err
		}
		p.Browserslist = list
	}
	return &p, nil
}

// ParseFile reads and decodes the package.json at path.
func ParseFile(path string) (*Package, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func parseBrowserslist(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("browserslist must be a string or an array of strings")
	}
	return []string{single}, nil
}

// ParseSets decodes a template-set descriptor.
func ParseSets(data []byte) (*Sets, error) {
	var s Sets
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing template sets: %w", err)
	}
	if s.Sets == nil {
		s.Sets = map[string]Set{}
	}
	return &s, nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
