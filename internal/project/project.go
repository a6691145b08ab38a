package project

import (
	"fmt"
	"path/filepath"

	"github.com/stackgen-labs/stackgen/internal/catalog"
	"github.com/stackgen-labs/stackgen/internal/config"
	"github.com/stackgen-labs/stackgen/internal/manifest"
	"github.com/stackgen-labs/stackgen/internal/scaffold"
)

// Root returns the project directory for opts: Dir joined with the
// project name, made absolute.
func Root(opts config.Options) (string, error) {
	if err := config.ValidateName(opts.ProjectName); err != nil {
		return "", err
	}
	root, err := filepath.Abs(filepath.Join(opts.Dir, opts.ProjectName))
	if err != nil {
		return "", fmt.Errorf("resolving project directory: %w", err)
	}
	return root, nil
}

// Plan builds one branch per tree of set, rooted at <root>/<tree>.
// Patches are dropped when SkipPatch is set and installs are requested
// only for trees that ask for them and only without SkipInstall.
func Plan(opts config.Options, set *catalog.Set) ([]scaffold.Branch, error) {
	root, err := Root(opts)
	if err != nil {
		return nil, err
	}

	branches := make([]scaffold.Branch, 0, len(set.Trees))
	for _, t := range set.Trees {
		spec := scaffold.Spec{
			Name:        t.Name,
			Root:        filepath.Join(root, t.Name),
			Directories: append([]string(nil), t.Directories...),
		}
		for _, f := range t.Files {
			spec.Files = append(spec.Files, scaffold.FileEntry{Path: f.Path, Content: f.Content})
		}
		addFileParents(&spec)

		b := scaffold.Branch{
			Spec:    spec,
			Install: t.Install && !opts.SkipInstall,
		}
		if !opts.SkipPatch {
			for _, p := range t.Patches {
				rule, err := patchRule(p)
				if err != nil {
					return nil, fmt.Errorf("tree %s: %w", t.Name, err)
				}
				b.Patches = append(b.Patches, rule)
			}
		}
		branches = append(branches, b)
	}
	return branches, nil
}

// addFileParents declares the parent of every template file that the
// set's directory list does not already cover.
func addFileParents(spec *scaffold.Spec) {
	declared := map[string]bool{".": true}
	for _, d := range spec.Directories {
		for p := filepath.ToSlash(filepath.Clean(d)); p != "."; p = parent(p) {
			declared[p] = true
		}
	}
	for _, f := range spec.Files {
		dir := parent(f.Path)
		if declared[dir] {
			continue
		}
		spec.Directories = append(spec.Directories, dir)
		for p := dir; p != "."; p = parent(p) {
			declared[p] = true
		}
	}
}

func parent(rel string) string {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel)))
	if dir == "" {
		return "."
	}
	return dir
}

func patchRule(p manifest.Patch) (scaffold.PatchRule, error) {
	rule := scaffold.PatchRule{Target: p.Target, Marker: p.Marker}
	switch {
	case p.JSONKey != nil:
		rule.Insert = scaffold.JSONKey{Key: p.JSONKey.Key, Value: p.JSONKey.Value}
	case p.AppendLine != "":
		rule.Insert = scaffold.AppendLine{Line: p.AppendLine}
	default:
		return rule, fmt.Errorf("patch for %s has no strategy", p.Target)
	}
	return rule, nil
}
