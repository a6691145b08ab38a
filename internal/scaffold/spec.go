package scaffold

import (
	"fmt"
	"path"
	"sort"
)

// FileEntry is one file to stamp into a tree. Path uses forward slashes
// regardless of host OS. Content may be empty.
type FileEntry struct {
	Path    string
	Content []byte
}

// Spec is the declarative description of one tree.
type Spec struct {
	// Name identifies the tree in logs and reports (e.g., "client").
	Name string
	// Root is the filesystem location of the tree.
	Root string
	// Directories are relative directory paths, created in order. Duplicates
	// are allowed.
	Directories []string
	// Files are written after all directories exist. Order is irrelevant.
	Files []FileEntry
}

// Validate checks that every relative path composes under Root and that every
// file's parent directory is the root, a listed directory, or an ancestor of
// one.
func (s *Spec) Validate() error {
	if s.Root == "" {
		return newError(KindInvalidSpec, "", nil, "tree %q has no root", s.Name)
	}

	known := map[string]bool{".": true}
	for _, d := range s.Directories {
		if _, err := Compose(s.Root, d); err != nil {
			return newError(KindInvalidSpec, d, err, "invalid directory")
		}
		for p := path.Clean(d); p != "." && !known[p]; p = path.Dir(p) {
			known[p] = true
		}
	}

	seen := make(map[string]bool, len(s.Files))
	for _, f := range s.Files {
		if _, err := Compose(s.Root, f.Path); err != nil {
			return newError(KindInvalidSpec, f.Path, err, "invalid file path")
		}
		clean := path.Clean(f.Path)
		if clean == "." {
			return newError(KindInvalidSpec, f.Path, nil, "file path names the tree root")
		}
		if seen[clean] {
			return newError(KindInvalidSpec, f.Path, nil, "file %s listed twice", clean)
		}
		seen[clean] = true
		if parent := parentOf(clean); !known[parent] {
			return newError(KindInvalidSpec, f.Path, nil, "parent directory %s of %s is not declared", parent, clean)
		}
	}
	return nil
}

// SortedFiles returns the files ordered by path, for deterministic output.
func (s *Spec) SortedFiles() []FileEntry {
	files := make([]FileEntry, len(s.Files))
	copy(files, s.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// String identifies the spec in messages.
func (s *Spec) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Root)
}
