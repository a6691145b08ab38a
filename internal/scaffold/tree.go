package scaffold

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ddddddO/gtree"
	"github.com/spf13/afero"
)

// skipContents lists directories whose contents are not listed.
var skipContents = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// List returns every entry under root as a sorted forward-slash relative
// path. Directories carry a trailing slash.
func List(fsys afero.Fs, root string) ([]string, error) {
	var entries []string
	err := afero.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			entries = append(entries, rel+"/")
			if skipContents[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		entries = append(entries, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	return entries, nil
}

// RenderTree prints the tree under root using box-drawing characters.
func RenderTree(w io.Writer, fsys afero.Fs, root string) error {
	entries, err := List(fsys, root)
	if err != nil {
		return err
	}

	top := gtree.NewRoot(filepath.Base(root) + "/")
	nodes := map[string]*gtree.Node{".": top}

	for _, e := range entries {
		isDir := e[len(e)-1] == '/'
		rel := filepath.ToSlash(filepath.Clean(e))
		parent := nodes[parentOf(rel)]
		if parent == nil {
			parent = top
		}
		label := filepath.Base(rel)
		if isDir {
			label += "/"
		}
		nodes[rel] = parent.Add(label)
	}

	return gtree.OutputProgrammably(w, top)
}
