package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/stackgen-labs/stackgen/internal/installer"
)

// faultyFs fails directory creation or file opens under configured paths.
type faultyFs struct {
	afero.Fs
	failMkdir string
	failOpen  string
}

func (f *faultyFs) MkdirAll(p string, perm os.FileMode) error {
	if f.failMkdir != "" && under(p, f.failMkdir) {
		return &os.PathError{Op: "mkdir", Path: p, Err: os.ErrPermission}
	}
	return f.Fs.MkdirAll(p, perm)
}

func (f *faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if f.failOpen != "" && name == f.failOpen {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func under(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+string(filepath.Separator))
}

// fakeInstaller records calls and returns a canned outcome.
type fakeInstaller struct {
	status   installer.Status
	exitCode int
	dirs     []string
	deadline bool
}

func (f *fakeInstaller) Install(ctx context.Context, dir string) installer.Outcome {
	f.dirs = append(f.dirs, dir)
	_, f.deadline = ctx.Deadline()
	out := installer.Outcome{
		Request:  installer.Request{Dir: dir, Command: "npm", Args: []string{"install"}},
		Status:   f.status,
		ExitCode: f.exitCode,
	}
	if f.status == installer.StatusInvocationFailed {
		out.Reason = os.ErrNotExist
	}
	return out
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func clientSpec(root string) Spec {
	return Spec{
		Name:        "client",
		Root:        root,
		Directories: []string{"public", "src/components/common", "src/components/common", "src/hooks"},
		Files: []FileEntry{
			{Path: "src/index.jsx", Content: []byte("import App from './App';\n")},
			{Path: "package.json", Content: []byte("{\n  \"name\": \"client\",\n  \"dependencies\": {\n    \"react\": \"^18.2.0\"\n  }\n}\n")},
			{Path: ".gitignore", Content: []byte("node_modules\n")},
			{Path: "public/index.html", Content: nil},
		},
	}
}

func backendSpec(root string) Spec {
	return Spec{
		Name:        "backend",
		Root:        root,
		Directories: []string{"config", "routes", "tests"},
		Files: []FileEntry{
			{Path: "app.js", Content: []byte("const express = require('express');\n")},
			{Path: "server.js", Content: []byte("const app = require('./app');\n")},
		},
	}
}
