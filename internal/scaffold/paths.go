package scaffold

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Compose joins a forward-slash relative path onto root using the host path
// separator. The empty string and "." name root itself. Absolute paths and
// paths that climb out of root are rejected.
func Compose(root, rel string) (string, error) {
	if rel == "" || rel == "." {
		return filepath.Clean(root), nil
	}
	if strings.Contains(rel, `\`) {
		return "", fmt.Errorf("path %q must use forward slashes", rel)
	}
	if path.IsAbs(rel) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative", rel)
	}

	native := filepath.FromSlash(path.Clean(rel))
	if !filepath.IsLocal(native) {
		return "", fmt.Errorf("path %q escapes the scaffold root", rel)
	}
	return filepath.Join(root, native), nil
}

// parentOf returns the forward-slash parent of rel, "." for top-level entries.
func parentOf(rel string) string {
	return path.Dir(path.Clean(rel))
}
