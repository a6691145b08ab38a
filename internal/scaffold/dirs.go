package scaffold

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DirPerm is the mode used for created directories.
const DirPerm os.FileMode = 0o755

// EnsureDirs creates root and then each directory under it, in order,
// including missing ancestors. Directories that already exist are skipped.
// It returns the relative paths it actually created. The first failure is
// returned as a KindPathCreation error and stops the sequence.
func EnsureDirs(fsys afero.Fs, root string, dirs []string, log *zerolog.Logger) ([]string, error) {
	var created []string

	all := append([]string{"."}, dirs...)
	for _, rel := range all {
		p, err := Compose(root, rel)
		if err != nil {
			return created, newError(KindPathCreation, rel, err, "composing directory path")
		}

		made, err := ensureDir(fsys, p)
		if err != nil {
			return created, newError(KindPathCreation, p, err, "creating directory %s", p)
		}
		if made {
			created = append(created, rel)
			log.Debug().Str("path", p).Msg("created directory")
		} else {
			log.Debug().Str("path", p).Msg("directory exists")
		}
	}
	return created, nil
}

// ensureDir creates path if needed and reports whether it did.
func ensureDir(fsys afero.Fs, path string) (bool, error) {
	if info, err := fsys.Stat(path); err == nil {
		if info.IsDir() {
			return false, nil
		}
		return false, fmt.Errorf("%s exists but is not a directory", path)
	}

	if err := fsys.MkdirAll(path, DirPerm); err != nil {
		return false, err
	}
	return true, nil
}
