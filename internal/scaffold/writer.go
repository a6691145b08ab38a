package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FilePerm is the mode used for written files.
const FilePerm os.FileMode = 0o644

// WriteFile writes content to path, truncating any existing file. The parent
// directory must already exist; WriteFile never creates it.
func WriteFile(fsys afero.Fs, path string, content []byte) error {
	if info, err := fsys.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		return newError(KindFileWrite, path, err, "parent directory of %s does not exist", path)
	}
	if err := afero.WriteFile(fsys, path, content, FilePerm); err != nil {
		return newError(KindFileWrite, path, err, "writing %s", path)
	}
	return nil
}

// writeFileAtomic replaces path via a temp file in the same directory plus a
// rename, so a failure leaves the original content in place.
func writeFileAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	tmp, err := afero.TempFile(fsys, filepath.Dir(path), ".stackgen-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = fsys.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fsys.Chmod(tmpPath, perm); err != nil {
		return err
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	success = true
	return nil
}
