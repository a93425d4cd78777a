package typegen

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/teranos/pbts/errors"
)

// WriteFile writes f under root through a temporary file in the target
// directory and an atomic rename. A file whose content is already on disk is
// left untouched and reported as unchanged.
func WriteFile(root string, f OutputFile) (bool, error) {
	path := filepath.Join(root, filepath.FromSlash(f.Path))

	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, f.Content) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.WrapWriteFailed(err, path)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return false, errors.WrapWriteFailed(err, path)
	}
	defer pending.Cleanup()

	if _, err := pending.Write(f.Content); err != nil {
		return false, errors.WrapWriteFailed(err, path)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return false, errors.WrapWriteFailed(err, path)
	}
	return true, nil
}
