package config

import (
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// WriteDefault writes DefaultConfigYAML to path atomically. An existing file
// is left untouched unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return os.ErrExist
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return renameio.WriteFile(path, []byte(DefaultConfigYAML), 0o600)
}
