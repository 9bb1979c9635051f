package outwriter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/climdash/internal/contract"
)

var _ contract.FileSaver = &DirSaver{} // Compile-time check

// DirSaver hands files to the user by writing them into a directory.
type DirSaver struct {
	Dir      string
	UseEmoji bool
}

// NewDirSaver creates a saver for dir. An empty dir means the working directory.
func NewDirSaver(dir string, useEmoji bool) *DirSaver {
	return &DirSaver{Dir: dir, UseEmoji: useEmoji}
}

// Save writes data to the named file, replacing any previous content.
func (s *DirSaver) Save(name string, data []byte) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid file name %q", name)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	contract.LogInfo(s.UseEmoji, "💾", fmt.Sprintf("Saved %s", path))
	return nil
}
