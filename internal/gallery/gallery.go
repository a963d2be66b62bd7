// Package gallery persists annotated session photos on disk and serves
// them back by name.
package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Gallery stores annotated JPEGs under a single directory. File names
// follow detected_<sessionID>_<index>.jpg so one directory can hold
// every session.
type Gallery struct {
	dir string
}

// New creates the gallery directory if needed.
func New(dir string) (*Gallery, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create gallery dir: %w", err)
	}
	return &Gallery{dir: dir}, nil
}

// ImageName returns the canonical file name for one annotated photo.
func ImageName(sessionID int64, index int) string {
	return fmt.Sprintf("detected_%d_%d.jpg", sessionID, index)
}

// Save writes one annotated photo and returns its file name.
func (g *Gallery) Save(sessionID int64, index int, jpegData []byte) (string, error) {
	name := ImageName(sessionID, index)
	if err := os.WriteFile(filepath.Join(g.dir, name), jpegData, 0o644); err != nil {
		return "", fmt.Errorf("failed to save annotated photo: %w", err)
	}
	return name, nil
}

// List returns the file names stored for a session, sorted.
func (g *Gallery) List(sessionID int64) ([]string, error) {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read gallery dir: %w", err)
	}

	prefix := fmt.Sprintf("detected_%d_", sessionID)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".jpg") {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}

// Open returns the bytes of one stored photo. The name is validated
// against path traversal before touching the filesystem.
func (g *Gallery) Open(name string) ([]byte, error) {
	if name != filepath.Base(name) || !strings.HasPrefix(name, "detected_") {
		return nil, fmt.Errorf("invalid image name: %s", name)
	}
	data, err := os.ReadFile(filepath.Join(g.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read annotated photo: %w", err)
	}
	return data, nil
}
