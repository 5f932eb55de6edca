// Package artifacts provides the places recommendation artifacts can be read from.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ewilliams-labs/melodimatch/internal/catalog"
)

// LocalSource reads artifacts from a directory.
type LocalSource struct {
	Dir string
}

// compile-time interface assertion
var _ catalog.Source = (*LocalSource)(nil)

// NewLocalSource constructs a LocalSource rooted at dir.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{Dir: dir}
}

// Stat returns size and modification time as the signature.
func (s *LocalSource) Stat(ctx context.Context, name string) (string, error) {
	info, err := os.Stat(s.path(name))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano()), nil
}

// Fetch returns the file's path after checking it exists.
func (s *LocalSource) Fetch(ctx context.Context, name string) (string, error) {
	p := s.path(name)
	if _, err := os.Stat(p); err != nil {
		return "", err
	}
	return p, nil
}

func (s *LocalSource) path(name string) string {
	return filepath.Join(s.Dir, name)
}
