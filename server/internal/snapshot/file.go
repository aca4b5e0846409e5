package snapshot

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileSource reads bots, workers and logs documents from a directory.
type FileSource struct {
	dir    string
	format string
}

// NewFileSource returns a FileSource reading <dir>/<collection>.<format>.
// For the yaml format the .yml extension is accepted as a fallback.
func NewFileSource(dir, format string) *FileSource {
	return &FileSource{dir: dir, format: format}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file:" + s.dir }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (*Raw, error) {
	docs := make(map[string][]byte, 3)
	for _, name := range []string{Bots, Workers, Logs} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.read(name)
		if err != nil {
			return nil, err
		}
		docs[name] = data
	}
	return decodeAll(s.format, docs)
}

func (s *FileSource) read(name string) ([]byte, error) {
	path := filepath.Join(s.dir, name+"."+s.format)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && s.format == "yaml" {
		alt := filepath.Join(s.dir, name+".yml")
		if altData, altErr := os.ReadFile(alt); altErr == nil {
			return altData, nil
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}
