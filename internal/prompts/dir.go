package prompts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirSource reads every *.txt file in a directory; the file stem is the prompt name.
type DirSource struct {
	dir string
}

// NewDirSource returns a source reading prompts from dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Describe names the source for logs.
func (s *DirSource) Describe() string {
	return "dir:" + s.dir
}

// Load reads the directory. A missing directory yields an error wrapping fs.ErrNotExist.
func (s *DirSource) Load(_ context.Context) (map[string]string, error) {
	if _, err := os.Stat(s.dir); err != nil {
		return nil, fmt.Errorf("prompt dir %s: %w", s.dir, err)
	}

	files, err := filepath.Glob(filepath.Join(s.dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("list prompt dir %s: %w", s.dir, err)
	}

	out := make(map[string]string, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", f, err)
		}
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		out[name] = strings.TrimSpace(string(data))
	}
	return out, nil
}
