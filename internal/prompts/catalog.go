package prompts

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
)

// Well-known prompt names.
const (
	IntentClassification = "intent_classification"
	ReceptionistSystem   = "receptionist_system"
	TriageSystem         = "triage_system"
)

//go:embed defaults/*.txt
var defaultFS embed.FS

// Source loads prompt texts keyed by name from some backing store.
type Source interface {
	Load(ctx context.Context) (map[string]string, error)
	Describe() string
}

// Catalog is an immutable name → system-prompt mapping.
type Catalog struct {
	prompts map[string]string
}

// Defaults returns the built-in prompts shipped with the binary.
func Defaults() map[string]string {
	out := make(map[string]string)
	entries, err := fs.ReadDir(defaultFS, "defaults")
	if err != nil {
		return out
	}
	for _, e := range entries {
		data, err := defaultFS.ReadFile(path.Join("defaults", e.Name()))
		if err != nil {
			continue
		}
		out[strings.TrimSuffix(e.Name(), ".txt")] = strings.TrimSpace(string(data))
	}
	return out
}

// NewCatalog builds a catalog from the built-in defaults overlaid with prompts.
func NewCatalog(prompts map[string]string) *Catalog {
	merged := Defaults()
	for name, text := range prompts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		merged[name] = text
	}
	return &Catalog{prompts: merged}
}

// Load builds a catalog from src. When src is nil or unavailable the
// built-in defaults are used and the failure is only logged.
func Load(ctx context.Context, src Source, logger *slog.Logger) *Catalog {
	if src == nil {
		return NewCatalog(nil)
	}

	loaded, err := src.Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("prompt source not found, using defaults", "source", src.Describe())
		} else {
			logger.Warn("prompt source unavailable, using defaults", "source", src.Describe(), "error", err)
		}
		return NewCatalog(nil)
	}

	logger.Debug("prompts loaded", "source", src.Describe(), "count", len(loaded))
	return NewCatalog(loaded)
}

// Get returns the prompt text for name, or "" if unknown.
func (c *Catalog) Get(name string) string {
	return c.prompts[name]
}

// Names lists every prompt name in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.prompts))
	for name := range c.prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
