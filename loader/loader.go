// Package loader reads explorations and widget catalogs from YAML
// files.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/render"
	"github.com/Comcast/pathways/storage"

	"github.com/jsccast/yaml"
	"go.uber.org/zap"
)

// Hash computes the Base64-encoded SHA256 hash of the given data.
func Hash(data []byte) string {
	h := sha256.New()
	h.Write(data)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// ParseExploration parses and compiles an exploration from YAML.
//
// If the exploration doesn't have an id, the given default id is used.
// The exploration's Version is the hash of the source.
func ParseExploration(ctx context.Context, defaultId string, bs []byte, interpreters map[string]core.Interpreter) (*core.Exploration, error) {
	var e core.Exploration
	if err := yaml.Unmarshal(bs, &e); err != nil {
		return nil, err
	}
	if e.Id == "" {
		e.Id = defaultId
	}
	e.Version = Hash(bs)

	if err := e.Compile(ctx, interpreters, true); err != nil {
		return nil, err
	}

	return &e, nil
}

// ReadExploration reads an exploration from a YAML file.  The default
// id is the file's base name without its extension.
func ReadExploration(ctx context.Context, filename string, interpreters map[string]core.Interpreter) (*core.Exploration, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(filename)
	if i := strings.LastIndex(name, "."); 0 < i {
		name = name[0:i]
	}
	e, err := ParseExploration(ctx, name, bs, interpreters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return e, nil
}

// ReadDir reads all the .yaml files in the given directory as
// explorations.  The results are sorted by id.
func ReadDir(ctx context.Context, dir string, interpreters map[string]core.Interpreter, logger *zap.Logger) ([]*core.Exploration, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("ReadDir", zap.String("dir", dir))

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	acc := make([]*core.Exploration, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, fi := range files {
		name := fi.Name()
		if fi.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		e, err := ReadExploration(ctx, filepath.Join(dir, name), interpreters)
		if err != nil {
			return nil, err
		}
		if other, have := seen[e.Id]; have {
			return nil, fmt.Errorf("exploration %q in both %s and %s", e.Id, other, name)
		}
		seen[e.Id] = name

		logger.Debug("Read and compiled exploration",
			zap.String("exploration", e.Id),
			zap.String("version", e.Version))

		acc = append(acc, e)
	}

	sort.Slice(acc, func(i, j int) bool {
		return acc[i].Id < acc[j].Id
	})

	logger.Info("Loaded explorations", zap.Int("count", len(acc)))

	return acc, nil
}

// Load reads the explorations in the directory and puts them in the
// Store.
func Load(ctx context.Context, s storage.Store, dir string, interpreters map[string]core.Interpreter, logger *zap.Logger) (int, error) {
	es, err := ReadDir(ctx, dir, interpreters, logger)
	if err != nil {
		return 0, err
	}
	for _, e := range es {
		if err := s.PutExploration(ctx, e); err != nil {
			return 0, fmt.Errorf("storing %s: %w", e.Id, err)
		}
	}
	return len(es), nil
}

// Catalog is the YAML form of a widget catalog.
type Catalog struct {
	Widgets []*render.WidgetCode `yaml:"widgets"`
}

// ParseCatalog parses a widget catalog from YAML.
func ParseCatalog(bs []byte) (*render.MapCatalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(bs, &c); err != nil {
		return nil, err
	}
	for i, w := range c.Widgets {
		if w == nil || w.Id == "" {
			return nil, fmt.Errorf("widget %d has no id", i)
		}
	}
	return render.NewMapCatalog(c.Widgets...), nil
}

// ReadCatalog reads a widget catalog from a YAML file.
func ReadCatalog(filename string) (*render.MapCatalog, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	c, err := ParseCatalog(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}
