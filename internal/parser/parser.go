// Package parser reads the modules of an unpacked bundle and derives the targeting of their content
// directories from the directory naming conventions.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"sort"

	"go.uber.org/zap"

	"github.com/babystarcloud/bundletool/internal/filecache"
	"github.com/babystarcloud/bundletool/internal/manifest"
	"github.com/babystarcloud/bundletool/internal/splits"
)

// Parse reads the named modules of the bundle. When no names are given every module of the bundle is
// read. Modules are returned in the order of their names.
func Parse(log *zap.Logger, fc filecache.FileCache, names ...string) ([]splits.Module, error) {
	if len(names) == 0 {
		var err error
		if names, err = fc.Modules(); err != nil {
			return nil, err
		}
	}
	names = append([]string(nil), names...)
	sort.Strings(names)

	ms := make([]splits.Module, 0, len(names))
	for _, n := range names {
		m, err := ParseModule(log, fc, n)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// ParseModule reads a single module: its manifest, its entries and its targeted directories.
func ParseModule(log *zap.Logger, fc filecache.FileCache, name string) (splits.Module, error) {
	log = log.With(zap.String("module", name))

	mb, err := fc.ReadFile(name, filecache.ManifestPath)
	if err != nil {
		log.Error("Unable to read the module manifest.", zap.Error(err))
		return splits.Module{}, err
	}
	mf, err := manifest.Parse(bytes.NewReader(mb))
	if err != nil {
		log.Error("Unable to parse the module manifest.", zap.Error(err))
		return splits.Module{}, fmt.Errorf("module %q: %w", name, err)
	}

	files, err := fc.Files(name)
	if err != nil {
		return splits.Module{}, err
	}
	var paths []string
	for f := range files {
		if f != filecache.ManifestPath {
			paths = append(paths, f)
		}
	}
	sort.Strings(paths)

	m := splits.Module{
		Name:     name,
		Type:     moduleType(mf),
		Manifest: mf,
	}
	for _, p := range paths {
		m.Entries = append(m.Entries, splits.Entry{Path: p, Content: &fileContent{fc: fc, module: name, path: p}})
	}
	m.Directories = targetedDirectories(paths)

	log.Debug(
		"Parsed module.",
		zap.Stringer("type", m.Type),
		zap.Int("entries", len(m.Entries)),
		zap.Int("targeted-directories", len(m.Directories)),
	)
	for _, d := range m.Directories {
		log.Debug("Targeted directory.", zap.String("path", d.Path), zap.Stringer("targeting", d.Targeting))
	}
	return m, nil
}

func moduleType(m *manifest.Manifest) splits.ModuleType {
	if t, ok := m.ModuleType(); ok && t == splits.AssetModule.String() {
		return splits.AssetModule
	}
	return splits.FeatureModule
}

// fileContent reads an entry lazily from the filecache.
type fileContent struct {
	fc     filecache.FileCache
	module string
	path   string
}

func (c *fileContent) Open() (io.ReadCloser, error) {
	b, err := c.fc.ReadFile(c.module, c.path)
	if err != nil {
		return nil, err
	}
	return ioutil.NopCloser(bytes.NewReader(b)), nil
}
