package testcache

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/rogpeppe/go-internal/txtar"
)

const manifestPath = "manifest/AndroidManifest.xml"

type FakeFileCacheEntry struct {
	Data []byte
}

// FakeFileCache is an in-memory filecache. Files are keyed by their path relative to the bundle root,
// i.e. '<module>/<path>'.
type FakeFileCache struct {
	dir         string
	fileEntries map[string]FakeFileCacheEntry
}

func NewFakeFileCache(root string, files map[string]FakeFileCacheEntry) (*FakeFileCache, error) {
	ifs := map[string]FakeFileCacheEntry{}
	for f, e := range files {
		if strings.HasPrefix(f, ".git/") {
			continue
		}
		ifs[path.Clean(f)] = e
	}
	if len(ifs) == 0 {
		return nil, errors.New("no files in specified cache entries")
	}

	return &FakeFileCache{
		dir:         root,
		fileEntries: ifs,
	}, nil
}

// FromTxtar builds a filecache from the files of a txtar archive.
func FromTxtar(root string, a *txtar.Archive) (*FakeFileCache, error) {
	fe := map[string]FakeFileCacheEntry{}
	for _, f := range a.Files {
		fe[f.Name] = FakeFileCacheEntry{Data: f.Data}
	}
	return NewFakeFileCache(root, fe)
}

func (c FakeFileCache) Root() string {
	return c.dir
}

func (c FakeFileCache) Modules() ([]string, error) {
	var ms []string
	for f := range c.fileEntries {
		if i := strings.IndexByte(f, '/'); i > 0 && f[i+1:] == manifestPath {
			ms = append(ms, f[:i])
		}
	}
	sort.Strings(ms)
	return ms, nil
}

func (c FakeFileCache) Files(module string) (map[string]bool, error) {
	if _, ok := c.fileEntries[path.Join(module, manifestPath)]; !ok {
		return nil, fmt.Errorf("module %q is not part of the bundle", module)
	}
	fs := map[string]bool{}
	for p := range c.fileEntries {
		if strings.HasPrefix(p, module+"/") {
			fs[strings.TrimPrefix(p, module+"/")] = true
		}
	}
	return fs, nil
}

func (c FakeFileCache) ReadFile(module string, p string) ([]byte, error) {
	p = path.Join(module, path.Clean(p))

	f, ok := c.fileEntries[p]
	if !ok {
		return nil, fmt.Errorf("file %q is not part of the bundle", p)
	}
	cd := make([]byte, len(f.Data))
	copy(cd, f.Data)
	return cd, nil
}
