package filecache

import (
	"github.com/babystarcloud/bundletool/internal/filecache/testcache"
	"github.com/babystarcloud/bundletool/internal/filecache/uncache"
)

// Ensure that we implement the required interface.
var (
	_ FileCache = &testcache.FakeFileCache{}
	_ FileCache = &uncache.Uncache{}
)

type Type uint8

const (
	Unknown Type = iota
	Uncache
	TestCache
)

// FileCache represents an abstraction for read-only access to the files of an unpacked bundle: one
// top-level directory per module, each with a 'manifest/AndroidManifest.xml' and its content
// directories.
type FileCache interface {
	// Path to the root of the bundle abstracted by this filecache.
	Root() string
	// Names of the modules contained in the bundle, sorted.
	Modules() ([]string, error)
	// Set of all files contained within the specified module. The returned paths are relative to the
	// module's root.
	Files(module string) (map[string]bool, error)
	// Retrieve the content of a file of a module. The path argument is interpreted as relative to the
	// root of the module.
	ReadFile(module string, path string) ([]byte, error)
}

// ManifestPath is the location of a module's manifest relative to the module's root.
const ManifestPath = "manifest/AndroidManifest.xml"
