package splits

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/babystarcloud/bundletool/internal/manifest"
	"github.com/babystarcloud/bundletool/internal/targeting"
)

// Content gives access to the bytes of an entry. Implementations must return the same bytes on
// every call.
type Content interface {
	Open() (io.ReadCloser, error)
}

// Bytes is in-memory entry content.
type Bytes []byte

func (b Bytes) Open() (io.ReadCloser, error) {
	return ioutil.NopCloser(bytes.NewReader(b)), nil
}

// Entry is a file of a module or split. Paths are slash-separated and relative to the module root.
type Entry struct {
	Path    string
	Content Content
}

type ContentType uint8

const (
	OtherContent ContentType = iota
	Assets
	NativeLibraries
	Resources
	ApexImages
)

func (c ContentType) String() string {
	switch c {
	case Assets:
		return "assets"
	case NativeLibraries:
		return "native"
	case Resources:
		return "resources"
	case ApexImages:
		return "apex"
	default:
		return "other"
	}
}

// TargetedDirectory is a content directory together with the targeting it declares. Entries
// belong to the deepest targeted directory containing them. An APEX image is its own targeted
// "directory".
type TargetedDirectory struct {
	Content   ContentType
	Path      string
	Targeting targeting.DirectoryTargeting
}

type ModuleType uint8

const (
	FeatureModule ModuleType = iota
	AssetModule
)

func (t ModuleType) String() string {
	if t == AssetModule {
		return "asset-pack"
	}
	return "feature"
}

// Module is the content of a single bundle module as handed to split generation.
type Module struct {
	Name        string
	Type        ModuleType
	Manifest    *manifest.Manifest
	Entries     []Entry
	Directories []TargetedDirectory
}

func (m Module) IsBase() bool {
	return m.Name == targeting.BaseModuleName
}
