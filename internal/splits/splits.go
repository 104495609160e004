package splits

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/babystarcloud/bundletool/internal/manifest"
	"github.com/babystarcloud/bundletool/internal/targeting"
)

// ErrDuplicateEntry is returned when a split would contain two entries with the same path.
var ErrDuplicateEntry = errors.New("duplicate entry path")

// Split is the content, targeting and manifest of one installable package derived from a module.
// Splits are immutable: every transformation returns a new Split.
type Split struct {
	moduleName       string
	moduleType       ModuleType
	master           bool
	entries          []Entry
	directories      []TargetedDirectory
	manifest         *manifest.Manifest
	apkTargeting     targeting.Targeting
	variantTargeting targeting.Targeting
}

// Builder assembles a Split. Targeting selections are accumulated and validated by Build.
type Builder struct {
	s       Split
	apk     []targeting.Selection
	variant []targeting.Selection
}

func NewBuilder() *Builder {
	return &Builder{}
}

// ForModule seeds the master split of a module: all of its content and no targeting.
func ForModule(m Module) (*Split, error) {
	return NewBuilder().
		SetModuleName(m.Name).
		SetModuleType(m.Type).
		SetMasterSplit(true).
		SetEntries(m.Entries).
		SetDirectories(m.Directories).
		SetManifest(m.Manifest).
		Build()
}

// ToBuilder returns a builder initialised with the content of the split.
func (s *Split) ToBuilder() *Builder {
	b := &Builder{s: *s}
	b.s.entries = append([]Entry(nil), s.entries...)
	b.s.directories = append([]TargetedDirectory(nil), s.directories...)
	if sel, ok := s.apkTargeting.Selection(); ok {
		b.apk = []targeting.Selection{sel}
	}
	if sel, ok := s.variantTargeting.Selection(); ok {
		b.variant = []targeting.Selection{sel}
	}
	return b
}

func (b *Builder) SetModuleName(name string) *Builder {
	b.s.moduleName = name
	return b
}

func (b *Builder) SetModuleType(t ModuleType) *Builder {
	b.s.moduleType = t
	return b
}

func (b *Builder) SetMasterSplit(master bool) *Builder {
	b.s.master = master
	return b
}

func (b *Builder) SetEntries(es []Entry) *Builder {
	b.s.entries = append([]Entry(nil), es...)
	return b
}

func (b *Builder) SetDirectories(ds []TargetedDirectory) *Builder {
	b.s.directories = append([]TargetedDirectory(nil), ds...)
	return b
}

func (b *Builder) SetManifest(m *manifest.Manifest) *Builder {
	b.s.manifest = m
	return b
}

// SetApkTargeting replaces any apk targeting selections.
func (b *Builder) SetApkTargeting(t targeting.Targeting) *Builder {
	b.apk = nil
	if sel, ok := t.Selection(); ok {
		b.apk = append(b.apk, sel)
	}
	return b
}

// AddApkTargeting adds a selection to the apk targeting.
func (b *Builder) AddApkTargeting(sel targeting.Selection) *Builder {
	b.apk = append(b.apk, sel)
	return b
}

// SetVariantTargeting replaces any variant targeting selections.
func (b *Builder) SetVariantTargeting(t targeting.Targeting) *Builder {
	b.variant = nil
	if sel, ok := t.Selection(); ok {
		b.variant = append(b.variant, sel)
	}
	return b
}

// AddVariantTargeting adds a selection to the variant targeting.
func (b *Builder) AddVariantTargeting(sel targeting.Selection) *Builder {
	b.variant = append(b.variant, sel)
	return b
}

// Build validates the accumulated state and returns the split. It fails if the apk or variant
// targeting sets more than one dimension, if the module name is missing or if two entries share a
// path.
func (b *Builder) Build() (*Split, error) {
	s := b.s
	if s.moduleName == "" {
		return nil, errors.New("split has no module name")
	}

	var err error
	if s.apkTargeting, err = targeting.New(b.apk...); err != nil {
		return nil, fmt.Errorf("invalid apk targeting for split of module %q: %w", s.moduleName, err)
	}
	if s.variantTargeting, err = targeting.New(b.variant...); err != nil {
		return nil, fmt.Errorf("invalid variant targeting for split of module %q: %w", s.moduleName, err)
	}

	seen := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		if seen[e.Path] {
			return nil, fmt.Errorf("%w %q in split of module %q", ErrDuplicateEntry, e.Path, s.moduleName)
		}
		seen[e.Path] = true
	}

	s.entries = append([]Entry(nil), s.entries...)
	s.directories = append([]TargetedDirectory(nil), s.directories...)
	return &s, nil
}

func (s *Split) ModuleName() string {
	return s.moduleName
}

func (s *Split) ModuleType() ModuleType {
	return s.moduleType
}

func (s *Split) IsMasterSplit() bool {
	return s.master
}

func (s *Split) IsBaseModule() bool {
	return s.moduleName == targeting.BaseModuleName
}

// Entries returns a copy of the split's entries in order.
func (s *Split) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Directories returns a copy of the split's targeted directories in order.
func (s *Split) Directories() []TargetedDirectory {
	return append([]TargetedDirectory(nil), s.directories...)
}

// DirectoriesOf returns the targeted directories of one content type.
func (s *Split) DirectoriesOf(c ContentType) []TargetedDirectory {
	var ds []TargetedDirectory
	for _, d := range s.directories {
		if d.Content == c {
			ds = append(ds, d)
		}
	}
	return ds
}

// Manifest returns the split's manifest. It may be nil for splits that do not carry one.
func (s *Split) Manifest() *manifest.Manifest {
	return s.manifest
}

func (s *Split) ApkTargeting() targeting.Targeting {
	return s.apkTargeting
}

func (s *Split) VariantTargeting() targeting.Targeting {
	return s.variantTargeting
}

// Suffix is the split name suffix derived from the apk targeting.
func (s *Split) Suffix() string {
	return s.apkTargeting.Suffix()
}

// SplitID is the identifier of the split written into its manifest.
func (s *Split) SplitID() string {
	return targeting.SplitID(s.moduleName, s.IsBaseModule(), s.master, s.Suffix())
}

// EntriesUnder returns the entries located below the given directory.
func (s *Split) EntriesUnder(dir string) []Entry {
	dir = strings.TrimSuffix(path.Clean(dir), "/")
	var es []Entry
	for _, e := range s.entries {
		if strings.HasPrefix(e.Path, dir+"/") {
			es = append(es, e)
		}
	}
	return es
}

func (s *Split) String() string {
	id := s.SplitID()
	if id == "" {
		id = "<base>"
	}
	return fmt.Sprintf("%s (module %s, %d entries, targeting %s)", id, s.moduleName, len(s.entries), s.apkTargeting)
}
