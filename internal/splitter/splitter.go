// Package splitter partitions splits along a single targeting dimension.
package splitter

import (
	"fmt"
	"sort"

	"github.com/babystarcloud/bundletool/internal/splits"
	"github.com/babystarcloud/bundletool/internal/targeting"
)

// Splitter partitions the content of a split by the values declared for one dimension on its
// targeted directories.
type Splitter struct {
	dimension   targeting.Dimension
	stripSuffix bool
}

// ForDimension returns the splitter of a dimension. When stripSuffix is set the '#<key>_<value>'
// markers of the dimension are removed from the paths of the value splits.
func ForDimension(d targeting.Dimension, stripSuffix bool) Splitter {
	return Splitter{dimension: d, stripSuffix: stripSuffix}
}

// TextureCompression returns the splitter of the texture compression format dimension.
func TextureCompression(stripSuffix bool) Splitter {
	return ForDimension(targeting.TextureCompressionFormat, stripSuffix)
}

// DeviceTier returns the splitter of the device tier dimension.
func DeviceTier(stripSuffix bool) Splitter {
	return ForDimension(targeting.DeviceTier, stripSuffix)
}

func (s Splitter) Dimension() targeting.Dimension {
	return s.dimension
}

// group collects the content of one output split.
type group struct {
	sel     targeting.Selection
	entries []splits.Entry
	dirs    []splits.TargetedDirectory
	alts    []string
}

// Split partitions the input into a default split holding everything not targeted on the dimension,
// one split per value declared on the directories and one split for directories that only declare
// alternatives. Every input entry ends up in exactly one output split. Inputs that are already
// targeted, or that declare no directory for the dimension, are returned unchanged.
//
// Output order is deterministic: the default split first, then the value splits ordered by value and
// finally the alternatives-only split.
func (s Splitter) Split(in *splits.Split) ([]*splits.Split, error) {
	if !in.ApkTargeting().IsDefault() || !s.declaresDimension(in) {
		return []*splits.Split{in}, nil
	}

	dirs := in.Directories()
	idx := splits.NewDirectoryIndex(dirs)

	def := &group{}
	other := &group{}
	values := map[string]*group{}

	groupOf := func(sel targeting.Selection, ok bool) *group {
		switch {
		case !ok:
			return def
		case sel.IsAlternativesOnly():
			return other
		}
		key := s.valueKey(sel)
		g, found := values[key]
		if !found {
			g = &group{}
			values[key] = g
		}
		return g
	}

	for _, d := range dirs {
		sel, ok := d.Targeting.Get(s.dimension)
		g := groupOf(sel, ok)
		if ok {
			g.sel = sel
			g.alts = append(g.alts, sel.Alternatives...)
		}
		g.dirs = append(g.dirs, d)
	}
	for _, e := range in.Entries() {
		d, found := idx.Lookup(e.Path)
		var sel targeting.Selection
		var ok bool
		if found {
			sel, ok = d.Targeting.Get(s.dimension)
		}
		g := groupOf(sel, ok)
		g.entries = append(g.entries, e)
	}

	out := make([]*splits.Split, 0, len(values)+2)
	d, err := in.ToBuilder().
		SetEntries(def.entries).
		SetDirectories(def.dirs).
		Build()
	if err != nil {
		return nil, err
	}
	out = append(out, d)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := s.buildTargeted(in, values[k])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if len(other.dirs) > 0 || len(other.entries) > 0 {
		o, err := s.buildTargeted(in, other)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s Splitter) declaresDimension(in *splits.Split) bool {
	for _, d := range in.Directories() {
		if _, ok := d.Targeting.Get(s.dimension); ok {
			return true
		}
	}
	return false
}

func (s Splitter) valueKey(sel targeting.Selection) string {
	key := ""
	for i, v := range sel.Values {
		if i > 0 {
			key += "\x00"
		}
		key += v
	}
	return key
}

func (s Splitter) buildTargeted(in *splits.Split, g *group) (*splits.Split, error) {
	sel := targeting.NewSelection(s.dimension, g.sel.Values, g.alts)

	entries := g.entries
	dirs := g.dirs
	if s.stripSuffix {
		var err error
		if entries, dirs, err = stripPaths(in, s.dimension, entries, dirs); err != nil {
			return nil, err
		}
	}

	b := in.ToBuilder().
		SetMasterSplit(false).
		SetEntries(entries).
		SetDirectories(dirs).
		SetApkTargeting(targeting.Targeting{}).
		AddApkTargeting(sel)
	if s.dimension.IsVariantLevel() {
		b = b.SetVariantTargeting(targeting.Targeting{}).AddVariantTargeting(sel)
	}
	return b.Build()
}

// stripPaths removes the dimension's suffix markers from entry and directory paths. Directories that
// end up sharing a path are merged, keeping the first one. Entries that collide are an error.
func stripPaths(in *splits.Split, d targeting.Dimension, entries []splits.Entry, dirs []splits.TargetedDirectory) ([]splits.Entry, []splits.TargetedDirectory, error) {
	seen := map[string]string{}
	var es []splits.Entry
	for _, e := range entries {
		orig := e.Path
		e.Path = splits.StripSuffix(e.Path, d)
		if prev, ok := seen[e.Path]; ok {
			return nil, nil, fmt.Errorf("%w %q in module %q: both %q and %q map to it once the %s suffixes are removed",
				splits.ErrDuplicateEntry, e.Path, in.ModuleName(), prev, orig, d)
		}
		seen[e.Path] = orig
		es = append(es, e)
	}

	seenDirs := map[string]bool{}
	var ds []splits.TargetedDirectory
	for _, dir := range dirs {
		dir.Path = splits.StripSuffix(dir.Path, d)
		if seenDirs[dir.Path] {
			continue
		}
		seenDirs[dir.Path] = true
		ds = append(ds, dir)
	}
	return es, ds, nil
}

// Apply folds the splitters over the seed split in order. Each splitter subdivides the splits that
// are still untargeted after the previous ones.
func Apply(seed *splits.Split, splitters ...Splitter) ([]*splits.Split, error) {
	current := []*splits.Split{seed}
	for _, sp := range splitters {
		var next []*splits.Split
		for _, s := range current {
			out, err := sp.Split(s)
			if err != nil {
				return nil, err
			}
			next = append(next, out...)
		}
		current = next
	}
	return current, nil
}

// DefaultSplitters returns one splitter per dimension in the default splitting order.
func DefaultSplitters(stripSuffix map[targeting.Dimension]bool) []Splitter {
	var sps []Splitter
	for _, d := range targeting.DefaultOrder {
		sps = append(sps, ForDimension(d, stripSuffix[d]))
	}
	return sps
}
