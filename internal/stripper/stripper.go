// Package stripper narrows the sibling directories of a dimension down to a single resolved variant.
package stripper

import (
	"fmt"

	"github.com/babystarcloud/bundletool/internal/splits"
	"github.com/babystarcloud/bundletool/internal/targeting"
)

// SuffixStripping configures how the directories of a dimension are resolved.
type SuffixStripping struct {
	// Value whose directories are kept. An empty value selects the directories that declare no value
	// for the dimension.
	DefaultSuffix string `yaml:"default_suffix"`
	// Whether the '#<key>_<value>' markers are removed from the kept paths.
	Enabled bool `yaml:"enabled"`
}

type Stripper struct {
	dimension targeting.Dimension
}

func ForDimension(d targeting.Dimension) Stripper {
	return Stripper{dimension: d}
}

func (s Stripper) Dimension() targeting.Dimension {
	return s.dimension
}

// ApplySuffixStripping keeps the directories of the dimension matching the configured default value
// and drops their siblings together with their entries. Directories and entries unrelated to the
// dimension pass through. The split's targeting is set to the default value with the values of the
// kept directories' siblings as alternatives, or cleared when the default is not a concrete value of
// the dimension.
// A split that is already targeted on another dimension keeps its targeting.
//
// Splits that declare no directory for the dimension are returned unchanged.
func (s Stripper) ApplySuffixStripping(in *splits.Split, cfg SuffixStripping) (*splits.Split, error) {
	dirs := in.Directories()
	if !s.declares(dirs) {
		return in, nil
	}

	keep := func(d splits.TargetedDirectory) bool {
		sel, ok := d.Targeting.Get(s.dimension)
		switch {
		case !ok:
			return true
		case sel.IsAlternativesOnly():
			return cfg.DefaultSuffix == ""
		default:
			return cfg.DefaultSuffix != "" && sel.HasValue(cfg.DefaultSuffix)
		}
	}

	idx := splits.NewDirectoryIndex(dirs)
	var keptDirs []splits.TargetedDirectory
	for _, d := range dirs {
		if keep(d) {
			keptDirs = append(keptDirs, d)
		}
	}
	var keptEntries []splits.Entry
	for _, e := range in.Entries() {
		if d, ok := idx.Lookup(e.Path); !ok || keep(d) {
			keptEntries = append(keptEntries, e)
		}
	}

	if cfg.Enabled {
		var err error
		if keptEntries, keptDirs, err = s.stripPaths(in, keptEntries, keptDirs, idx); err != nil {
			return nil, err
		}
	}

	b := in.ToBuilder().SetEntries(keptEntries).SetDirectories(keptDirs)
	apk, variant := in.ApkTargeting(), in.VariantTargeting()
	if cfg.DefaultSuffix != "" && s.dimension.IsKnownValue(cfg.DefaultSuffix) {
		observed := s.siblingValues(dirs, cfg.DefaultSuffix)
		if apk.IsDefault() || apk.Dimension() == s.dimension {
			apk = targeting.Of(s.dimension, []string{cfg.DefaultSuffix}, observed)
		}
		if s.dimension.IsVariantLevel() && (variant.IsDefault() || variant.Dimension() == s.dimension) {
			variant = targeting.Of(s.dimension, []string{cfg.DefaultSuffix}, observed)
		}
	} else {
		apk = apk.Without(s.dimension)
		variant = variant.Without(s.dimension)
	}
	return b.SetApkTargeting(apk).SetVariantTargeting(variant).Build()
}

// RemoveAssetsTargeting merges all the sibling directories of the dimension into one directory with
// the suffix stripped and clears the dimension from the split's targeting. The merged directory holds
// the union of the siblings' entries, so siblings that contain the same file name cannot be merged
// and an error wrapping splits.ErrDuplicateEntry is returned.
func (s Stripper) RemoveAssetsTargeting(in *splits.Split) (*splits.Split, error) {
	dirs := in.Directories()
	if !s.declares(dirs) {
		return in, nil
	}

	idx := splits.NewDirectoryIndex(dirs)
	entries, merged, err := s.stripPaths(in, in.Entries(), dirs, idx)
	if err != nil {
		return nil, err
	}
	for i, d := range merged {
		merged[i].Targeting = d.Targeting.Without(s.dimension)
	}

	return in.ToBuilder().
		SetEntries(entries).
		SetDirectories(merged).
		SetApkTargeting(in.ApkTargeting().Without(s.dimension)).
		SetVariantTargeting(in.VariantTargeting().Without(s.dimension)).
		Build()
}

func (s Stripper) declares(dirs []splits.TargetedDirectory) bool {
	for _, d := range dirs {
		if _, ok := d.Targeting.Get(s.dimension); ok {
			return true
		}
	}
	return false
}

// siblingValues returns the values declared by the siblings of the directories holding value v.
// Siblings are the directories that share a path once the dimension's markers are removed.
func (s Stripper) siblingValues(dirs []splits.TargetedDirectory, v string) []string {
	byBase := map[string][]string{}
	var bases []string
	for _, d := range dirs {
		sel, ok := d.Targeting.Get(s.dimension)
		if !ok {
			continue
		}
		base := splits.StripSuffix(d.Path, s.dimension)
		byBase[base] = append(byBase[base], sel.Values...)
		if sel.HasValue(v) {
			bases = append(bases, base)
		}
	}

	var vs []string
	for _, b := range bases {
		vs = append(vs, byBase[b]...)
	}
	return vs
}

// stripPaths removes the dimension's markers from the directories that declare it and from the
// entries they contain. Directories that end up sharing a path are merged into the first one. Entries
// that collide are an error.
func (s Stripper) stripPaths(in *splits.Split, entries []splits.Entry, dirs []splits.TargetedDirectory, idx splits.DirectoryIndex) ([]splits.Entry, []splits.TargetedDirectory, error) {
	seen := map[string]string{}
	var es []splits.Entry
	for _, e := range entries {
		orig := e.Path
		if d, ok := idx.Lookup(e.Path); ok {
			if _, declared := d.Targeting.Get(s.dimension); declared {
				e.Path = splits.StripSuffix(e.Path, s.dimension)
			}
		}
		if prev, ok := seen[e.Path]; ok {
			return nil, nil, fmt.Errorf("%w %q in module %q: both %q and %q map to it once the %s suffixes are removed",
				splits.ErrDuplicateEntry, e.Path, in.ModuleName(), prev, orig, s.dimension)
		}
		seen[e.Path] = orig
		es = append(es, e)
	}

	seenDirs := map[string]bool{}
	var ds []splits.TargetedDirectory
	for _, d := range dirs {
		if _, declared := d.Targeting.Get(s.dimension); declared {
			d.Path = splits.StripSuffix(d.Path, s.dimension)
		}
		if seenDirs[d.Path] {
			continue
		}
		seenDirs[d.Path] = true
		ds = append(ds, d)
	}
	return es, ds, nil
}
