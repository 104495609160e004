package config

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/babystarcloud/bundletool/internal/splits"
	"github.com/babystarcloud/bundletool/internal/splitter"
	"github.com/babystarcloud/bundletool/internal/stripper"
	"github.com/babystarcloud/bundletool/internal/targeting"
)

// ErrDimensionConflict is returned when a dimension is configured for more than one of splitting,
// suffix stripping and targeting removal.
var ErrDimensionConflict = errors.New("dimension is configured more than once")

type Bundle struct {
	// Names of the module directories, relative to the configuration file, to generate splits for. If
	// empty all modules found next to the configuration file are used.
	Modules []string `yaml:"modules,omitempty"`
	// Directory to which generated splits are written, relative to the configuration file.
	Output string `yaml:"output,omitempty"`
	// Ordered list of dimensions along which modules are split. If empty every dimension that is not
	// stripped or removed is split, in the default order.
	Dimensions []Dimension `yaml:"dimensions,omitempty"`
	// Dimensions whose sibling directories are collapsed onto a single default value.
	SuffixStripping map[string]stripper.SuffixStripping `yaml:"suffix_stripping,omitempty"`
	// Dimensions whose sibling directories are merged and whose targeting is dropped.
	RemoveTargeting []string `yaml:"remove_targeting,omitempty"`
	// Strip android:splitName from all manifest components.
	RemoveSplitName bool `yaml:"remove_split_name,omitempty"`
	// Remove manifest components that refer to a split not present in the bundle.
	RemoveUnknownSplitComponents bool `yaml:"remove_unknown_split_components,omitempty"`
	// Source stamp written into the manifest of master splits.
	Stamp *Stamp `yaml:"stamp,omitempty"`

	// Internal state.
	BundleData `yaml:"-"`
}

type Dimension struct {
	// Name of the dimension, e.g. 'abi' or 'texture_compression_format'.
	Dimension string `yaml:"dimension"`
	// Remove the '#<key>_<value>' markers of this dimension from the paths of its splits.
	StripSuffix bool `yaml:"strip_suffix,omitempty"`
}

type Stamp struct {
	// Absolute URL identifying where the application's source lives.
	Source string `yaml:"source,omitempty"`
	// Kind of APKs being stamped, 'distribution_apk' by default.
	Type string `yaml:"type,omitempty"`
	// Derive the source from the 'origin' remote of the git checkout containing the configuration.
	FromGit bool `yaml:"from_git,omitempty"`
}

// BundleData holds the validated form of a Bundle configuration.
type BundleData struct {
	Splitters   []splitter.Splitter
	Strippers   []StrippedDimension
	Removed     []stripper.Stripper
	StampSource string
	StampType   splits.StampType
}

type StrippedDimension struct {
	Stripper stripper.Stripper
	Config   stripper.SuffixStripping
}

// Resolve validates the configuration and populates its BundleData. The stamp source is not derived
// from git here; callers that honour Stamp.FromGit set StampSource themselves.
func (b *Bundle) Resolve(log *zap.Logger) error {
	b.BundleData = BundleData{}
	used := map[targeting.Dimension]string{}
	claim := func(name, mode string) (targeting.Dimension, error) {
		d, err := targeting.ParseDimension(name)
		if err != nil {
			log.Error("Unknown dimension in configuration.", zap.String("dimension", name), zap.String("mode", mode))
			return d, err
		}
		if prev, ok := used[d]; ok {
			log.Error(
				"Dimension is configured more than once.",
				zap.Stringer("dimension", d),
				zap.String("mode", mode),
				zap.String("previous", prev),
			)
			return d, fmt.Errorf("%w: %s is used for both %s and %s", ErrDimensionConflict, d, prev, mode)
		}
		used[d] = mode
		return d, nil
	}

	names := make([]string, 0, len(b.SuffixStripping))
	for n := range b.SuffixStripping {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		d, err := claim(n, "suffix_stripping")
		if err != nil {
			return err
		}
		b.Strippers = append(b.Strippers, StrippedDimension{Stripper: stripper.ForDimension(d), Config: b.SuffixStripping[n]})
	}
	sort.Slice(b.Strippers, func(i, j int) bool { return b.Strippers[i].Stripper.Dimension() < b.Strippers[j].Stripper.Dimension() })

	for _, n := range b.RemoveTargeting {
		d, err := claim(n, "remove_targeting")
		if err != nil {
			return err
		}
		b.Removed = append(b.Removed, stripper.ForDimension(d))
	}

	if len(b.Dimensions) > 0 {
		for _, dc := range b.Dimensions {
			d, err := claim(dc.Dimension, "dimensions")
			if err != nil {
				return err
			}
			b.Splitters = append(b.Splitters, splitter.ForDimension(d, dc.StripSuffix))
		}
	} else {
		for _, sp := range splitter.DefaultSplitters(nil) {
			if _, ok := used[sp.Dimension()]; !ok {
				b.Splitters = append(b.Splitters, sp)
			}
		}
	}

	return b.resolveStamp(log)
}

func (b *Bundle) resolveStamp(log *zap.Logger) error {
	if b.Stamp == nil {
		return nil
	}
	if b.Stamp.Source != "" && b.Stamp.FromGit {
		log.Error("A stamp source can not be both configured and derived from git.", zap.String("source", b.Stamp.Source))
		return errors.New("stamp source and stamp from_git are mutually exclusive")
	}

	b.StampType = splits.StampTypeDistributionAPK
	if b.Stamp.Type != "" {
		t, err := splits.ParseStampType(b.Stamp.Type)
		if err != nil {
			log.Error("Invalid stamp type in configuration.", zap.String("type", b.Stamp.Type), zap.Error(err))
			return err
		}
		b.StampType = t
	}
	b.StampSource = b.Stamp.Source
	return nil
}
