package splits

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Metadata keys of the source stamp.
const (
	StampSourceMetadataKey = "com.android.stamp.source"
	StampTypeMetadataKey   = "com.android.stamp.type"
)

// ErrInvalidStampSource is returned when a stamp source is not an absolute URL.
var ErrInvalidStampSource = errors.New("Invalid stamp source. Stamp sources should be URLs.")

// StampType identifies the kind of APKs the source stamp is written into.
type StampType uint8

const (
	StampTypeDistributionAPK StampType = iota + 1
	StampTypeStandaloneAPK
)

func (t StampType) String() string {
	switch t {
	case StampTypeDistributionAPK:
		return "STAMP_TYPE_DISTRIBUTION_APK"
	case StampTypeStandaloneAPK:
		return "STAMP_TYPE_STANDALONE_APK"
	default:
		return "STAMP_TYPE_UNSPECIFIED"
	}
}

// ParseStampType accepts either the metadata value of a stamp type or its short lower-case form,
// e.g. 'distribution_apk'.
func ParseStampType(s string) (StampType, error) {
	n := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range []StampType{StampTypeDistributionAPK, StampTypeStandaloneAPK} {
		if n == t.String() || "STAMP_TYPE_"+n == t.String() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown stamp type %q", s)
}

func (s *Split) withManifest(fn func(*Split) *Split) *Split {
	if s.manifest == nil {
		return s
	}
	return fn(s)
}

func (s *Split) copyWith(edit func(c *Split)) *Split {
	c := *s
	c.entries = append([]Entry(nil), s.entries...)
	c.directories = append([]TargetedDirectory(nil), s.directories...)
	edit(&c)
	return &c
}

// WriteSplitIDInManifest records the split id in the manifest. The master split of a feature
// module other than base is additionally flagged as a feature split.
func (s *Split) WriteSplitIDInManifest(id string) *Split {
	return s.withManifest(func(s *Split) *Split {
		return s.copyWith(func(c *Split) {
			c.manifest = c.manifest.WithSplitID(id)
			if c.master && !c.IsBaseModule() && c.moduleType == FeatureModule {
				c.manifest = c.manifest.WithFeatureSplit(true)
			}
		})
	})
}

// RemoveSplitName strips android:splitName from every component of the manifest.
func (s *Split) RemoveSplitName() *Split {
	return s.withManifest(func(s *Split) *Split {
		return s.copyWith(func(c *Split) {
			c.manifest = c.manifest.WithoutSplitNames()
		})
	})
}

// RemoveUnknownSplitComponents deletes the manifest components whose android:splitName does not
// name one of the given splits.
func (s *Split) RemoveUnknownSplitComponents(knownSplits []string) *Split {
	known := make(map[string]bool, len(knownSplits))
	for _, k := range knownSplits {
		known[k] = true
	}
	return s.withManifest(func(s *Split) *Split {
		return s.copyWith(func(c *Split) {
			c.manifest = c.manifest.WithoutUnknownSplitComponents(known)
		})
	})
}

// WriteSourceStampInManifest records the stamp source and type as application metadata. Only master
// splits are stamped; other splits are returned unchanged.
func (s *Split) WriteSourceStampInManifest(source string, t StampType) (*Split, error) {
	if !s.master {
		return s, nil
	}
	if u, err := url.Parse(source); err != nil || !u.IsAbs() || u.Host == "" {
		return nil, ErrInvalidStampSource
	}
	return s.withManifest(func(s *Split) *Split {
		return s.copyWith(func(c *Split) {
			c.manifest = c.manifest.
				WithMetadata(StampSourceMetadataKey, source).
				WithMetadata(StampTypeMetadataKey, t.String())
		})
	}), nil
}
