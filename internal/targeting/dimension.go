package targeting

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Dimension identifies one independent axis of device-configuration targeting.
type Dimension uint8

const (
	Unspecified Dimension = iota
	ABI
	ScreenDensity
	Language
	TextureCompressionFormat
	DeviceTier
	Sanitizer
	MultiABI
)

// DefaultOrder is the order in which dimension splitters are applied to the splits of a module.
// Later dimensions only subdivide splits that were not already targeted by an earlier one, so the
// order is part of the output contract and must not change between runs.
//
// Sanitizer comes first, so every 'lib/<abi>-hwasan' directory of a module lands in a single hwasan
// split regardless of its ABI. A split targets one dimension only, so that split is not subdivided
// by ABI afterwards.
var DefaultOrder = []Dimension{
	Sanitizer,
	ABI,
	MultiABI,
	ScreenDensity,
	Language,
	TextureCompressionFormat,
	DeviceTier,
}

type dimensionInfo struct {
	// Name used in configuration files and logs.
	name string
	// Key of the '#<key>_<value>' directory suffix, empty when the dimension is not expressed
	// through directory suffixes.
	suffixKey string
	// Split name token used when a split carries alternatives but no value.
	other string
	// Whether the dimension is also recorded on variant-level targeting.
	variant bool
	// Canonical values in table order. Nil for open value sets.
	known []string
	// Pattern that values of open value sets must match.
	pattern *regexp.Regexp
	// Maps a canonical value to its split name token.
	token func(string) string
}

var dimensions = map[Dimension]dimensionInfo{
	ABI: {
		name:    "abi",
		other:   "other_abis",
		variant: true,
		known:   abiAliases(),
	},
	ScreenDensity: {
		name:    "screen_density",
		other:   "other_density",
		variant: true,
		known:   []string{"ldpi", "mdpi", "tvdpi", "hdpi", "xhdpi", "xxhdpi", "xxxhdpi"},
	},
	Language: {
		name:      "language",
		suffixKey: "lang",
		other:     "other_lang",
		pattern:   regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{1,8})*$`),
	},
	TextureCompressionFormat: {
		name:      "texture_compression_format",
		suffixKey: "tcf",
		other:     "other_tcf",
		variant:   true,
		known:     []string{"etc1", "paletted", "3dc", "atc", "latc", "dxt1", "s3tc", "pvrtc", "astc", "etc2"},
	},
	DeviceTier: {
		name:      "device_tier",
		suffixKey: "tier",
		other:     "other_tier",
		pattern:   regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`),
		token:     func(v string) string { return "tier_" + v },
	},
	Sanitizer: {
		name:  "sanitizer",
		other: "other_sanitizer",
		known: []string{"hwaddress"},
		token: func(v string) string {
			if v == "hwaddress" {
				return "hwasan"
			}
			return v
		},
	},
	MultiABI: {
		name:    "multi_abi",
		other:   "other_abis",
		variant: true,
	},
}

func (d Dimension) String() string {
	if i, ok := dimensions[d]; ok {
		return i.name
	}
	return "unspecified"
}

// SuffixKey returns the key used in '#<key>_<value>' directory suffixes for this dimension, or an
// empty string if the dimension is not expressed through directory suffixes.
func (d Dimension) SuffixKey() string {
	return dimensions[d].suffixKey
}

// SuffixSegment returns the directory suffix segment that marks the given value.
func (d Dimension) SuffixSegment(value string) string {
	if d.SuffixKey() == "" {
		return ""
	}
	return "#" + d.SuffixKey() + "_" + value
}

// OtherName is the split name token for splits that only carry alternatives for this dimension.
func (d Dimension) OtherName() string {
	return dimensions[d].other
}

// IsVariantLevel reports whether targeting on this dimension is mirrored on variant targeting.
func (d Dimension) IsVariantLevel() bool {
	return dimensions[d].variant
}

// IsKnownValue reports whether value is a well-formed value of this dimension.
func (d Dimension) IsKnownValue(value string) bool {
	i, ok := dimensions[d]
	switch {
	case !ok || value == "":
		return false
	case d == MultiABI:
		_, err := ParseMultiABIValue(value)
		return err == nil
	case i.known != nil:
		for _, k := range i.known {
			if k == value {
				return true
			}
		}
		return false
	default:
		return i.pattern.MatchString(value)
	}
}

func (d Dimension) token(value string) string {
	if t := dimensions[d].token; t != nil {
		return t(value)
	}
	return value
}

// ParseDimension resolves a dimension from its configuration name or its directory suffix key.
func ParseDimension(name string) (Dimension, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d, i := range dimensions {
		if n == i.name || (i.suffixKey != "" && n == i.suffixKey) {
			return d, nil
		}
	}
	return Unspecified, fmt.Errorf("unknown targeting dimension %q", name)
}

// DimensionForSuffixKey returns the dimension using the given directory suffix key.
func DimensionForSuffixKey(key string) (Dimension, bool) {
	for d, i := range dimensions {
		if i.suffixKey != "" && i.suffixKey == key {
			return d, true
		}
	}
	return Unspecified, false
}

// Dimensions returns all known dimensions in their default splitting order.
func Dimensions() []Dimension {
	ds := make([]Dimension, len(DefaultOrder))
	copy(ds, DefaultOrder)
	return ds
}

func normalise(vs []string) []string {
	if len(vs) == 0 {
		return nil
	}
	set := make(map[string]bool, len(vs))
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v == "" || set[v] {
			continue
		}
		set[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
