package targeting

import (
	"sort"
	"strings"
)

// BaseModuleName is the name of the module that carries the application's main manifest.
const BaseModuleName = "base"

// Suffix derives the split name suffix of a targeting. The default targeting has an empty suffix.
func Suffix(t Targeting) string {
	s, ok := t.Selection()
	if !ok {
		return ""
	}
	if s.IsAlternativesOnly() {
		return s.Dimension.OtherName()
	}

	tokens := make([]string, 0, len(s.Values))
	for _, v := range s.Values {
		tokens = append(tokens, s.Dimension.token(v))
	}
	// Values are kept sorted but a token mapping may change their relative order.
	sort.Strings(tokens)
	return strings.Join(tokens, "_")
}

// Suffix is a shorthand for Suffix(t).
func (t Targeting) Suffix() string {
	return Suffix(t)
}

// SplitID returns the identifier written into the manifest of a split.
//   - master split of the base module: empty.
//   - master split of any other module: the module name.
//   - configuration split of the base module: 'config.<suffix>'.
//   - configuration split of any other module: '<module>.config.<suffix>'.
//
// A configuration split without suffix is named like its module's master split.
func SplitID(moduleName string, isBaseModule, isMasterSplit bool, suffix string) string {
	if isMasterSplit || suffix == "" {
		if isBaseModule {
			return ""
		}
		return moduleName
	}
	if isBaseModule {
		return "config." + suffix
	}
	return moduleName + ".config." + suffix
}
