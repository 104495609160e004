package targeting

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMultipleDimensions is returned when a split targeting would constrain more than one
// dimension at once.
var ErrMultipleDimensions = errors.New("split targeting can only target a single dimension")

// Selection is the targeting of a single dimension: the values it applies to and the sibling
// values known to exist next to them. A selection without values applies to any device that does
// not match one of the alternatives.
type Selection struct {
	Dimension    Dimension
	Values       []string
	Alternatives []string
}

// NewSelection returns a selection with values and alternatives normalised to sorted sets. Values
// are never listed among their own alternatives.
func NewSelection(d Dimension, values, alternatives []string) Selection {
	vs := normalise(values)
	var alts []string
	for _, a := range normalise(alternatives) {
		if !contains(vs, a) {
			alts = append(alts, a)
		}
	}
	return Selection{Dimension: d, Values: vs, Alternatives: alts}
}

// IsAlternativesOnly reports whether the selection carries no positive value.
func (s Selection) IsAlternativesOnly() bool {
	return len(s.Values) == 0
}

// Value returns the single value of the selection, if there is exactly one.
func (s Selection) Value() (string, bool) {
	if len(s.Values) != 1 {
		return "", false
	}
	return s.Values[0], true
}

func (s Selection) HasValue(v string) bool {
	return contains(s.Values, v)
}

func (s Selection) Equal(o Selection) bool {
	return s.Dimension == o.Dimension && equalStrings(s.Values, o.Values) && equalStrings(s.Alternatives, o.Alternatives)
}

func (s Selection) String() string {
	return fmt.Sprintf("%s{values:[%s] alternatives:[%s]}", s.Dimension, strings.Join(s.Values, ","), strings.Join(s.Alternatives, ","))
}

func (s Selection) empty() bool {
	return s.Dimension == Unspecified || (len(s.Values) == 0 && len(s.Alternatives) == 0)
}

// Targeting is the device-configuration constraint of a split or a variant. The zero value is the
// default targeting which applies to every device. At most one dimension can be set.
type Targeting struct {
	sel Selection
}

// New builds a targeting from the given selections. It fails with ErrMultipleDimensions if more
// than one distinct dimension is set.
func New(sels ...Selection) (Targeting, error) {
	var t Targeting
	for _, s := range sels {
		var err error
		if t, err = t.WithDimensionValue(s.Dimension, s.Values, s.Alternatives); err != nil {
			return Targeting{}, err
		}
	}
	return t, nil
}

// Of returns the targeting of a single dimension.
func Of(d Dimension, values, alternatives []string) Targeting {
	t, _ := Targeting{}.WithDimensionValue(d, values, alternatives)
	return t
}

// WithDimensionValue returns a copy of the targeting constrained on the given dimension. Setting
// the dimension that is already set replaces its selection. Providing neither values nor
// alternatives clears the dimension.
func (t Targeting) WithDimensionValue(d Dimension, values, alternatives []string) (Targeting, error) {
	s := NewSelection(d, values, alternatives)
	if s.empty() {
		return t.Without(d), nil
	}
	if !t.IsDefault() && t.sel.Dimension != d {
		return t, fmt.Errorf("%w: %s is already set when adding %s", ErrMultipleDimensions, t.sel.Dimension, d)
	}
	return Targeting{sel: s}, nil
}

// Without returns a copy of the targeting with the given dimension cleared.
func (t Targeting) Without(d Dimension) Targeting {
	if t.sel.Dimension == d {
		return Targeting{}
	}
	return t
}

// IsDefault reports whether no dimension is set.
func (t Targeting) IsDefault() bool {
	return t.sel.empty()
}

// Dimension returns the targeted dimension or Unspecified for the default targeting.
func (t Targeting) Dimension() Dimension {
	if t.IsDefault() {
		return Unspecified
	}
	return t.sel.Dimension
}

// Selection returns the selection of the targeted dimension.
func (t Targeting) Selection() (Selection, bool) {
	if t.IsDefault() {
		return Selection{}, false
	}
	return t.sel, true
}

// Get returns the selection for the given dimension if it is the targeted one.
func (t Targeting) Get(d Dimension) (Selection, bool) {
	if t.IsDefault() || t.sel.Dimension != d {
		return Selection{}, false
	}
	return t.sel, true
}

func (t Targeting) Equal(o Targeting) bool {
	if t.IsDefault() || o.IsDefault() {
		return t.IsDefault() == o.IsDefault()
	}
	return t.sel.Equal(o.sel)
}

func (t Targeting) String() string {
	if t.IsDefault() {
		return "default"
	}
	return t.sel.String()
}

// DirectoryTargeting is the targeting declared for a content directory. Nested directories can
// combine several dimensions, one selection per dimension.
type DirectoryTargeting struct {
	sels []Selection
}

// NewDirectoryTargeting combines selections into a directory targeting. A later selection for a
// dimension replaces an earlier one.
func NewDirectoryTargeting(sels ...Selection) DirectoryTargeting {
	byDim := map[Dimension]Selection{}
	for _, s := range sels {
		s = NewSelection(s.Dimension, s.Values, s.Alternatives)
		if s.empty() {
			continue
		}
		byDim[s.Dimension] = s
	}
	var t DirectoryTargeting
	for _, s := range byDim {
		t.sels = append(t.sels, s)
	}
	sort.Slice(t.sels, func(i, j int) bool { return t.sels[i].Dimension < t.sels[j].Dimension })
	return t
}

// Get returns the selection declared for the given dimension.
func (t DirectoryTargeting) Get(d Dimension) (Selection, bool) {
	for _, s := range t.sels {
		if s.Dimension == d {
			return s, true
		}
	}
	return Selection{}, false
}

// Without returns a copy of the directory targeting with the given dimension removed.
func (t DirectoryTargeting) Without(d Dimension) DirectoryTargeting {
	var out DirectoryTargeting
	for _, s := range t.sels {
		if s.Dimension != d {
			out.sels = append(out.sels, s)
		}
	}
	return out
}

func (t DirectoryTargeting) Selections() []Selection {
	out := make([]Selection, len(t.sels))
	copy(out, t.sels)
	return out
}

func (t DirectoryTargeting) IsDefault() bool {
	return len(t.sels) == 0
}

func (t DirectoryTargeting) Equal(o DirectoryTargeting) bool {
	if len(t.sels) != len(o.sels) {
		return false
	}
	for i := range t.sels {
		if !t.sels[i].Equal(o.sels[i]) {
			return false
		}
	}
	return true
}

func (t DirectoryTargeting) String() string {
	if t.IsDefault() {
		return "default"
	}
	ss := make([]string, 0, len(t.sels))
	for _, s := range t.sels {
		ss = append(ss, s.String())
	}
	return strings.Join(ss, " ")
}

func contains(vs []string, v string) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
