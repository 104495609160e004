package splits

import (
	"path"
	"strings"

	"github.com/babystarcloud/bundletool/internal/targeting"
)

// DirectoryIndex maps entry paths to the deepest targeted directory that contains them.
type DirectoryIndex struct {
	dirs   []TargetedDirectory
	byPath map[string]int
}

// NewDirectoryIndex indexes the given directories. If two directories share a path the first one
// wins.
func NewDirectoryIndex(dirs []TargetedDirectory) DirectoryIndex {
	x := DirectoryIndex{dirs: dirs, byPath: make(map[string]int, len(dirs))}
	for i, d := range dirs {
		if _, ok := x.byPath[d.Path]; !ok {
			x.byPath[d.Path] = i
		}
	}
	return x
}

// Lookup returns the deepest directory whose path is the entry path itself or one of its parents.
func (x DirectoryIndex) Lookup(entryPath string) (TargetedDirectory, bool) {
	for p := path.Clean(entryPath); p != "." && p != "/"; p = path.Dir(p) {
		if i, ok := x.byPath[p]; ok {
			return x.dirs[i], true
		}
	}
	return TargetedDirectory{}, false
}

// StripSuffix removes every '#<key>_<value>' marker of the given dimension from each segment of a
// slash-separated path. Markers of other dimensions are preserved.
func StripSuffix(p string, d targeting.Dimension) string {
	key := d.SuffixKey()
	if key == "" || !strings.Contains(p, "#"+key+"_") {
		return p
	}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = stripSegment(s, "#"+key+"_")
	}
	return strings.Join(segs, "/")
}

func stripSegment(s, marker string) string {
	for {
		i := strings.Index(s, marker)
		if i < 0 {
			return s
		}
		end := strings.IndexByte(s[i+1:], '#')
		if end < 0 {
			s = s[:i]
		} else {
			s = s[:i] + s[i+1+end:]
		}
	}
}

// StripAllSuffixes removes the directory suffix markers of every dimension.
func StripAllSuffixes(p string) string {
	for _, d := range targeting.Dimensions() {
		p = StripSuffix(p, d)
	}
	return p
}
