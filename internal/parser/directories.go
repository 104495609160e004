package parser

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/babystarcloud/bundletool/internal/splits"
	"github.com/babystarcloud/bundletool/internal/targeting"
)

const (
	assetsRoot    = "assets"
	nativeRoot    = "lib"
	resourcesRoot = "res"
	apexRoot      = "apex"

	hwasanSuffix   = "-hwasan"
	apexImageExt   = ".img"
	sanitizerValue = "hwaddress"
)

var languageQualifier = regexp.MustCompile(`^[a-z]{2,3}$`)

// Resource qualifiers that look like language codes but are not.
var nonLanguageQualifiers = map[string]bool{"car": true}

// targetedDirectories derives the targeted directories of a module from the paths of its files.
// Directories whose naming does not carry valid targeting are left out and their content stays
// untargeted.
func targetedDirectories(files []string) []splits.TargetedDirectory {
	var ds []splits.TargetedDirectory
	ds = append(ds, assetsDirectories(files)...)
	ds = append(ds, nativeDirectories(files)...)
	ds = append(ds, resourceDirectories(files)...)
	ds = append(ds, apexImages(files)...)
	return ds
}

type marker struct {
	dimension targeting.Dimension
	value     string
}

// parseSegment splits a directory name such as 'textures#tcf_etc1#tier_low' into its base name and
// its valid '#<key>_<value>' markers. Invalid markers remain part of the base name.
func parseSegment(seg string) (string, []marker) {
	parts := strings.Split(seg, "#")
	base := parts[0]
	var ms []marker
	for _, p := range parts[1:] {
		i := strings.IndexByte(p, '_')
		if i > 0 {
			if d, ok := targeting.DimensionForSuffixKey(p[:i]); ok && d.IsKnownValue(p[i+1:]) {
				ms = append(ms, marker{dimension: d, value: p[i+1:]})
				continue
			}
		}
		base += "#" + p
	}
	return base, ms
}

// assetsDirectories computes the targeting of the asset directories. A directory marked with a value
// lists the values of its sibling directories as alternatives. An unmarked sibling directory is the
// fallback of the group and targets only the alternatives. Nested directories inherit the targeting
// of their parents.
func assetsDirectories(files []string) []splits.TargetedDirectory {
	dirs := map[string]bool{}
	for _, f := range files {
		for d := path.Dir(f); d != "." && d != assetsRoot && strings.HasPrefix(d, assetsRoot+"/"); d = path.Dir(d) {
			dirs[d] = true
		}
	}

	type group struct {
		values  map[targeting.Dimension][]string
		members []string
	}
	groups := map[string]*group{}
	markers := map[string][]marker{}
	groupKey := map[string]string{}
	for d := range dirs {
		base, ms := parseSegment(path.Base(d))
		key := path.Join(path.Dir(d), base)
		g, ok := groups[key]
		if !ok {
			g = &group{values: map[targeting.Dimension][]string{}}
			groups[key] = g
		}
		g.members = append(g.members, d)
		for _, m := range ms {
			g.values[m.dimension] = append(g.values[m.dimension], m.value)
		}
		markers[d] = ms
		groupKey[d] = key
	}

	own := map[string][]targeting.Selection{}
	for d := range dirs {
		g := groups[groupKey[d]]
		if len(markers[d]) > 0 {
			for _, m := range markers[d] {
				own[d] = append(own[d], targeting.NewSelection(m.dimension, []string{m.value}, g.values[m.dimension]))
			}
			continue
		}
		if len(g.members) > 1 {
			for dim, vs := range g.values {
				own[d] = append(own[d], targeting.NewSelection(dim, nil, vs))
			}
		}
	}

	var sorted []string
	for d := range own {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	var ds []splits.TargetedDirectory
	for _, d := range sorted {
		var sels []targeting.Selection
		var ancestors []string
		for a := path.Dir(d); a != assetsRoot && a != "."; a = path.Dir(a) {
			ancestors = append(ancestors, a)
		}
		for i := len(ancestors) - 1; i >= 0; i-- {
			sels = append(sels, own[ancestors[i]]...)
		}
		sels = append(sels, own[d]...)
		ds = append(ds, splits.TargetedDirectory{
			Content:   splits.Assets,
			Path:      d,
			Targeting: targeting.NewDirectoryTargeting(sels...),
		})
	}
	return ds
}

// nativeDirectories targets 'lib/<abi>' directories on their ABI, with the other ABIs of the module
// as alternatives. 'lib/<abi>-hwasan' directories additionally target the HWASan sanitizer.
func nativeDirectories(files []string) []splits.TargetedDirectory {
	abis := map[string]string{}
	sanitized := map[string]bool{}
	for _, f := range files {
		parts := strings.Split(f, "/")
		if len(parts) < 3 || parts[0] != nativeRoot {
			continue
		}
		name := parts[1]
		dir := strings.TrimSuffix(name, hwasanSuffix)
		alias, ok := targeting.ABIFromDirectory(dir)
		if !ok {
			continue
		}
		abis[name] = alias
		sanitized[name] = dir != name
	}

	var all []string
	for name, alias := range abis {
		if !sanitized[name] {
			all = append(all, alias)
		}
	}

	var names []string
	for n := range abis {
		names = append(names, n)
	}
	sort.Strings(names)

	var ds []splits.TargetedDirectory
	for _, n := range names {
		sels := []targeting.Selection{targeting.NewSelection(targeting.ABI, []string{abis[n]}, all)}
		if sanitized[n] {
			sels = append(sels, targeting.NewSelection(targeting.Sanitizer, []string{sanitizerValue}, nil))
		}
		ds = append(ds, splits.TargetedDirectory{
			Content:   splits.NativeLibraries,
			Path:      path.Join(nativeRoot, n),
			Targeting: targeting.NewDirectoryTargeting(sels...),
		})
	}
	return ds
}

// resourceDirectories targets 'res/<type>-<qualifiers>' directories on the screen density and the
// language found among their qualifiers.
func resourceDirectories(files []string) []splits.TargetedDirectory {
	type qualifiers struct {
		density  string
		language string
	}
	dirs := map[string]qualifiers{}
	var densities []string
	for _, f := range files {
		parts := strings.Split(f, "/")
		if len(parts) < 3 || parts[0] != resourcesRoot {
			continue
		}
		qs := strings.Split(parts[1], "-")
		var q qualifiers
		for i, qual := range qs[1:] {
			switch {
			case targeting.ScreenDensity.IsKnownValue(qual):
				q.density = qual
			case i == 0 && languageQualifier.MatchString(qual) && !nonLanguageQualifiers[qual]:
				q.language = qual
			}
		}
		if q.density == "" && q.language == "" {
			continue
		}
		dirs[parts[1]] = q
		if q.density != "" {
			densities = append(densities, q.density)
		}
	}

	var names []string
	for n := range dirs {
		names = append(names, n)
	}
	sort.Strings(names)

	var ds []splits.TargetedDirectory
	for _, n := range names {
		q := dirs[n]
		var sels []targeting.Selection
		if q.density != "" {
			sels = append(sels, targeting.NewSelection(targeting.ScreenDensity, []string{q.density}, densities))
		}
		if q.language != "" {
			sels = append(sels, targeting.NewSelection(targeting.Language, []string{q.language}, nil))
		}
		ds = append(ds, splits.TargetedDirectory{
			Content:   splits.Resources,
			Path:      path.Join(resourcesRoot, n),
			Targeting: targeting.NewDirectoryTargeting(sels...),
		})
	}
	return ds
}

// apexImages targets 'apex/<abi>.<abi>.img' system images on their set of ABIs. Each image is its own
// targeted directory.
func apexImages(files []string) []splits.TargetedDirectory {
	values := map[string]string{}
	var all []string
	for _, f := range files {
		if path.Dir(f) != apexRoot || path.Ext(f) != apexImageExt {
			continue
		}
		var aliases []string
		valid := true
		for _, p := range strings.Split(strings.TrimSuffix(path.Base(f), apexImageExt), ".") {
			alias, ok := targeting.ABIFromDirectory(p)
			if !ok {
				valid = false
				break
			}
			aliases = append(aliases, alias)
		}
		if !valid {
			continue
		}
		v, err := targeting.MultiABIValue(aliases...)
		if err != nil {
			continue
		}
		values[f] = v
		all = append(all, v)
	}

	var images []string
	for f := range values {
		images = append(images, f)
	}
	sort.Strings(images)

	var ds []splits.TargetedDirectory
	for _, f := range images {
		ds = append(ds, splits.TargetedDirectory{
			Content:   splits.ApexImages,
			Path:      f,
			Targeting: targeting.NewDirectoryTargeting(targeting.NewSelection(targeting.MultiABI, []string{values[f]}, all)),
		})
	}
	return ds
}
