package generator

import (
	"io/ioutil"
	"testing"

	"github.com/rogpeppe/go-internal/txtar"
	"go.uber.org/zap/zaptest"

	"github.com/babystarcloud/bundletool/cmd/config"
	"github.com/babystarcloud/bundletool/internal/filecache/testcache"
	"github.com/babystarcloud/bundletool/internal/manifest"
	"github.com/babystarcloud/bundletool/internal/parser"
	"github.com/babystarcloud/bundletool/internal/splits"
	"github.com/babystarcloud/bundletool/internal/stripper"
	"github.com/babystarcloud/bundletool/internal/testlib"
)

func loadModules(t *testing.T) []splits.Module {
	a, err := txtar.ParseFile("testdata/bundle.txtar")
	testlib.NoError(t, true, err)
	fc, err := testcache.FromTxtar("fake-cache-dir", a)
	testlib.NoError(t, true, err)
	ms, err := parser.Parse(zaptest.NewLogger(t), fc)
	testlib.NoError(t, true, err)
	return ms
}

func resolve(t *testing.T, b config.Bundle) *config.Bundle {
	testlib.NoError(t, true, b.Resolve(zaptest.NewLogger(t)))
	return &b
}

func ids(ss []*splits.Split) []string {
	var r []string
	for _, s := range ss {
		r = append(r, s.SplitID())
	}
	return r
}

func entryPaths(s *splits.Split) []string {
	var r []string
	for _, e := range s.Entries() {
		r = append(r, e.Path)
	}
	return r
}

func content(t *testing.T, s *splits.Split, p string) string {
	for _, e := range s.Entries() {
		if e.Path != p {
			continue
		}
		r, err := e.Content.Open()
		testlib.NoError(t, true, err)
		defer r.Close()
		b, err := ioutil.ReadAll(r)
		testlib.NoError(t, true, err)
		return string(b)
	}
	t.Fatalf("no entry %q in split %s", p, s)
	return ""
}

func TestGenerateAllDefaultDimensions(t *testing.T) {
	t.Parallel()

	b := resolve(t, config.Bundle{
		RemoveUnknownSplitComponents: true,
		Stamp:                        &config.Stamp{Source: "https://example.com/app"},
	})
	ss, err := GenerateAll(zaptest.NewLogger(t), b, loadModules(t))
	testlib.NoError(t, true, err)

	testlib.Equal(t, false, []string{
		"",
		"config.tier_high",
		"config.tier_low",
		"config.astc",
		"config.etc1",
		"config.hdpi",
		"config.arm64_v8a",
		"config.x86",
		"feature",
		"feature.config.de",
		"feature.config.fr",
	}, ids(ss))

	master := ss[0]
	testlib.ElementsMatch(t, false, []string{"dex/classes.dex", "res/drawable/icon.png"}, entryPaths(master))
	testlib.Equal(t, false, 2, len(master.Manifest().Components()))
	src, ok := master.Manifest().MetadataValue(splits.StampSourceMetadataKey)
	testlib.True(t, true, ok)
	testlib.Equal(t, false, "https://example.com/app", src)
	st, ok := master.Manifest().MetadataValue(splits.StampTypeMetadataKey)
	testlib.True(t, true, ok)
	testlib.Equal(t, false, "STAMP_TYPE_DISTRIBUTION_APK", st)

	for _, s := range ss {
		id, ok := s.Manifest().SplitID()
		testlib.Equal(t, false, s.SplitID() != "", ok)
		testlib.Equal(t, false, s.SplitID(), id)
		if !s.IsMasterSplit() {
			_, stamped := s.Manifest().MetadataValue(splits.StampSourceMetadataKey)
			testlib.False(t, false, stamped)
		}
	}

	testlib.Equal(t, false, []string{"lib/x86/libfoo.so"}, entryPaths(ss[7]))
	testlib.True(t, false, ss[8].Manifest().IsFeatureSplit())
	testlib.False(t, false, ss[9].Manifest().IsFeatureSplit())
	testlib.Equal(t, false, "de\n", content(t, ss[9], "assets/strings#lang_de/s.txt"))
}

func TestGenerateStrippedAndRemovedDimensions(t *testing.T) {
	t.Parallel()

	b := resolve(t, config.Bundle{
		Dimensions:      []config.Dimension{{Dimension: "abi"}},
		SuffixStripping: map[string]stripper.SuffixStripping{"tcf": {DefaultSuffix: "etc1", Enabled: true}},
		RemoveTargeting: []string{"device_tier"},
		RemoveSplitName: true,
	})
	ms := loadModules(t)
	ss, err := Generate(zaptest.NewLogger(t), b, ms[0], []string{"base", "feature"})
	testlib.NoError(t, true, err)
	testlib.Equal(t, false, []string{"", "config.arm64_v8a", "config.x86"}, ids(ss))

	master := ss[0]
	testlib.ElementsMatch(t, false, []string{
		"dex/classes.dex",
		"res/drawable/icon.png",
		"res/drawable-hdpi/icon.png",
		"assets/textures/t.dat",
		"assets/img/low.png",
		"assets/img/high.png",
	}, entryPaths(master))
	testlib.Equal(t, false, "etc1\n", content(t, master, "assets/textures/t.dat"))
	testlib.Equal(t, false, "etc1", master.ApkTargeting().Suffix())

	for _, c := range master.Manifest().Components() {
		_, ok := c.Attribute(manifest.AndroidNamespaceURI, manifest.SplitNameAttributeName)
		testlib.False(t, false, ok)
	}
}

func TestGenerateRemovedTargetingCollision(t *testing.T) {
	t.Parallel()

	// Both texture directories hold a 't.dat' that would be merged into 'assets/textures'.
	b := resolve(t, config.Bundle{RemoveTargeting: []string{"texture_compression_format"}})
	_, err := Generate(zaptest.NewLogger(t), b, loadModules(t)[0], []string{"base", "feature"})
	testlib.ErrorIs(t, false, splits.ErrDuplicateEntry, err)
}

func TestGenerateAllInvalidStamp(t *testing.T) {
	t.Parallel()

	b := resolve(t, config.Bundle{Stamp: &config.Stamp{Source: "not a url"}})
	_, err := GenerateAll(zaptest.NewLogger(t), b, loadModules(t))
	testlib.ErrorIs(t, false, splits.ErrInvalidStampSource, err)
}
