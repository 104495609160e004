package splits

import (
	"errors"
	"testing"

	"github.com/babystarcloud/bundletool/internal/manifest"
	"github.com/babystarcloud/bundletool/internal/targeting"
	"github.com/babystarcloud/bundletool/internal/testlib"
)

func buildSplit(t *testing.T, module string, master bool, apk targeting.Targeting, m *manifest.Manifest) *Split {
	t.Helper()
	if m == nil {
		m = manifest.Skeleton("com.test.app")
	}
	s, err := NewBuilder().
		SetModuleName(module).
		SetMasterSplit(master).
		SetApkTargeting(apk).
		SetManifest(m).
		Build()
	testlib.NoError(t, true, err)
	return s
}

func TestBuilderRejectsMultipleDimensions(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder().
		SetModuleName("base").
		AddApkTargeting(targeting.NewSelection(targeting.ABI, []string{"x86"}, nil)).
		AddApkTargeting(targeting.NewSelection(targeting.ScreenDensity, []string{"hdpi"}, nil)).
		Build()
	testlib.ErrorIs(t, false, targeting.ErrMultipleDimensions, err)
}

func TestBuilderRejectsDuplicateEntries(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder().
		SetModuleName("base").
		SetEntries([]Entry{{Path: "assets/a"}, {Path: "assets/a"}}).
		Build()
	testlib.ErrorIs(t, false, ErrDuplicateEntry, err)

	_, err = NewBuilder().Build()
	testlib.Error(t, false, err)
}

func TestSplitIDInManifest(t *testing.T) {
	t.Parallel()

	multiABI, err := targeting.MultiABIValue("arm64_v8a", "armeabi_v7a")
	testlib.NoError(t, true, err)
	multiABI2, err := targeting.MultiABIValue("x86_64", "x86")
	testlib.NoError(t, true, err)

	tcs := map[string]struct {
		module     string
		master     bool
		targeting  targeting.Targeting
		expectedID string
		expectSet  bool
	}{
		"MasterBase": {
			module: "base",
			master: true,
		},
		"MasterNonBase": {
			module:     "moduleA",
			master:     true,
			expectedID: "moduleA",
			expectSet:  true,
		},
		"ABI": {
			module:     "base",
			targeting:  targeting.Of(targeting.ABI, []string{"x86"}, nil),
			expectedID: "config.x86",
			expectSet:  true,
		},
		"ABINonBase": {
			module:     "moduleA",
			targeting:  targeting.Of(targeting.ABI, []string{"x86"}, nil),
			expectedID: "moduleA.config.x86",
			expectSet:  true,
		},
		"Density": {
			module:     "base",
			targeting:  targeting.Of(targeting.ScreenDensity, []string{"hdpi"}, nil),
			expectedID: "config.hdpi",
			expectSet:  true,
		},
		"TextureAlternatives": {
			module:     "base",
			targeting:  targeting.Of(targeting.TextureCompressionFormat, nil, []string{"atc", "etc1"}),
			expectedID: "config.other_tcf",
			expectSet:  true,
		},
		"ABIAlternatives": {
			module:     "base",
			targeting:  targeting.Of(targeting.ABI, nil, []string{"x86", "arm64_v8a"}),
			expectedID: "config.other_abis",
			expectSet:  true,
		},
		"DeviceTier": {
			module:     "base",
			targeting:  targeting.Of(targeting.DeviceTier, []string{"low"}, nil),
			expectedID: "config.tier_low",
			expectSet:  true,
		},
		"MultiABI": {
			module:     "base",
			targeting:  targeting.Of(targeting.MultiABI, []string{multiABI2, multiABI}, nil),
			expectedID: "config.armeabi_v7a.arm64_v8a_x86.x86_64",
			expectSet:  true,
		},
		"Language": {
			module:     "base",
			targeting:  targeting.Of(targeting.Language, []string{"es"}, nil),
			expectedID: "config.es",
			expectSet:  true,
		},
		"LanguageFallback": {
			module:     "base",
			targeting:  targeting.Of(targeting.Language, nil, []string{"es"}),
			expectedID: "config.other_lang",
			expectSet:  true,
		},
		"Sanitizer": {
			module:     "base",
			targeting:  targeting.Of(targeting.Sanitizer, []string{"hwaddress"}, nil),
			expectedID: "config.hwasan",
			expectSet:  true,
		},
	}

	for n := range tcs {
		tc := tcs[n]
		t.Run(n, func(t *testing.T) {
			t.Parallel()

			s := buildSplit(t, tc.module, tc.master, tc.targeting, nil)
			testlib.Equal(t, false, tc.expectedID, s.SplitID())

			written := s.WriteSplitIDInManifest(s.SplitID())
			id, ok := written.Manifest().SplitID()
			testlib.Equal(t, false, tc.expectSet, ok)
			testlib.Equal(t, false, tc.expectedID, id)

			// The original split is unchanged.
			_, ok = s.Manifest().SplitID()
			testlib.False(t, false, ok)
		})
	}
}

func TestMasterSplitGetsFeatureSplitManifest(t *testing.T) {
	t.Parallel()

	s := buildSplit(t, "testModule", true, targeting.Targeting{}, nil)
	written := s.WriteSplitIDInManifest("testModule")

	testlib.Equal(t, false, []manifest.Attribute{
		manifest.StringAttr("", manifest.PackageAttributeName, 0, "com.test.app"),
		manifest.IntAttr(manifest.AndroidNamespaceURI, manifest.VersionCodeAttributeName, manifest.VersionCodeResourceID, 1),
		manifest.StringAttr("", manifest.SplitAttributeName, 0, "testModule"),
		manifest.BoolAttr(manifest.AndroidNamespaceURI, manifest.IsFeatureSplitAttributeName, manifest.IsFeatureSplitResourceID, true),
	}, written.Manifest().Root().Attributes)

	// Neither config splits nor the base module are flagged.
	cfg := buildSplit(t, "testModule", false, targeting.Of(targeting.ABI, []string{"x86"}, nil), nil)
	testlib.False(t, false, cfg.WriteSplitIDInManifest(cfg.SplitID()).Manifest().IsFeatureSplit())
	base := buildSplit(t, "base", true, targeting.Targeting{}, nil)
	testlib.False(t, false, base.WriteSplitIDInManifest("").Manifest().IsFeatureSplit())
}

func TestSplitNameRemoved(t *testing.T) {
	t.Parallel()

	m := manifest.Skeleton("com.test.app", manifest.WithActivity("MainActivity", ""), manifest.WithActivity("FooActivity", "foo"))
	s := buildSplit(t, "base", true, targeting.Targeting{}, m).RemoveSplitName()

	acts := s.Manifest().Root().ChildElement(manifest.ApplicationElementName).ChildElements(manifest.ActivityElementName)
	testlib.Equal(t, true, 2, len(acts))
	testlib.Equal(t, false, []manifest.Attribute{
		manifest.StringAttr(manifest.AndroidNamespaceURI, manifest.NameAttributeName, manifest.NameResourceID, "FooActivity"),
	}, acts[1].Attributes)
}

func TestRemoveUnknownSplits(t *testing.T) {
	t.Parallel()

	m := manifest.Skeleton("com.test.app", manifest.WithActivity("MainActivity", ""), manifest.WithActivity("FooActivity", "foo"))
	s := buildSplit(t, "base", true, targeting.Targeting{}, m).RemoveUnknownSplitComponents(nil)

	acts := s.Manifest().Root().ChildElement(manifest.ApplicationElementName).ChildElements(manifest.ActivityElementName)
	testlib.Equal(t, true, 1, len(acts))
	testlib.Equal(t, false, []manifest.Attribute{
		manifest.StringAttr(manifest.AndroidNamespaceURI, manifest.NameAttributeName, manifest.NameResourceID, "MainActivity"),
	}, acts[0].Attributes)

	kept := buildSplit(t, "base", true, targeting.Targeting{}, m).RemoveUnknownSplitComponents([]string{"foo"})
	testlib.Equal(t, false, 2, len(kept.Manifest().Components()))
}

func TestSourceStamp(t *testing.T) {
	t.Parallel()

	const source = "https://www.validsource.com"

	master := buildSplit(t, "base", true, targeting.Targeting{}, nil)
	stamped, err := master.WriteSourceStampInManifest(source, StampTypeDistributionAPK)
	testlib.NoError(t, true, err)
	v, ok := stamped.Manifest().MetadataValue(StampTypeMetadataKey)
	testlib.True(t, true, ok)
	testlib.Equal(t, false, "STAMP_TYPE_DISTRIBUTION_APK", v)
	v, ok = stamped.Manifest().MetadataValue(StampSourceMetadataKey)
	testlib.True(t, true, ok)
	testlib.Equal(t, false, source, v)

	abi := buildSplit(t, "base", false, targeting.Of(targeting.ABI, []string{"x86"}, nil), nil)
	notStamped, err := abi.WriteSourceStampInManifest(source, StampTypeDistributionAPK)
	testlib.NoError(t, true, err)
	_, ok = notStamped.Manifest().MetadataValue(StampTypeMetadataKey)
	testlib.False(t, false, ok)
	_, ok = notStamped.Manifest().MetadataValue(StampSourceMetadataKey)
	testlib.False(t, false, ok)

	for _, invalid := range []string{"invalid url", "www.example.com", "file:///tmp/x", ""} {
		_, err = master.WriteSourceStampInManifest(invalid, StampTypeDistributionAPK)
		if !errors.Is(err, ErrInvalidStampSource) {
			t.Errorf("expected invalid stamp source error for %q, got %v", invalid, err)
		}
	}
	testlib.ErrorContains(t, false, "Invalid stamp source. Stamp sources should be URLs.", err)
}

func TestParseStampType(t *testing.T) {
	t.Parallel()

	for in, expected := range map[string]StampType{
		"distribution_apk":            StampTypeDistributionAPK,
		"STAMP_TYPE_STANDALONE_APK":   StampTypeStandaloneAPK,
		" standalone_apk ":            StampTypeStandaloneAPK,
		"STAMP_TYPE_DISTRIBUTION_APK": StampTypeDistributionAPK,
	} {
		st, err := ParseStampType(in)
		testlib.NoError(t, true, err)
		testlib.Equal(t, false, expected, st)
	}
	_, err := ParseStampType("apk")
	testlib.Error(t, false, err)
}

func TestEntriesUnderAndDirectoryIndex(t *testing.T) {
	t.Parallel()

	dirs := []TargetedDirectory{
		{Content: Assets, Path: "assets/textures#tcf_etc1"},
		{Content: Assets, Path: "assets/textures#tcf_etc1/hi#tier_1"},
		{Content: ApexImages, Path: "apex/x86.img"},
	}
	s, err := NewBuilder().
		SetModuleName("base").
		SetEntries([]Entry{
			{Path: "assets/textures#tcf_etc1/a.dat"},
			{Path: "assets/textures#tcf_etc1/hi#tier_1/b.dat"},
			{Path: "assets/texturesX/c.dat"},
			{Path: "apex/x86.img"},
		}).
		SetDirectories(dirs).
		Build()
	testlib.NoError(t, true, err)

	var paths []string
	for _, e := range s.EntriesUnder("assets/textures#tcf_etc1/") {
		paths = append(paths, e.Path)
	}
	testlib.Equal(t, false, []string{"assets/textures#tcf_etc1/a.dat", "assets/textures#tcf_etc1/hi#tier_1/b.dat"}, paths)

	x := NewDirectoryIndex(s.Directories())
	tcs := map[string]struct {
		path     string
		expected string
		found    bool
	}{
		"Direct":    {path: "assets/textures#tcf_etc1/a.dat", expected: "assets/textures#tcf_etc1", found: true},
		"Deepest":   {path: "assets/textures#tcf_etc1/hi#tier_1/b.dat", expected: "assets/textures#tcf_etc1/hi#tier_1", found: true},
		"NotPrefix": {path: "assets/texturesX/c.dat"},
		"Apex":      {path: "apex/x86.img", expected: "apex/x86.img", found: true},
	}
	for n := range tcs {
		tc := tcs[n]
		t.Run(n, func(t *testing.T) {
			t.Parallel()

			d, ok := x.Lookup(tc.path)
			testlib.Equal(t, true, tc.found, ok)
			testlib.Equal(t, false, tc.expected, d.Path)
		})
	}
}

func TestStripSuffix(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		path      string
		dimension targeting.Dimension
		expected  string
	}{
		"TCF":          {"assets/img#tcf_etc1/a.png", targeting.TextureCompressionFormat, "assets/img/a.png"},
		"OtherKept":    {"assets/img#tcf_etc1#tier_low/a.png", targeting.DeviceTier, "assets/img#tcf_etc1/a.png"},
		"Middle":       {"assets/img#tier_low#tcf_etc1/a.png", targeting.DeviceTier, "assets/img#tcf_etc1/a.png"},
		"Nested":       {"assets/a#tier_0/b#tier_1", targeting.DeviceTier, "assets/a/b"},
		"NoSuffixKey":  {"lib/x86/a.so", targeting.ABI, "lib/x86/a.so"},
		"Unrelated":    {"assets/img#lang_es/a.png", targeting.TextureCompressionFormat, "assets/img#lang_es/a.png"},
		"FallbackOnly": {"assets/img/a.png", targeting.Language, "assets/img/a.png"},
	}
	for n := range tcs {
		tc := tcs[n]
		t.Run(n, func(t *testing.T) {
			t.Parallel()
			testlib.Equal(t, false, tc.expected, StripSuffix(tc.path, tc.dimension))
		})
	}

	testlib.Equal(t, false, "assets/img/a.png", StripAllSuffixes("assets/img#tcf_etc1#tier_low/a.png"))
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	mk := func(content string) *Split {
		s, err := NewBuilder().
			SetModuleName("base").
			SetMasterSplit(true).
			SetEntries([]Entry{{Path: "assets/a", Content: Bytes(content)}}).
			SetManifest(manifest.Skeleton("com.test.app")).
			Build()
		testlib.NoError(t, true, err)
		return s
	}

	a1, err := mk("one").Fingerprint()
	testlib.NoError(t, true, err)
	a2, err := mk("one").Fingerprint()
	testlib.NoError(t, true, err)
	b, err := mk("two").Fingerprint()
	testlib.NoError(t, true, err)

	testlib.Equal(t, false, a1, a2)
	testlib.NotEqual(t, false, a1, b)

	stamped, err := mk("one").WriteSourceStampInManifest("https://example.com", StampTypeStandaloneAPK)
	testlib.NoError(t, true, err)
	v, ok := stamped.Manifest().MetadataValue(StampSourceMetadataKey)
	testlib.True(t, true, ok)
	testlib.Equal(t, true, "https://example.com", v)
	c, err := stamped.Fingerprint()
	testlib.NoError(t, true, err)
	testlib.NotEqual(t, false, a1, c)
}
