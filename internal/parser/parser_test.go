package parser

import (
	"io/ioutil"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/babystarcloud/bundletool/internal/filecache/testcache"
	"github.com/babystarcloud/bundletool/internal/splits"
	"github.com/babystarcloud/bundletool/internal/targeting"
	"github.com/babystarcloud/bundletool/internal/testlib"
)

func sel(d targeting.Dimension, values []string, alts ...string) targeting.Selection {
	return targeting.NewSelection(d, values, alts)
}

func dir(c splits.ContentType, p string, sels ...targeting.Selection) splits.TargetedDirectory {
	return splits.TargetedDirectory{Content: c, Path: p, Targeting: targeting.NewDirectoryTargeting(sels...)}
}

func TestTargetedDirectories(t *testing.T) {
	t.Parallel()

	tcf := targeting.TextureCompressionFormat
	tier := targeting.DeviceTier

	tcs := map[string]struct {
		files    []string
		expected []splits.TargetedDirectory
	}{
		"NoTargeting": {
			files: []string{"assets/a.txt", "assets/img/b.png", "dex/classes.dex", "root/x"},
		},
		"TextureWithFallback": {
			files: []string{
				"assets/textures/untargeted_texture.dat",
				"assets/textures#tcf_etc1/etc1_texture.dat",
				"assets/textures#tcf_atc/atc_texture.dat",
			},
			expected: []splits.TargetedDirectory{
				dir(splits.Assets, "assets/textures", sel(tcf, nil, "atc", "etc1")),
				dir(splits.Assets, "assets/textures#tcf_atc", sel(tcf, []string{"atc"}, "etc1")),
				dir(splits.Assets, "assets/textures#tcf_etc1", sel(tcf, []string{"etc1"}, "atc")),
			},
		},
		"DeviceTiers": {
			files: []string{
				"assets/file.txt",
				"assets/images#tier_low/image.jpg",
				"assets/images#tier_high/image.jpg",
			},
			expected: []splits.TargetedDirectory{
				dir(splits.Assets, "assets/images#tier_high", sel(tier, []string{"high"}, "low")),
				dir(splits.Assets, "assets/images#tier_low", sel(tier, []string{"low"}, "high")),
			},
		},
		"NestedDimensions": {
			files: []string{
				"assets/tex#tcf_astc/hi#tier_1/a.dat",
				"assets/tex#tcf_astc/hi#tier_0/a.dat",
				"assets/tex#tcf_astc/sub/b.dat",
			},
			expected: []splits.TargetedDirectory{
				dir(splits.Assets, "assets/tex#tcf_astc", sel(tcf, []string{"astc"})),
				dir(splits.Assets, "assets/tex#tcf_astc/hi#tier_0", sel(tcf, []string{"astc"}), sel(tier, []string{"0"}, "1")),
				dir(splits.Assets, "assets/tex#tcf_astc/hi#tier_1", sel(tcf, []string{"astc"}), sel(tier, []string{"1"}, "0")),
			},
		},
		"InvalidMarkers": {
			files: []string{
				"assets/tex#tcf_bogus/a.dat",
				"assets/tex#foo_bar/a.dat",
				"assets/strings#lang_fr/s.txt",
			},
			expected: []splits.TargetedDirectory{
				dir(splits.Assets, "assets/strings#lang_fr", sel(targeting.Language, []string{"fr"})),
			},
		},
		"NativeLibraries": {
			files: []string{
				"lib/x86/libfoo.so",
				"lib/arm64-v8a/libfoo.so",
				"lib/arm64-v8a-hwasan/libfoo.so",
				"lib/unknown/libfoo.so",
			},
			expected: []splits.TargetedDirectory{
				dir(splits.NativeLibraries, "lib/arm64-v8a", sel(targeting.ABI, []string{"arm64_v8a"}, "x86")),
				dir(splits.NativeLibraries, "lib/arm64-v8a-hwasan",
					sel(targeting.ABI, []string{"arm64_v8a"}, "x86"),
					sel(targeting.Sanitizer, []string{"hwaddress"}),
				),
				dir(splits.NativeLibraries, "lib/x86", sel(targeting.ABI, []string{"x86"}, "arm64_v8a")),
			},
		},
		"Resources": {
			files: []string{
				"res/drawable/icon.png",
				"res/drawable-hdpi/icon.png",
				"res/drawable-xhdpi-v21/icon.png",
				"res/values-fr/strings.xml",
				"res/values-land/dimens.xml",
				"res/values-car/dimens.xml",
			},
			expected: []splits.TargetedDirectory{
				dir(splits.Resources, "res/drawable-hdpi", sel(targeting.ScreenDensity, []string{"hdpi"}, "xhdpi")),
				dir(splits.Resources, "res/drawable-xhdpi-v21", sel(targeting.ScreenDensity, []string{"xhdpi"}, "hdpi")),
				dir(splits.Resources, "res/values-fr", sel(targeting.Language, []string{"fr"})),
			},
		},
		"ApexImages": {
			files: []string{
				"apex/x86_64.x86.img",
				"apex/arm64-v8a.armeabi-v7a.img",
				"apex/bogus.img",
			},
			expected: []splits.TargetedDirectory{
				dir(splits.ApexImages, "apex/arm64-v8a.armeabi-v7a.img", sel(targeting.MultiABI, []string{"armeabi_v7a.arm64_v8a"}, "x86.x86_64")),
				dir(splits.ApexImages, "apex/x86_64.x86.img", sel(targeting.MultiABI, []string{"x86.x86_64"}, "armeabi_v7a.arm64_v8a")),
			},
		},
	}

	for n := range tcs {
		tc := tcs[n]
		t.Run(n, func(t *testing.T) {
			t.Parallel()
			testlib.Equal(t, false, tc.expected, targetedDirectories(tc.files))
		})
	}
}

func TestParseModule(t *testing.T) {
	t.Parallel()

	fc, err := testcache.NewFakeFileCache("fake-cache-dir", map[string]testcache.FakeFileCacheEntry{
		"base/manifest/AndroidManifest.xml": {Data: []byte(`<manifest package="com.test.app" />`)},
		"base/dex/classes.dex":              {Data: []byte("dex")},
		"pack/manifest/AndroidManifest.xml": {Data: []byte(`<manifest xmlns:dist="http://schemas.android.com/apk/distribution" package="com.test.app" split="pack"><dist:module dist:type="asset-pack" /></manifest>`)},
		"pack/assets/img#tier_0/a.png":      {Data: []byte("zero")},
		"pack/assets/img#tier_1/a.png":      {Data: []byte("one")},
		"bust/manifest/AndroidManifest.xml": {Data: []byte(`<application />`)},
	})
	testlib.NoError(t, true, err)

	ms, err := Parse(zaptest.NewLogger(t), fc, "pack", "base")
	testlib.NoError(t, true, err)
	testlib.Equal(t, true, 2, len(ms))

	base, pack := ms[0], ms[1]
	testlib.Equal(t, false, "base", base.Name)
	testlib.Equal(t, false, splits.FeatureModule, base.Type)
	testlib.Equal(t, false, "com.test.app", base.Manifest.PackageName())
	testlib.Equal(t, true, 1, len(base.Entries))
	testlib.Equal(t, false, "dex/classes.dex", base.Entries[0].Path)
	testlib.Equal(t, false, 0, len(base.Directories))

	testlib.Equal(t, false, splits.AssetModule, pack.Type)
	testlib.Equal(t, true, 2, len(pack.Entries))
	testlib.Equal(t, false, "assets/img#tier_1/a.png", pack.Entries[1].Path)
	testlib.Equal(t, false, 2, len(pack.Directories))

	r, err := pack.Entries[1].Content.Open()
	testlib.NoError(t, true, err)
	b, err := ioutil.ReadAll(r)
	testlib.NoError(t, true, err)
	testlib.Equal(t, false, []byte("one"), b)

	_, err = Parse(zaptest.NewLogger(t), fc)
	testlib.Error(t, false, err)

	_, err = ParseModule(zaptest.NewLogger(t), fc, "missing")
	testlib.Error(t, false, err)
}
