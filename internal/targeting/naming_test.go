package targeting

import (
	"testing"

	"github.com/babystarcloud/bundletool/internal/testlib"
)

func TestSuffix(t *testing.T) {
	t.Parallel()

	multiABI := func(sets ...[]string) []string {
		var vs []string
		for _, s := range sets {
			v, err := MultiABIValue(s...)
			testlib.NoError(t, true, err)
			vs = append(vs, v)
		}
		return vs
	}

	tcs := map[string]struct {
		targeting Targeting
		expected  string
	}{
		"Default":                {expected: ""},
		"ABI":                    {targeting: Of(ABI, []string{"x86"}, []string{"x86"}), expected: "x86"},
		"ABIAlternatives":        {targeting: Of(ABI, nil, []string{"arm64_v8a", "armeabi", "armeabi_v7a"}), expected: "other_abis"},
		"Density":                {targeting: Of(ScreenDensity, []string{"hdpi"}, nil), expected: "hdpi"},
		"Language":               {targeting: Of(Language, []string{"es"}, nil), expected: "es"},
		"LanguageAlternatives":   {targeting: Of(Language, nil, []string{"es"}), expected: "other_lang"},
		"TextureCompression":     {targeting: Of(TextureCompressionFormat, []string{"etc1"}, []string{"atc"}), expected: "etc1"},
		"TextureAlternatives":    {targeting: Of(TextureCompressionFormat, nil, []string{"atc"}), expected: "other_tcf"},
		"DeviceTier":             {targeting: Of(DeviceTier, []string{"low"}, []string{"medium", "high"}), expected: "tier_low"},
		"DeviceTierAlternatives": {targeting: Of(DeviceTier, nil, []string{"low"}), expected: "other_tier"},
		"Sanitizer":              {targeting: Of(Sanitizer, []string{"hwaddress"}, nil), expected: "hwasan"},
		"MultiABI": {
			targeting: Of(MultiABI, multiABI([]string{"x86_64", "x86"}, []string{"arm64_v8a", "armeabi_v7a"}), nil),
			expected:  "armeabi_v7a.arm64_v8a_x86.x86_64",
		},
	}

	for n := range tcs {
		tc := tcs[n]
		t.Run(n, func(t *testing.T) {
			t.Parallel()

			testlib.Equal(t, false, tc.expected, tc.targeting.Suffix())
			// Naming is deterministic.
			testlib.Equal(t, false, Suffix(tc.targeting), Suffix(tc.targeting))
		})
	}
}

func TestSplitID(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		module   string
		master   bool
		suffix   string
		expected string
	}{
		"BaseMaster":         {module: "base", master: true, expected: ""},
		"FeatureMaster":      {module: "moduleA", master: true, expected: "moduleA"},
		"BaseConfig":         {module: "base", suffix: "x86", expected: "config.x86"},
		"BaseConfigOther":    {module: "base", suffix: "other_tcf", expected: "config.other_tcf"},
		"FeatureConfig":      {module: "moduleA", suffix: "hdpi", expected: "moduleA.config.hdpi"},
		"ConfigWithoutValue": {module: "moduleA", expected: "moduleA"},
	}

	for n := range tcs {
		tc := tcs[n]
		t.Run(n, func(t *testing.T) {
			t.Parallel()

			got := SplitID(tc.module, tc.module == BaseModuleName, tc.master, tc.suffix)
			testlib.Equal(t, false, tc.expected, got)
		})
	}
}
