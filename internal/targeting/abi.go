package targeting

import (
	"fmt"
	"sort"
	"strings"
)

type abiInfo struct {
	alias string
	dir   string
}

// Canonical ABI table. The position of an ABI in this table defines its order inside a multi-ABI
// value.
var abiTable = []abiInfo{
	{alias: "armeabi", dir: "armeabi"},
	{alias: "armeabi_v7a", dir: "armeabi-v7a"},
	{alias: "arm64_v8a", dir: "arm64-v8a"},
	{alias: "x86", dir: "x86"},
	{alias: "x86_64", dir: "x86_64"},
	{alias: "mips", dir: "mips"},
	{alias: "mips64", dir: "mips64"},
	{alias: "riscv64", dir: "riscv64"},
}

func abiAliases() []string {
	as := make([]string, 0, len(abiTable))
	for _, a := range abiTable {
		as = append(as, a.alias)
	}
	return as
}

func abiRank(alias string) int {
	for i, a := range abiTable {
		if a.alias == alias {
			return i
		}
	}
	return -1
}

// ABIFromDirectory maps a native library directory name such as 'arm64-v8a' to its ABI alias.
func ABIFromDirectory(dir string) (string, bool) {
	for _, a := range abiTable {
		if a.dir == dir {
			return a.alias, true
		}
	}
	return "", false
}

// ABIDirectory maps an ABI alias to the name of its native library directory.
func ABIDirectory(alias string) string {
	for _, a := range abiTable {
		if a.alias == alias {
			return a.dir
		}
	}
	return ""
}

// MultiABIValue builds the canonical value of a set of ABIs: aliases ordered by the ABI table and
// joined with '.'.
func MultiABIValue(aliases ...string) (string, error) {
	if len(aliases) == 0 {
		return "", fmt.Errorf("empty ABI set")
	}
	seen := map[string]bool{}
	var as []string
	for _, a := range aliases {
		if abiRank(a) < 0 {
			return "", fmt.Errorf("unknown ABI %q", a)
		}
		if !seen[a] {
			seen[a] = true
			as = append(as, a)
		}
	}
	sort.Slice(as, func(i, j int) bool { return abiRank(as[i]) < abiRank(as[j]) })
	return strings.Join(as, "."), nil
}

// ParseMultiABIValue splits a canonical multi-ABI value back into its ABI aliases.
func ParseMultiABIValue(value string) ([]string, error) {
	as := strings.Split(value, ".")
	v, err := MultiABIValue(as...)
	if err != nil {
		return nil, err
	}
	if v != value {
		return nil, fmt.Errorf("multi-ABI value %q is not in canonical order", value)
	}
	return as, nil
}
