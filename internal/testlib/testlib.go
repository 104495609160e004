package testlib

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Equal compares values with go-cmp. Types defining an Equal method are compared through it.
func Equal(t *testing.T, strict bool, expected interface{}, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if cmp.Equal(expected, actual, opts...) {
		return
	}
	failWithDiff(t, strict, "Mismatched values", cmp.Diff(expected, actual, opts...))
}

func NotEqual(t *testing.T, strict bool, expected interface{}, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if !cmp.Equal(expected, actual, opts...) {
		return
	}
	fail(t, strict, fmt.Sprintf("Unexpected value %v", expected))
}

// ElementsMatch compares two string slices regardless of their order.
func ElementsMatch(t *testing.T, strict bool, expected []string, actual []string) {
	t.Helper()
	e := append([]string(nil), expected...)
	a := append([]string(nil), actual...)
	sort.Strings(e)
	sort.Strings(a)
	if len(e) == 0 && len(a) == 0 {
		return
	}
	Equal(t, strict, e, a)
}

func Error(t *testing.T, strict bool, actual error) {
	t.Helper()
	if actual != nil {
		return
	}
	fail(t, strict, "Expected an error but got none")
}

// ErrorIs checks that actual wraps target.
func ErrorIs(t *testing.T, strict bool, target error, actual error) {
	t.Helper()
	if errors.Is(actual, target) {
		return
	}
	failWithDiff(t, strict, "Unexpected error.", fmt.Sprintf("Expected: %v\nActual: %v", target, actual))
}

// ErrorContains checks that actual is an error whose message contains the given text.
func ErrorContains(t *testing.T, strict bool, text string, actual error) {
	t.Helper()
	if actual != nil && strings.Contains(actual.Error(), text) {
		return
	}
	failWithDiff(t, strict, "Expected an error containing a specific message.", fmt.Sprintf("Expected text: %q\nActual: %v", text, actual))
}

func NoError(t *testing.T, strict bool, actual error) {
	t.Helper()
	if actual == nil {
		return
	}
	failWithDiff(t, strict, "Expected no error.", fmt.Sprintf("Error: %s", actual.Error()))
}

func True(t *testing.T, strict bool, actual bool) {
	t.Helper()
	if actual {
		return
	}
	fail(t, strict, "Expected condition to be true.")
}

func False(t *testing.T, strict bool, actual bool) {
	t.Helper()
	if !actual {
		return
	}
	fail(t, strict, "Expected condition to be false.")
}

func fail(t *testing.T, strict bool, msg string) {
	reportFunc(t, strict)("\nISSUE: %s\n\nCALLSTACK:\n%s", msg, location())
}

func failWithDiff(t *testing.T, strict bool, msg string, diff string) {
	reportFunc(t, strict)("\nISSUE: %s\n\nDIFF:\n%s\n\nCALLSTACK:\n%s", msg, diff, location())
}

func reportFunc(t *testing.T, strict bool) func(fmt string, args ...interface{}) {
	if strict {
		return t.Fatalf
	}
	return t.Errorf
}

func location() string {
	var locs []string

	sp := 3
	visited := map[string]int{}
	for {
		_, f, l, ok := runtime.Caller(sp)
		if !ok || strings.HasPrefix(f, runtime.GOROOT()) {
			break
		}
		fl := fmt.Sprintf("%s:%d", f, l)
		if visited[fl] > 1 {
			locs = append(locs, " - ...apparent call cycle...")
			break
		}
		sp++
		visited[fl]++
		locs = append(locs, fmt.Sprintf(" - %2d. %s", sp-3, fl))
	}

	if len(locs) == 0 {
		locs = []string{"<WARNING> Could not determine location of failed assertion."}
	}
	return strings.Join(locs, "\n")
}
