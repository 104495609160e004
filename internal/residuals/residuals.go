// Package residuals verifies that split generation neither loses nor duplicates module content and
// that the resulting split identifiers are unique.
package residuals

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/babystarcloud/bundletool/internal/splits"
	"github.com/babystarcloud/bundletool/internal/targeting"
)

var (
	// ErrPartition is returned when split generation lost or duplicated module content.
	ErrPartition = errors.New("split content is not a partition of the module content")
	// ErrSplitIDCollision is returned when two splits share a split id.
	ErrSplitIDCollision = errors.New("split ids are not unique")
)

// CheckPartition verifies that every entry of the input split appears in exactly one of the
// outputs. Entry paths are compared with the dimension's suffix markers removed so that splitters
// that strip suffixes can be verified as well.
func CheckPartition(log *zap.Logger, d targeting.Dimension, in *splits.Split, out []*splits.Split) error {
	log.Debug("Verifying split partition.", zap.String("module", in.ModuleName()), zap.Stringer("dimension", d))

	expected := map[string]int{}
	for _, e := range in.Entries() {
		expected[splits.StripSuffix(e.Path, d)]++
	}

	seen := map[string][]string{}
	var errs []residualError
	for _, s := range out {
		for _, e := range s.Entries() {
			p := splits.StripSuffix(e.Path, d)
			if expected[p] == 0 {
				errs = append(errs, &unexpectedEntryErr{Module: in.ModuleName(), Dimension: d.String(), Path: p, Split: s.SplitID()})
				continue
			}
			seen[p] = append(seen[p], s.SplitID())
		}
	}

	paths := make([]string, 0, len(expected))
	for p := range expected {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		switch n := len(seen[p]); {
		case n < expected[p]:
			errs = append(errs, &lostEntryErr{Module: in.ModuleName(), Dimension: d.String(), Path: p, Missing: expected[p] - n})
		case n > expected[p]:
			errs = append(errs, &duplicateEntryErr{Module: in.ModuleName(), Dimension: d.String(), Path: p, Splits: seen[p]})
		}
	}

	return report(log, ErrPartition, "Detected errors while verifying the split partition:", errs)
}

// CheckSplitIDs verifies that no two splits share a split id.
func CheckSplitIDs(log *zap.Logger, ss []*splits.Split) error {
	byID := map[string][]string{}
	var ids []string
	for _, s := range ss {
		id := s.SplitID()
		if _, ok := byID[id]; !ok {
			ids = append(ids, id)
		}
		byID[id] = append(byID[id], s.String())
	}

	var errs []residualError
	for _, id := range ids {
		if len(byID[id]) > 1 {
			errs = append(errs, &splitIDCollisionErr{ID: id, Splits: byID[id]})
		}
	}
	return report(log, ErrSplitIDCollision, "Detected colliding split ids:", errs)
}

func report(log *zap.Logger, sentinel error, header string, errs []residualError) error {
	if len(errs) == 0 {
		return nil
	}

	var msgs []string
	seen := map[string]bool{}
	for _, err := range errs {
		msg := err.Error()
		if log.Core().Enabled(zap.DebugLevel) {
			msg = err.Details()
		}
		if !seen[msg] {
			seen[msg] = true
			msgs = append(msgs, msg)
		}
	}
	log.Error(header)
	for _, msg := range msgs {
		log.Error(" - " + msg)
	}
	return fmt.Errorf("%w: %s", sentinel, errs[0].Error())
}
