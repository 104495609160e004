package residuals

import "fmt"

type residualError interface {
	error
	Details() string
}

type lostEntryErr struct {
	Module    string
	Dimension string
	Path      string
	Missing   int
}

func (e lostEntryErr) Error() string {
	return fmt.Sprintf("splitting module %q along %s lost content", e.Module, e.Dimension)
}

func (e lostEntryErr) Details() string {
	return fmt.Sprintf("splitting module %q along %s lost entry %q (%d missing)", e.Module, e.Dimension, e.Path, e.Missing)
}

type duplicateEntryErr struct {
	Module    string
	Dimension string
	Path      string
	Splits    []string
}

func (e duplicateEntryErr) Error() string {
	return fmt.Sprintf("splitting module %q along %s duplicated content", e.Module, e.Dimension)
}

func (e duplicateEntryErr) Details() string {
	return fmt.Sprintf("splitting module %q along %s placed entry %q in more than one split: %v", e.Module, e.Dimension, e.Path, e.Splits)
}

type unexpectedEntryErr struct {
	Module    string
	Dimension string
	Path      string
	Split     string
}

func (e unexpectedEntryErr) Error() string {
	return fmt.Sprintf("splitting module %q along %s produced unknown content", e.Module, e.Dimension)
}

func (e unexpectedEntryErr) Details() string {
	return fmt.Sprintf("splitting module %q along %s produced entry %q in split %q which is not part of the input", e.Module, e.Dimension, e.Path, e.Split)
}

type splitIDCollisionErr struct {
	ID     string
	Splits []string
}

func (e splitIDCollisionErr) Error() string {
	return fmt.Sprintf("split id %q is used by more than one split", e.ID)
}

func (e splitIDCollisionErr) Details() string {
	return fmt.Sprintf("split id %q is used by more than one split: %v", e.ID, e.Splits)
}
