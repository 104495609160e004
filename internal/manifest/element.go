package manifest

import (
	"strconv"
)

type AttributeKind uint8

const (
	StringAttribute AttributeKind = iota
	BooleanAttribute
	IntegerAttribute
)

// Attribute is a typed, optionally namespaced, attribute of a manifest element. Its value is kept
// in textual form and interpreted according to its kind.
type Attribute struct {
	Namespace  string
	Name       string
	ResourceID uint32
	Kind       AttributeKind
	Value      string
}

func StringAttr(ns, name string, resID uint32, value string) Attribute {
	return Attribute{Namespace: ns, Name: name, ResourceID: resID, Kind: StringAttribute, Value: value}
}

func BoolAttr(ns, name string, resID uint32, value bool) Attribute {
	return Attribute{Namespace: ns, Name: name, ResourceID: resID, Kind: BooleanAttribute, Value: strconv.FormatBool(value)}
}

func IntAttr(ns, name string, resID uint32, value int64) Attribute {
	return Attribute{Namespace: ns, Name: name, ResourceID: resID, Kind: IntegerAttribute, Value: strconv.FormatInt(value, 10)}
}

// Bool interprets the attribute value as a boolean. Malformed values are false.
func (a Attribute) Bool() bool {
	b, _ := strconv.ParseBool(a.Value)
	return b
}

// Element is a node of a manifest tree. An element exclusively owns its children: trees are never
// shared between manifests and every edit goes through a clone.
type Element struct {
	Namespace  string
	Name       string
	Attributes []Attribute
	Children   []*Element
}

func NewElement(name string, attrs ...Attribute) *Element {
	return &Element{Name: name, Attributes: attrs}
}

// Clone returns a deep copy of the element and its subtree.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := &Element{Namespace: e.Namespace, Name: e.Name}
	if e.Attributes != nil {
		c.Attributes = make([]Attribute, len(e.Attributes))
		copy(c.Attributes, e.Attributes)
	}
	for _, ch := range e.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	return c
}

// Attribute looks up an attribute by namespace and name.
func (e *Element) Attribute(ns, name string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Namespace == ns && a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// SetAttribute replaces the attribute with the same namespace and name or appends it.
func (e *Element) SetAttribute(a Attribute) {
	for i := range e.Attributes {
		if e.Attributes[i].Namespace == a.Namespace && e.Attributes[i].Name == a.Name {
			e.Attributes[i] = a
			return
		}
	}
	e.Attributes = append(e.Attributes, a)
}

// RemoveAttribute deletes the attribute and reports whether it was present.
func (e *Element) RemoveAttribute(ns, name string) bool {
	for i := range e.Attributes {
		if e.Attributes[i].Namespace == ns && e.Attributes[i].Name == name {
			e.Attributes = append(e.Attributes[:i], e.Attributes[i+1:]...)
			return true
		}
	}
	return false
}

// ChildElement returns the first child with the given name, or nil.
func (e *Element) ChildElement(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildElements returns all children with the given name in document order.
func (e *Element) ChildElements(name string) []*Element {
	var cs []*Element
	for _, c := range e.Children {
		if c.Name == name {
			cs = append(cs, c)
		}
	}
	return cs
}

func (e *Element) AddChild(c *Element) {
	e.Children = append(e.Children, c)
}

// RemoveChildren deletes the direct children matching the predicate and returns how many were
// removed.
func (e *Element) RemoveChildren(match func(*Element) bool) int {
	kept := e.Children[:0]
	var n int
	for _, c := range e.Children {
		if match(c) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(e.Children); i++ {
		e.Children[i] = nil
	}
	e.Children = kept
	return n
}

// Walk visits the element and its subtree depth-first in document order.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}
