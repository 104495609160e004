package manifest

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

type attributeInfo struct {
	resID uint32
	kind  AttributeKind
}

// Typed android attributes. Attributes missing from this table are kept as strings without a
// resource identifier.
var androidAttributes = map[string]attributeInfo{
	NameAttributeName:           {resID: NameResourceID, kind: StringAttribute},
	ValueAttributeName:          {resID: ValueResourceID, kind: StringAttribute},
	VersionCodeAttributeName:    {resID: VersionCodeResourceID, kind: IntegerAttribute},
	SplitNameAttributeName:      {resID: SplitNameResourceID, kind: StringAttribute},
	IsFeatureSplitAttributeName: {resID: IsFeatureSplitResourceID, kind: BooleanAttribute},
	"hasCode":                   {resID: HasCodeResourceID, kind: BooleanAttribute},
	"exported":                  {resID: ExportedResourceID, kind: BooleanAttribute},
}

var knownPrefixes = map[string]string{
	AndroidNamespaceURI:      "android",
	DistributionNamespaceURI: "dist",
	ToolsNamespaceURI:        "tools",
}

// Parse reads a textual manifest.
func Parse(r io.Reader) (*Manifest, error) {
	d := xml.NewDecoder(r)

	var stack []*Element
	var root *Element
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("malformed manifest: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e := &Element{Namespace: t.Name.Space, Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				e.Attributes = append(e.Attributes, typedAttribute(a))
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("malformed manifest: multiple root elements")
				}
				root = e
			} else {
				stack[len(stack)-1].AddChild(e)
			}
			stack = append(stack, e)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, errors.New("malformed manifest: no root element")
	}
	if root.Name != ManifestElementName {
		return nil, fmt.Errorf("malformed manifest: unexpected root element %q", root.Name)
	}
	return &Manifest{root: root}, nil
}

func typedAttribute(a xml.Attr) Attribute {
	attr := Attribute{Namespace: a.Name.Space, Name: a.Name.Local, Value: a.Value}
	if a.Name.Space != AndroidNamespaceURI {
		return attr
	}
	if i, ok := androidAttributes[a.Name.Local]; ok {
		attr.ResourceID = i.resID
		attr.Kind = i.kind
		switch i.kind {
		case BooleanAttribute:
			if _, err := strconv.ParseBool(a.Value); err != nil {
				attr.Kind = StringAttribute
			}
		case IntegerAttribute:
			if _, err := strconv.ParseInt(a.Value, 0, 64); err != nil {
				attr.Kind = StringAttribute
			}
		}
	}
	return attr
}

// Encode writes the manifest as indented textual XML. Namespace prefixes are declared on the root
// element in a stable order.
func (m *Manifest) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	prefixes := namespacePrefixes(m.root)

	if _, err := bw.WriteString(xml.Header); err != nil {
		return err
	}
	if err := encodeElement(bw, m.root, prefixes, 0, true); err != nil {
		return err
	}
	return bw.Flush()
}

// Bytes returns the encoded manifest.
func (m *Manifest) Bytes() []byte {
	var b bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = m.Encode(&b)
	return b.Bytes()
}

func namespacePrefixes(root *Element) map[string]string {
	used := map[string]bool{}
	root.Walk(func(e *Element) {
		if e.Namespace != "" {
			used[e.Namespace] = true
		}
		for _, a := range e.Attributes {
			if a.Namespace != "" {
				used[a.Namespace] = true
			}
		}
	})

	var unknown []string
	prefixes := map[string]string{}
	for ns := range used {
		if p, ok := knownPrefixes[ns]; ok {
			prefixes[ns] = p
		} else {
			unknown = append(unknown, ns)
		}
	}
	sort.Strings(unknown)
	for i, ns := range unknown {
		prefixes[ns] = fmt.Sprintf("ns%d", i)
	}
	return prefixes
}

func qualified(prefixes map[string]string, ns, name string) string {
	if ns == "" {
		return name
	}
	return prefixes[ns] + ":" + name
}

func encodeElement(w *bufio.Writer, e *Element, prefixes map[string]string, depth int, root bool) error {
	indent := strings.Repeat("    ", depth)
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString("<")
	b.WriteString(qualified(prefixes, e.Namespace, e.Name))

	if root {
		nss := make([]string, 0, len(prefixes))
		for ns := range prefixes {
			nss = append(nss, ns)
		}
		sort.Slice(nss, func(i, j int) bool { return prefixes[nss[i]] < prefixes[nss[j]] })
		for _, ns := range nss {
			fmt.Fprintf(&b, " xmlns:%s=\"%s\"", prefixes[ns], escape(ns))
		}
	}
	for _, a := range e.Attributes {
		fmt.Fprintf(&b, " %s=\"%s\"", qualified(prefixes, a.Namespace, a.Name), escape(a.Value))
	}

	if len(e.Children) == 0 {
		b.WriteString(" />\n")
		_, err := w.WriteString(b.String())
		return err
	}
	b.WriteString(">\n")
	if _, err := w.WriteString(b.String()); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := encodeElement(w, c, prefixes, depth+1, false); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s</%s>\n", indent, qualified(prefixes, e.Namespace, e.Name))
	return err
}

func escape(s string) string {
	var b strings.Builder
	// Writes to a strings.Builder do not fail.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
