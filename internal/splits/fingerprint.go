package splits

import (
	"bytes"
	"io"
	"io/ioutil"
	"sort"

	"golang.org/x/mod/sumdb/dirhash"
)

// ManifestPath is the location of a split's manifest inside its output directory.
const ManifestPath = "manifest/AndroidManifest.xml"

// Fingerprint returns a go.sum style 'h1:' hash over the content of the split's entries and its
// encoded manifest. Two splits with the same fingerprint write identical output.
func (s *Split) Fingerprint() (string, error) {
	content := make(map[string]Content, len(s.entries)+1)
	files := make([]string, 0, len(s.entries)+1)
	for _, e := range s.entries {
		content[e.Path] = e.Content
		files = append(files, e.Path)
	}
	if s.manifest != nil {
		if _, ok := content[ManifestPath]; !ok {
			content[ManifestPath] = Bytes(s.manifest.Bytes())
			files = append(files, ManifestPath)
		}
	}
	sort.Strings(files)

	return dirhash.Hash1(files, func(name string) (io.ReadCloser, error) {
		c := content[name]
		if c == nil {
			return ioutil.NopCloser(bytes.NewReader(nil)), nil
		}
		return c.Open()
	})
}
