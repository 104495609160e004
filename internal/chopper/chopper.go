// Package chopper writes generated splits to an output filesystem.
package chopper

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/osfs"
	"gopkg.in/yaml.v3"

	"github.com/babystarcloud/bundletool/internal/splits"
)

// IndexFile is the name of the file listing all written splits at the root of the output.
const IndexFile = "splits.yaml"

const masterDirectory = "master"

type Index struct {
	Splits []IndexEntry `yaml:"splits"`
}

type IndexEntry struct {
	ID               string `yaml:"id"`
	Module           string `yaml:"module"`
	Master           bool   `yaml:"master,omitempty"`
	Directory        string `yaml:"directory"`
	ApkTargeting     string `yaml:"apk_targeting"`
	VariantTargeting string `yaml:"variant_targeting,omitempty"`
	Entries          int    `yaml:"entries"`
	Fingerprint      string `yaml:"fingerprint"`
}

// InitOutput prepares dir to receive split content. Any existing content is removed. If dir is empty
// a temporary directory is used instead.
func InitOutput(log *zap.Logger, dir string) (billy.Filesystem, error) {
	if dir == "" {
		td, err := ioutil.TempDir("", "bundletool-splits")
		if err != nil {
			log.Error("Failed to instantiate a temporary directory to store split data.", zap.Error(err))
			return nil, err
		}
		dir = td
	} else {
		if err := os.RemoveAll(dir); err != nil {
			log.Error("Failed to clean out existing content of output directory.", zap.String("directory", dir), zap.Error(err))
			return nil, err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Error("Failed to (re)create the output directory.", zap.String("directory", dir), zap.Error(err))
			return nil, err
		}
	}
	log.Debug("Created split output directory.", zap.String("directory", dir))
	return osfs.New(dir), nil
}

// Directory is the location of a split's content relative to the output root.
func Directory(s *splits.Split) string {
	name := s.Suffix()
	if s.IsMasterSplit() || name == "" {
		name = masterDirectory
	}
	return path.Join(s.ModuleName(), name)
}

// CleaveSplits writes the manifest and entries of every split into its own directory of fs and
// records them in an index at the root of fs. Splits whose directories collide are rejected.
func CleaveSplits(log *zap.Logger, fs billy.Filesystem, ss []*splits.Split) (*Index, error) {
	idx := &Index{}
	seen := map[string]string{}
	for _, s := range ss {
		dir := Directory(s)
		if other, ok := seen[dir]; ok {
			log.Error("Two splits map to the same output directory.", zap.String("directory", dir), zap.String("split", s.SplitID()), zap.String("other", other))
			return nil, fmt.Errorf("splits %q and %q both map to output directory %q", other, s.SplitID(), dir)
		}
		seen[dir] = s.SplitID()

		c := cleaver{log: log.With(zap.String("module", s.ModuleName()), zap.String("directory", dir)), fs: fs, s: s, dir: dir}
		e, err := c.cleaveSplit()
		if err != nil {
			return nil, err
		}
		idx.Splits = append(idx.Splits, e)
	}
	sort.SliceStable(idx.Splits, func(i, j int) bool {
		if idx.Splits[i].Module != idx.Splits[j].Module {
			return idx.Splits[i].Module < idx.Splits[j].Module
		}
		return idx.Splits[i].Directory < idx.Splits[j].Directory
	})

	if err := writeIndex(log, fs, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

type cleaver struct {
	log *zap.Logger
	fs  billy.Filesystem
	s   *splits.Split
	dir string
}

func (c cleaver) cleaveSplit() (IndexEntry, error) {
	c.log.Debug("Cleaving split.", zap.Stringer("split", c.s))
	if m := c.s.Manifest(); m != nil {
		if err := c.writeFile(path.Join(c.dir, splits.ManifestPath), splits.Bytes(m.Bytes())); err != nil {
			return IndexEntry{}, err
		}
	}
	for _, e := range c.s.Entries() {
		if err := c.writeFile(path.Join(c.dir, e.Path), e.Content); err != nil {
			return IndexEntry{}, err
		}
	}

	fp, err := c.s.Fingerprint()
	if err != nil {
		c.log.Error("Failed to compute the fingerprint of a split.", zap.Error(err))
		return IndexEntry{}, err
	}

	e := IndexEntry{
		ID:           c.s.SplitID(),
		Module:       c.s.ModuleName(),
		Master:       c.s.IsMasterSplit(),
		Directory:    c.dir,
		ApkTargeting: c.s.ApkTargeting().String(),
		Entries:      len(c.s.Entries()),
		Fingerprint:  fp,
	}
	if vt := c.s.VariantTargeting(); !vt.IsDefault() {
		e.VariantTargeting = vt.String()
	}
	return e, nil
}

func (c cleaver) writeFile(target string, content splits.Content) error {
	c.log.Debug("Writing file.", zap.String("target", target))

	if err := c.fs.MkdirAll(path.Dir(target), 0755); err != nil {
		c.log.Error("Failed to create a new directory.", zap.String("path", target), zap.Error(err))
		return err
	}

	src, err := content.Open()
	if err != nil {
		c.log.Error("Failed to open split entry content.", zap.String("file", target), zap.Error(err))
		return err
	}
	defer src.Close()

	fd, err := c.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		c.log.Error("Failed to open file.", zap.String("file", target), zap.Error(err))
		return err
	}
	if _, err = io.Copy(fd, src); err != nil {
		c.log.Error("Failed to write file content.", zap.String("file", target), zap.Error(err))
		_ = fd.Close()
		return err
	}
	if err = fd.Close(); err != nil {
		c.log.Error("Failed to close file.", zap.String("file", target), zap.Error(err))
		return err
	}
	return nil
}

func writeIndex(log *zap.Logger, fs billy.Filesystem, idx *Index) error {
	b, err := yaml.Marshal(idx)
	if err != nil {
		log.Error("Failed to marshal the split index.", zap.Error(err))
		return err
	}

	fd, err := fs.OpenFile(IndexFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		log.Error("Failed to open the split index.", zap.String("file", IndexFile), zap.Error(err))
		return err
	}
	if _, err = fd.Write(b); err != nil {
		log.Error("Failed to write the split index.", zap.String("file", IndexFile), zap.Error(err))
		_ = fd.Close()
		return err
	}
	return fd.Close()
}

// ReadIndex loads the index written by CleaveSplits from the root of fs.
func ReadIndex(log *zap.Logger, fs billy.Filesystem) (*Index, error) {
	fd, err := fs.Open(IndexFile)
	if err != nil {
		log.Error("Failed to open the split index.", zap.String("file", IndexFile), zap.Error(err))
		return nil, err
	}
	defer fd.Close()

	b, err := ioutil.ReadAll(fd)
	if err != nil {
		log.Error("Failed to read the split index.", zap.String("file", IndexFile), zap.Error(err))
		return nil, err
	}

	idx := &Index{}
	if err = yaml.Unmarshal(b, idx); err != nil {
		log.Error("Failed to parse the split index.", zap.String("file", IndexFile), zap.Error(err))
		return nil, err
	}
	return idx, nil
}
