package uncache

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/osfs"
)

const manifestPath = "manifest/AndroidManifest.xml"

// NewUncache returns a filecache reading straight from the bundle directory at root.
func NewUncache(log *zap.Logger, root string) (*Uncache, error) {
	var err error
	if root, err = filepath.Abs(root); err != nil {
		log.Error("Unable to determine the absolute path to the root of the filecache.", zap.String("root", root), zap.Error(err))
		return nil, err
	}

	fi, err := os.Stat(root)
	if err != nil {
		log.Error("Unable to access the bundle directory.", zap.String("root", root), zap.Error(err))
		return nil, err
	} else if !fi.IsDir() {
		log.Error("The bundle path is not a directory.", zap.String("root", root))
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Uncache{
		log:  log,
		root: root,
		fs:   osfs.New(root),
	}, nil
}

type Uncache struct {
	log  *zap.Logger
	root string
	fs   billy.Filesystem

	once    sync.Once
	initErr error
	modules []string
	files   map[string]map[string]bool
}

func (c *Uncache) Root() string {
	return c.root
}

func (c *Uncache) Modules() ([]string, error) {
	if err := c.populate(); err != nil {
		return nil, err
	}
	return append([]string(nil), c.modules...), nil
}

func (c *Uncache) Files(module string) (map[string]bool, error) {
	if err := c.populate(); err != nil {
		return nil, err
	}
	fs, ok := c.files[module]
	if !ok {
		c.log.Error("Module is not part of the bundle.", zap.String("module", module), zap.String("root", c.root))
		return nil, fmt.Errorf("module %q is not part of the bundle at %s", module, c.root)
	}
	out := make(map[string]bool, len(fs))
	for f := range fs {
		out[f] = true
	}
	return out, nil
}

func (c *Uncache) ReadFile(module string, p string) ([]byte, error) {
	if err := c.populate(); err != nil {
		return nil, err
	}

	p = path.Clean(p)
	if !c.files[module][p] {
		c.log.Error("File does not exist or is not part of the module.", zap.String("file", p), zap.String("module", module))
		return nil, fmt.Errorf("could not access %s in module %s", p, module)
	}

	f, err := c.fs.Open(path.Join(module, p))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioutil.ReadAll(f)
}

func (c *Uncache) populate() error {
	c.once.Do(func() {
		c.initErr = c.populateModules()
		if c.initErr != nil {
			c.log.Error("Failed to initialise module data for uncache.", zap.String("root", c.root), zap.Error(c.initErr))
		}
	})
	return c.initErr
}

func (c *Uncache) populateModules() error {
	infos, err := c.fs.ReadDir(".")
	if err != nil {
		return err
	}

	files := map[string]map[string]bool{}
	var modules []string
	for _, info := range infos {
		if !info.IsDir() || info.Name() == ".git" {
			continue
		}
		if _, err := c.fs.Stat(path.Join(info.Name(), manifestPath)); os.IsNotExist(err) {
			c.log.Debug("Skipping directory without a module manifest.", zap.String("directory", info.Name()))
			continue
		} else if err != nil {
			return err
		}

		fs := map[string]bool{}
		if err := walk(c.fs, info.Name(), "", fs); err != nil {
			return err
		}
		modules = append(modules, info.Name())
		files[info.Name()] = fs
	}
	sort.Strings(modules)

	c.modules = modules
	c.files = files
	return nil
}

func walk(fs billy.Filesystem, root, rel string, files map[string]bool) error {
	infos, err := fs.ReadDir(path.Join(root, rel))
	if err != nil {
		return err
	}
	for _, info := range infos {
		p := path.Join(rel, info.Name())
		if info.IsDir() {
			if err := walk(fs, root, p, files); err != nil {
				return err
			}
			continue
		}
		files[p] = true
	}
	return nil
}
