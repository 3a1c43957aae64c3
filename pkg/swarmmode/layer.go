package swarmmode

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sungazer-io/swarm-cli/pkg/errors"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
	"github.com/sungazer-io/swarm-cli/pkg/util/files"
)

// Layer holds the stacks found under one directory.
type Layer struct {
	Name     string
	RootPath string
	Stacks   []*Stack
}

// LoadLayer finds every *.stack.yml below root. Stacks are ordered by path so discovery is reproducible.
func LoadLayer(root string) (*Layer, error) {
	exists, err := files.Exists(root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.MissingConfigFile(root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), stackFileSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	layer := &Layer{Name: filepath.Base(root), RootPath: root}
	for _, path := range paths {
		stack, err := LoadStack(path)
		if err != nil {
			return nil, err
		}
		console.Verbosef("\tLoaded stack %s", stack)
		layer.Stacks = append(layer.Stacks, stack)
	}
	return layer, nil
}

// Get returns the layer's definition of (name, variant), or nil.
func (l *Layer) Get(name string, variant string) *Stack {
	for _, stack := range l.Stacks {
		if stack.Name == name && stack.Variant == variant {
			return stack
		}
	}
	return nil
}
