package model

import (
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Classifier maps a preprocessed tensor to a probability vector over the
// model's label sequence.
type Classifier interface {
	Predict(input *Tensor, verbose int) ([]float32, error)
	Close() error
}

// Loader turns a weights file into a Classifier for the named model.
type Loader func(name Name, path string) (Classifier, error)

var weightFiles = map[Name]string{
	Parts:    "ResNet50_BodyParts.onnx",
	Elbow:    "ResNet50_Elbow_frac.onnx",
	Hand:     "ResNet50_Hand_frac.onnx",
	Shoulder: "ResNet50_Shoulder_frac.onnx",
}

// DefaultPaths returns the weight file location of every model under dir.
func DefaultPaths(dir string) map[Name]string {
	paths := make(map[Name]string, len(weightFiles))
	for name, file := range weightFiles {
		paths[name] = filepath.Join(dir, file)
	}
	return paths
}

// Registry holds one loaded Classifier per model. It is read-only once
// NewRegistry returns.
type Registry struct {
	paths       map[Name]string
	classifiers map[Name]Classifier
}

// NewRegistry loads all four models. If any of them fails the ones already
// loaded are closed and a RegistryLoadFailed error is returned.
func NewRegistry(paths map[Name]string, load Loader) (*Registry, error) {
	for _, name := range Names {
		if _, ok := paths[name]; !ok {
			return nil, newError(RegistryLoadFailed, name, nil, "no weights file configured for model %q", name)
		}
	}

	var (
		mu          sync.Mutex
		classifiers = make(map[Name]Classifier, len(Names))
		g           errgroup.Group
	)
	for _, name := range Names {
		name := name
		path := paths[name]
		g.Go(func() error {
			c, err := load(name, path)
			if err != nil {
				return newError(RegistryLoadFailed, name, err, "failed to load model %q from %s", name, path)
			}
			mu.Lock()
			classifiers[name] = c
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, c := range classifiers {
			c.Close()
		}
		return nil, err
	}

	kept := make(map[Name]string, len(Names))
	for _, name := range Names {
		kept[name] = paths[name]
	}
	return &Registry{paths: kept, classifiers: classifiers}, nil
}

// Get returns the classifier for name.
func (r *Registry) Get(name Name) (Classifier, bool) {
	c, ok := r.classifiers[name]
	return c, ok
}

// Path returns the weights file name was loaded from.
func (r *Registry) Path(name Name) string {
	return r.paths[name]
}

// Names returns the loaded model identifiers in their fixed order.
func (r *Registry) Names() []Name {
	names := make([]Name, 0, len(r.classifiers))
	for _, name := range Names {
		if _, ok := r.classifiers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Close releases every classifier and returns the first error seen.
func (r *Registry) Close() error {
	var first error
	for _, name := range Names {
		c, ok := r.classifiers[name]
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("failed to close model %q: %w", name, err)
		}
	}
	return first
}
