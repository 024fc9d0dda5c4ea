// Package loader reads architecture (.cfg) and application (.tsk) case
// descriptors, in XML or JSON form, into the in-memory data shapes
// consumed by the problem model. Only syntax is checked here; semantic
// validation belongs to model.New.
package loader

import (
	"path/filepath"
	"strings"

	"github.com/AntoineSebert/scheduling-solver/internal/model"
)

// LoadArchitecture reads an architecture descriptor, dispatching on the
// file extension (.json, otherwise XML).
func LoadArchitecture(path string) (model.Architecture, error) {
	if isJSON(path) {
		return loadArchitectureJSON(path)
	}
	return loadArchitectureXML(path)
}

// LoadApplication reads an application descriptor, dispatching on the
// file extension (.json, otherwise XML).
func LoadApplication(path string) (model.Application, error) {
	if isJSON(path) {
		return loadApplicationJSON(path)
	}
	return loadApplicationXML(path)
}

// Build loads a case pair and constructs the validated problem model.
func Build(taskPath, confPath string) (*model.Problem, error) {
	app, err := LoadApplication(taskPath)
	if err != nil {
		return nil, err
	}
	arch, err := LoadArchitecture(confPath)
	if err != nil {
		return nil, err
	}
	return model.New(arch, app)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
