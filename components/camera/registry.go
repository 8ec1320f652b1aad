package camera

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/utils"
)

// Registration describes how to build a camera model from its native config type. ConfigT is
// usually a pointer to a struct with json tags; if it has a Validate() error method it is called
// before the constructor.
type Registration[ConfigT any] struct {
	Constructor func(ctx context.Context, conf ConfigT, logger logging.Logger) (VideoSource, error)
}

type validator interface {
	Validate() error
}

type registeredModel struct {
	construct func(ctx context.Context, attrs utils.AttributeMap, logger logging.Logger) (VideoSource, error)
	schema    *jsonschema.Schema
}

var (
	registryMu sync.RWMutex
	registry   = map[string]registeredModel{}
)

// RegisterModel registers a camera model. It panics if the model is registered twice.
func RegisterModel[ConfigT any](model string, reg Registration[ConfigT]) {
	if reg.Constructor == nil {
		panic(fmt.Sprintf("cannot register camera model %q without a constructor", model))
	}
	var zero ConfigT

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[model]; ok {
		panic(fmt.Sprintf("trying to register two camera models with the same name %q", model))
	}
	registry[model] = registeredModel{
		construct: func(ctx context.Context, attrs utils.AttributeMap, logger logging.Logger) (VideoSource, error) {
			conf, err := utils.TransformAttributeMap[ConfigT](attrs)
			if err != nil {
				return nil, errors.Wrap(err, "invalid attributes")
			}
			if v, ok := any(conf).(validator); ok {
				if err := v.Validate(); err != nil {
					return nil, err
				}
			}
			return reg.Constructor(ctx, conf, logger)
		},
		schema: jsonschema.Reflect(zero),
	}
}

// DeregisterModel removes a model. It is only meant for tests.
func DeregisterModel(model string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, model)
}

// IsRegistered returns whether a model with the given name exists.
func IsRegistered(model string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[model]
	return ok
}

// RegisteredModels returns the sorted names of every registered model.
func RegisteredModels() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModelSchema returns the JSON schema of a model's attributes.
func ModelSchema(model string) (*jsonschema.Schema, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[model]
	if !ok {
		return nil, errors.Errorf("unknown camera model %q", model)
	}
	return reg.schema, nil
}
