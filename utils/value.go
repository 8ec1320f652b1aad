package utils

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// AssertType attempts to assert that the given interface argument is
// the given type parameter.
func AssertType[T any](from interface{}) (T, error) {
	var zero T
	asserted, ok := from.(T)
	if !ok {
		return zero, NewUnexpectedTypeError(zero, from)
	}
	return asserted, nil
}

// AttributeMap is a loosely typed set of model attributes as read from a JSON config.
type AttributeMap map[string]interface{}

// NewAttributeDecoder returns a mapstructure decoder reading json tags into result. Durations
// may be given as strings like "500ms" and unknown keys are an error.
func NewAttributeDecoder(result interface{}) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      result,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
}

// TransformAttributeMap uses an attribute map to transform attributes to the prescribed format.
// T is usually a pointer to a config struct, which is allocated here.
func TransformAttributeMap[T any](attributes AttributeMap) (T, error) {
	var out T
	var forResult interface{}

	toT := reflect.TypeOf(out)
	if toT != nil && toT.Kind() == reflect.Ptr {
		// needs to be allocated then
		allocated, err := AssertType[T](reflect.New(toT.Elem()).Interface())
		if err != nil {
			return out, errors.Wrap(err, "failed to allocate config")
		}
		out = allocated
		forResult = out
	} else {
		forResult = &out
	}

	decoder, err := NewAttributeDecoder(forResult)
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return out, err
	}
	return out, nil
}
