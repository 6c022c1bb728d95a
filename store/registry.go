package store

import (
	"context"
	"fmt"
	"sort"
)

// Factory creates a Store from its configuration parameters.
type Factory func(context.Context, map[string]interface{}) (Store, error)

var registry = make(map[string]Factory)

// Register makes a Store type available to Create under the given key.
func Register(key string, f Factory) {
	registry[key] = f
}

// Create creates a Store of the type registered under key.
func Create(ctx context.Context, key string, conf map[string]interface{}) (Store, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}

// Types lists the registered Store types.
func Types() []string {
	result := make([]string, 0, len(registry))
	for key := range registry {
		result = append(result, key)
	}
	sort.Strings(result)
	return result
}

// Nested creates the Store described by the map under conf[key],
// which must itself contain a "type" parameter.
// It is for Store types that wrap another Store.
func Nested(ctx context.Context, conf map[string]interface{}, key string) (Store, error) {
	nested, ok := conf[key].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing %q parameter", key)
	}
	nestedType, ok := nested["type"].(string)
	if !ok {
		return nil, fmt.Errorf("%q parameter missing \"type\"", key)
	}
	return Create(ctx, nestedType, nested)
}
