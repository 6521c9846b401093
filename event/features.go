package event

import (
	"fmt"
	"maps"
	"slices"
)

// FromFeatures builds an event from a feature dict with mixed value types,
// converted as described for Features.
func FromFeatures(outcome string, features map[string]any) (*Event, error) {
	context, values := Features(features)
	return NewWithValues(outcome, context, values)
}

// Features converts a feature dict into feature names and values. Keys are
// visited in sorted order so the result is deterministic.
//
// Conversion rules:
//   - string value: "key=value" → 1.0
//   - []string value: "key:item" → 1.0 for each item
//   - bool value: "key" → 1.0 if true, omitted if false
//   - int/float value: "key" → float64(value)
//   - anything else: "key" → 1.0
func Features(features map[string]any) ([]string, []float64) {
	context := make([]string, 0, len(features))
	values := make([]float64, 0, len(features))
	add := func(name string, v float64) {
		context = append(context, name)
		values = append(values, v)
	}
	for _, key := range slices.Sorted(maps.Keys(features)) {
		switch v := features[key].(type) {
		case string:
			add(fmt.Sprintf("%s=%s", key, v), 1.0)
		case []string:
			for _, item := range v {
				add(fmt.Sprintf("%s:%s", key, item), 1.0)
			}
		case bool:
			if v {
				add(key, 1.0)
			}
		case int:
			add(key, float64(v))
		case float64:
			add(key, v)
		default:
			add(key, 1.0)
		}
	}
	return context, values
}
