package schema

import (
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Ordered is a string-keyed mapping that remembers insertion order.
// Order survives JSON and YAML encoding in both directions.
type Ordered[V any] struct {
	m *orderedmap.OrderedMap[string, V]
}

// NewOrdered returns an empty Ordered mapping.
func NewOrdered[V any]() *Ordered[V] {
	return &Ordered[V]{m: orderedmap.New[string, V]()}
}

func (o *Ordered[V]) init() {
	if o.m == nil {
		o.m = orderedmap.New[string, V]()
	}
}

// Set inserts or replaces a value. Replacing keeps the original position.
func (o *Ordered[V]) Set(key string, value V) {
	o.init()
	o.m.Set(key, value)
}

// Get returns the value stored under key.
func (o *Ordered[V]) Get(key string) (V, bool) {
	if o == nil || o.m == nil {
		var zero V
		return zero, false
	}
	return o.m.Get(key)
}

// Len returns the number of entries.
func (o *Ordered[V]) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return o.m.Len()
}

// All iterates the entries in insertion order.
func (o *Ordered[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if o == nil || o.m == nil {
			return
		}
		for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (o *Ordered[V]) Keys() []string {
	keys := make([]string, 0, o.Len())
	for k := range o.All() {
		keys = append(keys, k)
	}
	return keys
}

// Values returns the values in insertion order.
func (o *Ordered[V]) Values() []V {
	values := make([]V, 0, o.Len())
	for _, v := range o.All() {
		values = append(values, v)
	}
	return values
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (o *Ordered[V]) MarshalJSON() ([]byte, error) {
	if o == nil || o.m == nil {
		return []byte("{}"), nil
	}
	return o.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the document.
func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	o.m = orderedmap.New[string, V]()
	if err := o.m.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

// MarshalYAML encodes the mapping as a YAML mapping node in insertion order.
func (o *Ordered[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for k, v := range o.All() {
		var valueNode yaml.Node
		if err := valueNode.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", k, err)
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, &valueNode)
	}
	return node, nil
}

// ScenarioSet maps scenario names to temperature paths sharing one year axis.
type ScenarioSet = Ordered[[]TemperaturePoint]

// SensitivityMap maps sensitivity factors to their weight, in display order.
type SensitivityMap = Ordered[float64]
