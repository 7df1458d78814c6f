package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FitParam describes one sampled HOD parameter as the 6-tuple
// [mapping_index, mean, min, max, sigma, tracer]. mapping_index fixes the
// parameter's position in the sampling vector and must be unique across
// the document.
type FitParam struct {
	Index  int
	Mean   float64
	Min    float64
	Max    float64
	Sigma  float64
	Tracer string
}

// FitEntry pairs a parameter name with its tuple.
type FitEntry struct {
	Name  string
	Param FitParam
}

// FitParams is the fit_params mapping with document order preserved. Order
// carries no meaning beyond readability, but round-tripping a document
// should not shuffle it.
type FitParams []FitEntry

// UnmarshalYAML decodes a parameter tuple from its sequence form.
func (p *FitParam) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: fit parameter must be a sequence [index, mean, min, max, sigma, tracer]", value.Line)
	}
	if len(value.Content) != 6 {
		return fmt.Errorf("line %d: fit parameter has %d elements, want 6", value.Line, len(value.Content))
	}
	fields := []interface{}{&p.Index, &p.Mean, &p.Min, &p.Max, &p.Sigma, &p.Tracer}
	for i, node := range value.Content {
		if err := node.Decode(fields[i]); err != nil {
			return fmt.Errorf("line %d: fit parameter element %d: %w", node.Line, i, err)
		}
	}
	return nil
}

// MarshalYAML renders the tuple in flow style, matching the hand-written
// form: [0, 13.3, 13.0, 13.8, 0.05, LRG].
func (p FitParam) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range []interface{}{p.Index, p.Mean, p.Min, p.Max, p.Sigma, p.Tracer} {
		var elem yaml.Node
		if err := elem.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &elem)
	}
	return node, nil
}

// UnmarshalYAML decodes the fit_params mapping, keeping key order.
func (ps *FitParams) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fit_params must be a mapping", value.Line)
	}
	out := make(FitParams, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		var entry FitEntry
		if err := keyNode.Decode(&entry.Name); err != nil {
			return fmt.Errorf("line %d: fit_params key: %w", keyNode.Line, err)
		}
		if err := valNode.Decode(&entry.Param); err != nil {
			return fmt.Errorf("fit_params[%s]: %w", entry.Name, err)
		}
		out = append(out, entry)
	}
	*ps = out
	return nil
}

// MarshalYAML renders the mapping in its original order.
func (ps FitParams) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, entry := range ps {
		var key yaml.Node
		if err := key.Encode(entry.Name); err != nil {
			return nil, err
		}
		val, err := entry.Param.MarshalYAML()
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &key, val.(*yaml.Node))
	}
	return node, nil
}

// Lookup returns the tuple for name, if present.
func (ps FitParams) Lookup(name string) (FitParam, bool) {
	for _, entry := range ps {
		if entry.Name == name {
			return entry.Param, true
		}
	}
	return FitParam{}, false
}
