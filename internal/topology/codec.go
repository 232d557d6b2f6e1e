package topology

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

var ErrMalformedDocument = errors.New("malformed pipeline document")

func EncodeYAML(p Pipeline) ([]byte, error) {
	b, err := yaml.Marshal(p.normalized())
	if err != nil {
		return nil, fmt.Errorf("encode pipeline yaml: %w", err)
	}
	return b, nil
}

// DecodeYAML parses a pipeline document. Stages without an is_parallel key
// decode as parallel.
func DecodeYAML(data []byte) (Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pipeline{}, fmt.Errorf("decode pipeline yaml: %w: %w", ErrMalformedDocument, err)
	}
	return p.normalized(), nil
}

func EncodeJSON(p Pipeline) ([]byte, error) {
	b, err := json.MarshalIndent(p.normalized(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode pipeline json: %w", err)
	}
	return b, nil
}

func DecodeJSON(data []byte) (Pipeline, error) {
	var p Pipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return Pipeline{}, fmt.Errorf("decode pipeline json: %w: %w", ErrMalformedDocument, err)
	}
	return p.normalized(), nil
}
