// Package batch runs a file of calculation requests against the service
// with bounded concurrency and a request rate limit.
package batch

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"calcnerd/internal/types"

	"gopkg.in/yaml.v3"
)

// File is the on-disk batch format. A bare YAML list of requests is
// accepted as well.
type File struct {
	Requests []*types.CalculationRequest `yaml:"requests"`
}

// LoadFile reads and normalises a batch file.
func LoadFile(path string) ([]*types.CalculationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a batch document. Operations are validated; missing
// optional fields get the same defaults as the interactive form.
func Parse(r io.Reader) ([]*types.CalculationRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse batch: %w", err)
	}

	if len(node.Content) == 0 {
		return nil, nil
	}

	var reqs []*types.CalculationRequest
	if node.Content[0].Kind == yaml.SequenceNode {
		err = node.Decode(&reqs)
	} else {
		var f File
		err = node.Decode(&f)
		reqs = f.Requests
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}

	for i, req := range reqs {
		if req == nil {
			return nil, fmt.Errorf("request %d is empty", i+1)
		}
		kind, err := types.ParseOperation(string(req.Operation))
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i+1, err)
		}
		req.Operation = kind
		applyDefaults(req)
	}
	return reqs, nil
}

func applyDefaults(req *types.CalculationRequest) {
	if req.Variable == "" {
		req.Variable = types.DefaultVariable
	}
	switch req.Operation {
	case types.OperationDerivative:
		if req.Order < 1 {
			req.Order = types.DefaultOrder
		}
	case types.OperationIntegral:
		if req.Definite {
			if req.Lower == "" {
				req.Lower = types.DefaultLower
			}
			if req.Upper == "" {
				req.Upper = types.DefaultUpper
			}
		}
	case types.OperationLimit:
		if req.Point == "" {
			req.Point = types.DefaultPoint
		}
	case types.OperationSeries:
		if req.Point == "" {
			req.Point = types.DefaultPoint
		}
		if req.Terms < 1 {
			req.Terms = types.DefaultTerms
		}
	}
}
