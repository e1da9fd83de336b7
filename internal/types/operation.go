// Package types provides the data model shared by the calcnerd packages.
// It has no dependencies on the rest of the module so that the transport,
// rendering and orchestration layers can all import it without cycles.
package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// OPERATION KINDS
// =============================================================================

// OperationKind identifies the calculus operation the user has selected.
type OperationKind string

const (
	OperationDerivative OperationKind = "derivative"
	OperationIntegral   OperationKind = "integral"
	OperationLimit      OperationKind = "limit"
	OperationSeries     OperationKind = "series"
)

// Operations lists every kind in display order.
var Operations = []OperationKind{
	OperationDerivative,
	OperationIntegral,
	OperationLimit,
	OperationSeries,
}

// DefaultOperation is the kind active at startup.
const DefaultOperation = OperationDerivative

// ParseOperation maps user input onto a known kind.
func ParseOperation(s string) (OperationKind, error) {
	kind := OperationKind(strings.ToLower(strings.TrimSpace(s)))
	if kind.Valid() {
		return kind, nil
	}
	return "", fmt.Errorf("unknown operation %q (valid: %s)", s, joinOperations())
}

// Valid reports whether k is one of the four known kinds.
func (k OperationKind) Valid() bool {
	for _, op := range Operations {
		if k == op {
			return true
		}
	}
	return false
}

// Index returns the display position of k, or -1.
func (k OperationKind) Index() int {
	for i, op := range Operations {
		if k == op {
			return i
		}
	}
	return -1
}

// Section returns the identifier of the input panel for k.
func (k OperationKind) Section() string {
	return string(k) + "-section"
}

// Title returns the human label shown on the operation control.
func (k OperationKind) Title() string {
	switch k {
	case OperationDerivative:
		return "Derivative"
	case OperationIntegral:
		return "Integral"
	case OperationLimit:
		return "Limit"
	case OperationSeries:
		return "Series"
	}
	return string(k)
}

func (k OperationKind) String() string {
	return string(k)
}

func joinOperations() string {
	names := make([]string, len(Operations))
	for i, op := range Operations {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}
