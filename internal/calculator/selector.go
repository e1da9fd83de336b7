// Package calculator holds the client-side orchestration state: which
// operation is selected, what the form contains, and which regions of the
// screen are visible. A host (the TUI, or a one-shot command) drives it
// through explicit method calls.
package calculator

import (
	"calcnerd/internal/types"
)

// Visibility is the derived on-screen state.
type Visibility struct {
	ActivePanel     string // "<kind>-section"
	SelectedControl types.OperationKind
	ResultsVisible  bool
	LoadingVisible  bool
	ErrorVisible    bool
	ErrorText       string
	GraphVisible    bool
}

// Panel describes one operation control and its input section.
type Panel struct {
	Kind    types.OperationKind
	Section string
	Active  bool
}

// Selector tracks the active operation.
type Selector struct {
	active types.OperationKind
}

// NewSelector starts at the default operation.
func NewSelector() Selector {
	return Selector{active: types.DefaultOperation}
}

// Active returns the selected kind.
func (s *Selector) Active() types.OperationKind {
	return s.active
}

// Select makes kind the only selected operation.
func (s *Selector) Select(kind types.OperationKind) error {
	if _, err := types.ParseOperation(string(kind)); err != nil {
		return err
	}
	s.active = kind
	return nil
}

// Next selects the operation after the active one, wrapping around.
func (s *Selector) Next() types.OperationKind {
	i := (s.active.Index() + 1) % len(types.Operations)
	s.active = types.Operations[i]
	return s.active
}

// Prev selects the operation before the active one, wrapping around.
func (s *Selector) Prev() types.OperationKind {
	n := len(types.Operations)
	i := (s.active.Index() - 1 + n) % n
	s.active = types.Operations[i]
	return s.active
}

// Panels lists every operation with exactly one marked active.
func (s *Selector) Panels() []Panel {
	out := make([]Panel, len(types.Operations))
	for i, op := range types.Operations {
		out[i] = Panel{Kind: op, Section: op.Section(), Active: op == s.active}
	}
	return out
}
