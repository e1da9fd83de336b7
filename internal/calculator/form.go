package calculator

import (
	"fmt"
	"strconv"
	"strings"

	"calcnerd/internal/calc"
	"calcnerd/internal/types"
)

// Inputs are the raw text values of one operation's input section.
type Inputs struct {
	Expression string
	Variable   string
	Order      string // derivative
	Definite   bool   // integral
	Lower      string // integral, definite only
	Upper      string // integral, definite only
	Point      string // limit, series
	Terms      string // series
}

// DefaultInputs returns the prefilled values of a fresh section.
func DefaultInputs() Inputs {
	return Inputs{
		Variable: types.DefaultVariable,
		Order:    strconv.Itoa(types.DefaultOrder),
		Lower:    types.DefaultLower,
		Upper:    types.DefaultUpper,
		Point:    types.DefaultPoint,
		Terms:    strconv.Itoa(types.DefaultTerms),
	}
}

// Form holds the inputs of every operation section plus the sample
// expressions that can be filled in.
type Form struct {
	inputs   map[types.OperationKind]*Inputs
	examples map[types.OperationKind][]string
	cursor   map[types.OperationKind]int
}

// NewForm creates a form with default inputs. examples may be nil.
func NewForm(examples map[types.OperationKind][]string) *Form {
	f := &Form{
		inputs:   make(map[types.OperationKind]*Inputs, len(types.Operations)),
		examples: examples,
		cursor:   make(map[types.OperationKind]int),
	}
	for _, op := range types.Operations {
		in := DefaultInputs()
		f.inputs[op] = &in
	}
	return f
}

// Inputs returns the mutable inputs of kind, or nil for an unknown kind.
func (f *Form) Inputs(kind types.OperationKind) *Inputs {
	return f.inputs[kind]
}

// SetExpression replaces the expression of kind.
func (f *Form) SetExpression(kind types.OperationKind, expr string) {
	if in := f.inputs[kind]; in != nil {
		in.Expression = expr
	}
}

// Examples returns the sample expressions for kind.
func (f *Form) Examples(kind types.OperationKind) []string {
	return f.examples[kind]
}

// FillExample puts the i-th sample (modulo the count) into the
// expression input of kind and returns it. It returns "" when kind has no
// samples.
func (f *Form) FillExample(kind types.OperationKind, i int) string {
	ex := f.examples[kind]
	if len(ex) == 0 {
		return ""
	}
	i = ((i % len(ex)) + len(ex)) % len(ex)
	f.SetExpression(kind, ex[i])
	f.cursor[kind] = i + 1
	return ex[i]
}

// NextExample fills the sample after the last one filled for kind.
func (f *Form) NextExample(kind types.OperationKind) string {
	return f.FillExample(kind, f.cursor[kind])
}

// SetDefinite switches the integral section between definite and
// indefinite.
func (f *Form) SetDefinite(definite bool) {
	f.inputs[types.OperationIntegral].Definite = definite
}

// DefiniteInputsVisible reports whether the bound inputs are shown.
func (f *Form) DefiniteInputsVisible() bool {
	return f.inputs[types.OperationIntegral].Definite
}

// BuildRequest reads the inputs of kind into a request. A blank
// expression is a *calc.ValidationError; every other field falls back to
// its default when empty or unparseable. No mathematical validation is done.
func (f *Form) BuildRequest(kind types.OperationKind) (*types.CalculationRequest, error) {
	in := f.inputs[kind]
	if in == nil {
		return nil, fmt.Errorf("no input section for operation %q", kind)
	}

	expr := strings.TrimSpace(in.Expression)
	if expr == "" {
		return nil, calc.ErrEmptyExpression
	}

	req := &types.CalculationRequest{
		Operation:  kind,
		Expression: expr,
		Variable:   textOr(in.Variable, types.DefaultVariable),
	}

	switch kind {
	case types.OperationDerivative:
		req.Order = positiveOr(in.Order, types.DefaultOrder)
	case types.OperationIntegral:
		req.Definite = in.Definite
		if in.Definite {
			req.Lower = textOr(in.Lower, types.DefaultLower)
			req.Upper = textOr(in.Upper, types.DefaultUpper)
		}
	case types.OperationLimit:
		req.Point = textOr(in.Point, types.DefaultPoint)
	case types.OperationSeries:
		req.Point = textOr(in.Point, types.DefaultPoint)
		req.Terms = positiveOr(in.Terms, types.DefaultTerms)
	}
	return req, nil
}

func textOr(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

func positiveOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
