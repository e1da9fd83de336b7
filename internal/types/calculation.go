package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// REQUEST
// =============================================================================

// Defaults applied when a form field is left empty.
const (
	DefaultVariable = "x"
	DefaultOrder    = 1
	DefaultPoint    = "0"
	DefaultTerms    = 6
	DefaultLower    = "0"
	DefaultUpper    = "1"
)

// CalculationRequest is the body of POST /api/calculate.
// Fields that do not apply to Operation are left at their zero value and omitted.
type CalculationRequest struct {
	Operation  OperationKind `json:"operation" yaml:"operation"`
	Expression string        `json:"expression" yaml:"expression"`
	Variable   string        `json:"variable" yaml:"variable"`

	// derivative
	Order int `json:"order,omitempty" yaml:"order,omitempty"`

	// integral
	Definite bool   `json:"definite,omitempty" yaml:"definite,omitempty"`
	Lower    string `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper    string `json:"upper,omitempty" yaml:"upper,omitempty"`

	// limit, series
	Point string `json:"point,omitempty" yaml:"point,omitempty"`

	// series
	Terms int `json:"terms,omitempty" yaml:"terms,omitempty"`
}

// Summary returns a one-line description used in logs and history listings.
func (r *CalculationRequest) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s d%s", r.Operation, r.Expression, r.Variable)
	switch r.Operation {
	case OperationDerivative:
		if r.Order > 1 {
			fmt.Fprintf(&b, " order=%d", r.Order)
		}
	case OperationIntegral:
		if r.Definite {
			fmt.Fprintf(&b, " [%s, %s]", r.Lower, r.Upper)
		}
	case OperationLimit:
		fmt.Fprintf(&b, " -> %s", r.Point)
	case OperationSeries:
		fmt.Fprintf(&b, " @%s terms=%d", r.Point, r.Terms)
	}
	return b.String()
}

// =============================================================================
// RESPONSE
// =============================================================================

// CalculationResponse is the body returned by the calculation service.
// When Success is false only Error is meaningful.
type CalculationResponse struct {
	Success    bool          `json:"success"`
	Result     Result        `json:"result,omitempty"`
	ResultText Result        `json:"result_text,omitempty"`
	Steps      []Step        `json:"steps,omitempty"`
	Graph      *GraphPayload `json:"graph,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Step is one unit of the step-by-step explanation.
type Step struct {
	Title       string `json:"title"`
	Expression  string `json:"expression"`
	Explanation string `json:"explanation"`
}

// Result holds either a single notation string or a list of solutions.
// The service sends a JSON string for scalar results and an array for
// equation-like results.
type Result struct {
	Values []string
	multi  bool
}

// Scalar builds a single-valued result.
func Scalar(v string) Result {
	return Result{Values: []string{v}}
}

// Solutions builds a multi-valued result.
func Solutions(vs ...string) Result {
	return Result{Values: vs, multi: true}
}

// IsMulti reports whether the service sent a sequence.
func (r Result) IsMulti() bool { return r.multi }

// IsZero reports whether no result was sent.
func (r Result) IsZero() bool { return !r.multi && len(r.Values) == 0 }

// String returns the scalar value, or the values joined with ", ".
func (r Result) String() string {
	return strings.Join(r.Values, ", ")
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (r *Result) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Result{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode scalar result: %w", err)
		}
		*r = Scalar(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode result list: %w", err)
		}
		vals := make([]string, 0, len(raw))
		for _, item := range raw {
			vals = append(vals, scalarText(item))
		}
		*r = Solutions(vals...)
		return nil
	}
	// Numbers and booleans are shown verbatim.
	*r = Scalar(string(data))
	return nil
}

// MarshalJSON writes the same shape that was decoded.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.multi {
		if r.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(r.Values)
	}
	if len(r.Values) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(r.Values[0])
}

func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// =============================================================================
// GRAPH
// =============================================================================

// Series key names as sent by the service.
const (
	SeriesOriginal   = "original"
	SeriesDerivative = "derivative"
	SeriesFunction   = "function"
)

// SeriesKeys is the fixed draw order.
var SeriesKeys = []string{SeriesOriginal, SeriesDerivative, SeriesFunction}

// GraphPayload carries up to three optional named series.
type GraphPayload struct {
	Original   *Series `json:"original,omitempty"`
	Derivative *Series `json:"derivative,omitempty"`
	Function   *Series `json:"function,omitempty"`
}

// Series is one sampled curve.
type Series struct {
	Label string    `json:"label"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
}

// Get returns the series stored under key, or nil.
func (g *GraphPayload) Get(key string) *Series {
	if g == nil {
		return nil
	}
	switch key {
	case SeriesOriginal:
		return g.Original
	case SeriesDerivative:
		return g.Derivative
	case SeriesFunction:
		return g.Function
	}
	return nil
}

// Empty reports whether no series is present.
func (g *GraphPayload) Empty() bool {
	return g == nil || (g.Original == nil && g.Derivative == nil && g.Function == nil)
}

// Validate checks that x and y have the same length.
func (s *Series) Validate() error {
	if len(s.X) != len(s.Y) {
		return fmt.Errorf("series %q: x has %d samples, y has %d", s.Label, len(s.X), len(s.Y))
	}
	return nil
}
