package ui

import (
	"calcnerd/internal/calculator"
	"calcnerd/internal/types"

	"github.com/charmbracelet/bubbles/textinput"
)

// field is one labelled text input bound to a form value.
type field struct {
	name  string
	label string
	input textinput.Model
}

const (
	fieldExpression = "expression"
	fieldVariable   = "variable"
	fieldOrder      = "order"
	fieldLower      = "lower"
	fieldUpper      = "upper"
	fieldPoint      = "point"
	fieldTerms      = "terms"
)

func newField(name, label, placeholder, value string) field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	ti.Prompt = ""
	ti.SetValue(value)
	ti.CursorEnd()
	return field{name: name, label: label, input: ti}
}

// sectionFields builds the inputs of one operation section from its
// current form values.
func sectionFields(kind types.OperationKind, in calculator.Inputs) []field {
	fields := []field{
		newField(fieldExpression, "f(x)", "e.g. x^2 * sin(x)", in.Expression),
		newField(fieldVariable, "variable", "x", in.Variable),
	}
	switch kind {
	case types.OperationDerivative:
		fields = append(fields, newField(fieldOrder, "order", "1", in.Order))
	case types.OperationIntegral:
		fields = append(fields,
			newField(fieldLower, "lower", "0", in.Lower),
			newField(fieldUpper, "upper", "1", in.Upper),
		)
	case types.OperationLimit:
		fields = append(fields, newField(fieldPoint, "x →", "0", in.Point))
	case types.OperationSeries:
		fields = append(fields,
			newField(fieldPoint, "around", "0", in.Point),
			newField(fieldTerms, "terms", "6", in.Terms),
		)
	}
	return fields
}

// store copies field values into in.
func store(fields []field, in *calculator.Inputs) {
	for _, f := range fields {
		v := f.input.Value()
		switch f.name {
		case fieldExpression:
			in.Expression = v
		case fieldVariable:
			in.Variable = v
		case fieldOrder:
			in.Order = v
		case fieldLower:
			in.Lower = v
		case fieldUpper:
			in.Upper = v
		case fieldPoint:
			in.Point = v
		case fieldTerms:
			in.Terms = v
		}
	}
}

// boundField reports whether name is one of the definite integral bounds.
func boundField(name string) bool {
	return name == fieldLower || name == fieldUpper
}
