package ui

import (
	"context"
	"strings"
	"testing"

	"calcnerd/internal/calc"
	"calcnerd/internal/calculator"
	"calcnerd/internal/graph"
	"calcnerd/internal/render"
	"calcnerd/internal/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	resp  *types.CalculationResponse
	err   error
	calls int
}

func (s *stubService) Calculate(context.Context, *types.CalculationRequest) (*types.CalculationResponse, error) {
	s.calls++
	return s.resp, s.err
}

func newTestModel(t *testing.T, svc calc.Service) Model {
	t.Helper()
	r := render.NewRenderer(render.Unicode{}, graph.NewAdapter(graph.NewTerminal(20, 6)))
	form := calculator.NewForm(map[types.OperationKind][]string{
		types.OperationDerivative: {"x^2", "sin(x)"},
	})
	return New(Options{
		Controller: calculator.New(svc, r, form),
		Styles:     render.NewStyles(render.DarkTheme()),
		ServiceURL: "http://localhost:5000/api/calculate",
	})
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_TabSwitchesOperation(t *testing.T) {
	m := newTestModel(t, &stubService{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, types.OperationIntegral, m.ctrl.Active())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab}, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, types.OperationSeries, m.ctrl.Active())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}, Alt: true})
	assert.Equal(t, types.OperationLimit, m.ctrl.Active())
	assert.Equal(t, "limit-section", m.ctrl.Visibility().ActivePanel)
}

func TestModel_DigitsAreTypeable(t *testing.T) {
	m := newTestModel(t, &stubService{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	// The order input starts with "1"; typing appends.
	m, _ = press(t, m, typeText("2"))
	assert.Equal(t, types.OperationDerivative, m.ctrl.Active())

	j := m.focused()
	require.GreaterOrEqual(t, j, 0)
	assert.Equal(t, fieldOrder, m.fields[types.OperationDerivative][j].name)
	assert.Equal(t, "12", m.fields[types.OperationDerivative][j].input.Value())
}

func TestModel_EmptyExpressionShowsBannerAndDismisses(t *testing.T) {
	svc := &stubService{}
	m := newTestModel(t, svc)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Zero(t, svc.calls)
	vis := m.ctrl.Visibility()
	assert.True(t, vis.ErrorVisible)
	assert.Equal(t, calc.MsgEmptyExpression, vis.ErrorText)
	assert.Contains(t, m.View(), calc.MsgEmptyExpression)

	next, _ := m.Update(dismissErrorMsg{gen: m.ctrl.ErrorGeneration()})
	m = next.(Model)
	assert.False(t, m.ctrl.Visibility().ErrorVisible)
}

func TestModel_CalculateShowsResults(t *testing.T) {
	svc := &stubService{resp: &types.CalculationResponse{
		Success: true,
		Result:  types.Scalar("2 x"),
		Steps:   []types.Step{{Title: "Power rule", Expression: "2 x^{1}", Explanation: "d/dx x^n = n x^(n-1)"}},
		Graph: &types.GraphPayload{
			Original: &types.Series{Label: "x^2", X: []float64{-1, 0, 1}, Y: []float64{1, 0, 1}},
		},
	}}
	m := newTestModel(t, svc)

	m, _ = press(t, m, typeText("x^2"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.ctrl.Visibility().LoadingVisible)
	require.NotNil(t, m.pending.Request)
	assert.Equal(t, "x^2", m.pending.Request.Expression)

	msg := m.execute(m.pending)()
	next, _ := m.Update(msg)
	m = next.(Model)

	vis := m.ctrl.Visibility()
	assert.False(t, vis.LoadingVisible)
	assert.True(t, vis.ResultsVisible)
	assert.True(t, vis.GraphVisible)
	view := m.View()
	assert.Contains(t, view, "2 x")
	assert.Contains(t, view, "Power rule")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.ctrl.Visibility().ResultsVisible)
}

func TestModel_StaleResultIgnored(t *testing.T) {
	svc := &stubService{resp: &types.CalculationResponse{Success: true, Result: types.Scalar("1")}}
	m := newTestModel(t, svc)
	m, _ = press(t, m, typeText("x"), tea.KeyMsg{Type: tea.KeyEnter})
	first := m.pending

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	next, cmd := m.Update(m.execute(first)())
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.False(t, m.ctrl.Visibility().ResultsVisible)
}

func TestModel_ServiceErrorSchedulesDismiss(t *testing.T) {
	svc := &stubService{err: &calc.ServiceError{StatusCode: 400, Message: "invalid expression"}}
	m := newTestModel(t, svc)
	m, _ = press(t, m, typeText("x^^"), tea.KeyMsg{Type: tea.KeyEnter})

	next, cmd := m.Update(m.execute(m.pending)())
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, "invalid expression", m.ctrl.Visibility().ErrorText)
	assert.False(t, m.ctrl.Visibility().ResultsVisible)

	// A timer from an older banner does not hide this one.
	next, _ = m.Update(dismissErrorMsg{gen: m.ctrl.ErrorGeneration() - 1})
	m = next.(Model)
	assert.True(t, m.ctrl.Visibility().ErrorVisible)
}

func TestModel_ExampleFill(t *testing.T) {
	m := newTestModel(t, &stubService{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, "x^2", m.fields[types.OperationDerivative][0].input.Value())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, "sin(x)", m.fields[types.OperationDerivative][0].input.Value())
}

func TestModel_DefiniteToggle(t *testing.T) {
	m := newTestModel(t, &stubService{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.False(t, m.ctrl.Form().DefiniteInputsVisible(), "toggle only applies to integrals")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Len(t, m.visibleFields(), 2)
	assert.Contains(t, m.View(), "indefinite integral")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.True(t, m.ctrl.Form().DefiniteInputsVisible())
	assert.Len(t, m.visibleFields(), 4)
	assert.True(t, strings.Contains(m.View(), "lower"))
}

func TestModel_ConfigReload(t *testing.T) {
	m := newTestModel(t, &stubService{})
	next, _ := m.Update(ConfigReloadedMsg{ServiceURL: "http://calc.internal/api/calculate"})
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "http://calc.internal/api/calculate")
	assert.Contains(t, view, "config reloaded")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, &stubService{})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
