// Package ui is the interactive terminal front end of calc. It owns no
// calculation state of its own: every user action becomes one call on a
// calculator.Controller, and the view is drawn from the controller's
// Visibility.
package ui

import (
	"context"
	"time"

	"calcnerd/internal/calculator"
	"calcnerd/internal/logging"
	"calcnerd/internal/render"
	"calcnerd/internal/types"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultErrorTimeout is how long the error banner stays up.
const DefaultErrorTimeout = 5 * time.Second

// calcResultMsg carries the outcome of one service call back into Update.
type calcResultMsg struct {
	ticket calculator.Ticket
	resp   *types.CalculationResponse
	err    error
}

// dismissErrorMsg fires when a banner's timer expires.
type dismissErrorMsg struct {
	gen uint64
}

// ConfigReloadedMsg is sent by the host after the config file changed.
type ConfigReloadedMsg struct {
	ServiceURL string
}

// Options configures a Model.
type Options struct {
	Controller   *calculator.Controller
	Styles       render.Styles
	ErrorTimeout time.Duration
	ServiceURL   string
	Context      context.Context
}

// Model is the bubbletea model for the calculator screen.
type Model struct {
	ctrl         *calculator.Controller
	styles       render.Styles
	errorTimeout time.Duration
	ctx          context.Context

	fields  map[types.OperationKind][]field
	focus   int
	pending calculator.Ticket

	spinner  spinner.Model
	viewport viewport.Model

	width      int
	height     int
	serviceURL string
	status     string
	quitting   bool
}

// New creates the model.
func New(opts Options) Model {
	if opts.ErrorTimeout <= 0 {
		opts.ErrorTimeout = DefaultErrorTimeout
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = opts.Styles.Spinner

	m := Model{
		ctrl:         opts.Controller,
		styles:       opts.Styles,
		errorTimeout: opts.ErrorTimeout,
		ctx:          opts.Context,
		fields:       make(map[types.OperationKind][]field, len(types.Operations)),
		spinner:      s,
		viewport:     viewport.New(80, 16),
		width:        80,
		height:       24,
		serviceURL:   opts.ServiceURL,
	}
	for _, op := range types.Operations {
		m.fields[op] = sectionFields(op, *m.ctrl.Form().Inputs(op))
	}
	m.setFocus(0)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height-14, 5)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case calcResultMsg:
		if !m.ctrl.Complete(msg.ticket, msg.resp, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			return m, m.scheduleDismiss()
		}
		m.viewport.SetContent(render.PlainText(m.ctrl.View(), m.styles))
		m.viewport.GotoTop()
		return m, nil

	case dismissErrorMsg:
		m.ctrl.DismissError(msg.gen)
		return m, nil

	case ConfigReloadedMsg:
		m.serviceURL = msg.ServiceURL
		m.status = "config reloaded"
		logging.UIDebug("config reloaded, service at %s", msg.ServiceURL)
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Visibility().LoadingVisible {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// calculate starts an attempt for the active section.
func (m Model) calculate() (Model, tea.Cmd) {
	kind := m.ctrl.Active()
	store(m.fields[kind], m.ctrl.Form().Inputs(kind))

	t, err := m.ctrl.Begin(kind)
	m.pending = t
	m.status = ""
	if err != nil {
		return m, m.scheduleDismiss()
	}
	return m, tea.Batch(m.spinner.Tick, m.execute(t))
}

// execute runs the service call off the UI goroutine.
func (m Model) execute(t calculator.Ticket) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		resp, err := ctrl.Execute(ctx, t)
		return calcResultMsg{ticket: t, resp: resp, err: err}
	}
}

func (m Model) scheduleDismiss() tea.Cmd {
	gen := m.ctrl.ErrorGeneration()
	return tea.Tick(m.errorTimeout, func(time.Time) tea.Msg {
		return dismissErrorMsg{gen: gen}
	})
}

// visibleFields returns the inputs shown for the active section.
func (m Model) visibleFields() []field {
	kind := m.ctrl.Active()
	all := m.fields[kind]
	if kind != types.OperationIntegral || m.ctrl.Form().DefiniteInputsVisible() {
		return all
	}
	out := make([]field, 0, len(all))
	for _, f := range all {
		if !boundField(f.name) {
			out = append(out, f)
		}
	}
	return out
}

// setFocus focuses the i-th visible input of the active section.
func (m *Model) setFocus(i int) {
	visible := m.visibleFields()
	if len(visible) == 0 {
		return
	}
	i = ((i % len(visible)) + len(visible)) % len(visible)
	m.focus = i
	target := visible[i].name

	kind := m.ctrl.Active()
	for j := range m.fields[kind] {
		if m.fields[kind][j].name == target {
			m.fields[kind][j].input.Focus()
		} else {
			m.fields[kind][j].input.Blur()
		}
	}
}

// focused returns the index into m.fields[active] of the focused input.
func (m Model) focused() int {
	visible := m.visibleFields()
	if m.focus >= len(visible) {
		return -1
	}
	name := visible[m.focus].name
	for j, f := range m.fields[m.ctrl.Active()] {
		if f.name == name {
			return j
		}
	}
	return -1
}
