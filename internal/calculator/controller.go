package calculator

import (
	"context"
	"time"

	"calcnerd/internal/calc"
	"calcnerd/internal/logging"
	"calcnerd/internal/render"
	"calcnerd/internal/types"

	"github.com/google/uuid"
)

// Ticket identifies one calculation attempt. Only the ticket with the
// latest sequence number can change the screen.
type Ticket struct {
	Seq       uint64
	RequestID string
	Kind      types.OperationKind
	Request   *types.CalculationRequest // nil when the form was invalid
	Started   time.Time
}

// Outcome is reported to observers for every attempt that reached the
// service and was not discarded as stale.
type Outcome struct {
	Ticket   Ticket
	Response *types.CalculationResponse
	Err      error
	Duration time.Duration
}

// Controller is the orchestration state machine. It is not safe for
// concurrent use; hosts serialise all calls (bubbletea's Update does).
type Controller struct {
	service  calc.Service
	renderer *render.Renderer
	form     *Form
	selector Selector

	vis  Visibility
	view render.View

	seq       uint64
	bannerGen uint64

	observers []func(Outcome)
	now       func() time.Time
}

// New creates a controller showing the default operation.
func New(service calc.Service, renderer *render.Renderer, form *Form) *Controller {
	if form == nil {
		form = NewForm(nil)
	}
	if renderer == nil {
		renderer = render.NewRenderer(render.Plain, nil)
	}
	c := &Controller{
		service:  service,
		renderer: renderer,
		form:     form,
		selector: NewSelector(),
		now:      time.Now,
	}
	c.applySelection()
	return c
}

// OnComplete registers fn to receive every applied outcome.
func (c *Controller) OnComplete(fn func(Outcome)) {
	c.observers = append(c.observers, fn)
}

// Form returns the input form.
func (c *Controller) Form() *Form { return c.form }

// Active returns the selected operation.
func (c *Controller) Active() types.OperationKind { return c.selector.Active() }

// Panels lists the operation controls.
func (c *Controller) Panels() []Panel { return c.selector.Panels() }

// Visibility returns a copy of the on-screen state.
func (c *Controller) Visibility() Visibility { return c.vis }

// View returns the last rendered results.
func (c *Controller) View() render.View { return c.view }

// Seq returns the latest sequence number.
func (c *Controller) Seq() uint64 { return c.seq }

// SwitchOperation selects kind, shows only its section and hides the
// results panel. Any request still in flight becomes stale.
func (c *Controller) SwitchOperation(kind types.OperationKind) error {
	if err := c.selector.Select(kind); err != nil {
		return err
	}
	c.afterSwitch()
	return nil
}

// NextOperation selects the following operation.
func (c *Controller) NextOperation() types.OperationKind {
	c.selector.Next()
	c.afterSwitch()
	return c.Active()
}

// PrevOperation selects the preceding operation.
func (c *Controller) PrevOperation() types.OperationKind {
	c.selector.Prev()
	c.afterSwitch()
	return c.Active()
}

func (c *Controller) afterSwitch() {
	c.seq++
	c.applySelection()
	c.vis.ResultsVisible = false
	c.vis.LoadingVisible = false
	c.hideGraph()
	logging.SessionDebug("switched to %s (seq=%d)", c.Active(), c.seq)
}

func (c *Controller) applySelection() {
	c.vis.SelectedControl = c.selector.Active()
	c.vis.ActivePanel = c.selector.Active().Section()
}

// CloseResults hides the results panel.
func (c *Controller) CloseResults() {
	c.vis.ResultsVisible = false
}

// Begin starts an attempt for kind: it shows loading, hides the error
// banner and builds the request. On a validation error loading is hidden
// again, the banner shows the message and the returned ticket carries no
// request.
func (c *Controller) Begin(kind types.OperationKind) (Ticket, error) {
	c.seq++
	t := Ticket{
		Seq:       c.seq,
		RequestID: uuid.NewString(),
		Kind:      kind,
		Started:   c.now(),
	}

	c.vis.LoadingVisible = true
	c.hideError()

	req, err := c.form.BuildRequest(kind)
	if err != nil {
		c.vis.LoadingVisible = false
		c.ShowError(calc.UserMessage(err))
		logging.SessionDebug("request %s rejected: %v", t.RequestID, err)
		return t, err
	}
	t.Request = req
	logging.SessionDebug("request %s begun: %s (seq=%d)", t.RequestID, req.Summary(), t.Seq)
	return t, nil
}

// Execute sends the ticket's request. It touches no controller state, so
// hosts may run it off the UI goroutine.
func (c *Controller) Execute(ctx context.Context, t Ticket) (*types.CalculationResponse, error) {
	if t.Request == nil {
		return nil, calc.ErrEmptyExpression
	}
	return c.service.Calculate(calc.ContextWithRequestID(ctx, t.RequestID), t.Request)
}

// Complete applies the result of t. It reports false and changes nothing
// when a newer attempt or an operation switch superseded t.
func (c *Controller) Complete(t Ticket, resp *types.CalculationResponse, err error) bool {
	if t.Seq != c.seq {
		logging.Session("discarding stale response %s (seq=%d, latest=%d)", t.RequestID, t.Seq, c.seq)
		return false
	}

	c.vis.LoadingVisible = false
	out := Outcome{Ticket: t, Response: resp, Err: err, Duration: c.now().Sub(t.Started)}

	if err != nil {
		c.ShowError(calc.UserMessage(err))
	} else {
		c.view = c.renderer.Render(resp)
		c.vis.ResultsVisible = true
		c.vis.GraphVisible = c.view.GraphVisible
	}

	for _, fn := range c.observers {
		fn(out)
	}
	return true
}

// Calculate runs one attempt end to end on the caller's goroutine.
func (c *Controller) Calculate(ctx context.Context, kind types.OperationKind) error {
	t, err := c.Begin(kind)
	if err != nil {
		return err
	}
	resp, err := c.Execute(ctx, t)
	c.Complete(t, resp, err)
	return err
}

// ShowError displays text in the error banner and returns the banner
// generation to pass to DismissError.
func (c *Controller) ShowError(text string) uint64 {
	c.bannerGen++
	c.vis.ErrorVisible = true
	c.vis.ErrorText = text
	return c.bannerGen
}

// ErrorGeneration returns the generation of the current banner.
func (c *Controller) ErrorGeneration() uint64 { return c.bannerGen }

// DismissError hides the banner if it is still the one identified by gen.
func (c *Controller) DismissError(gen uint64) bool {
	if gen != c.bannerGen || !c.vis.ErrorVisible {
		return false
	}
	c.hideError()
	return true
}

func (c *Controller) hideError() {
	c.vis.ErrorVisible = false
	c.vis.ErrorText = ""
}

func (c *Controller) hideGraph() {
	c.vis.GraphVisible = false
	if c.renderer != nil {
		c.renderer.Clear()
	}
}
