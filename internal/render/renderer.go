package render

import (
	"strings"

	"calcnerd/internal/graph"
	"calcnerd/internal/logging"
	"calcnerd/internal/types"
)

// SolutionsPrefix precedes a multi-valued result.
const SolutionsPrefix = "Solutions: "

// StepView is one rendered explanation step.
type StepView struct {
	Title       string // plain text
	Expression  string // rendered notation
	Explanation string // plain text
}

// View is the content of the results region after a successful calculation.
type View struct {
	Visible      bool
	Display      string
	Multi        bool
	Steps        []StepView
	GraphVisible bool
	Graph        graph.Handle
}

// Renderer fills the results region from a successful response.
type Renderer struct {
	notation Safe
	graphs   *graph.Adapter
}

// NewRenderer creates a renderer. A nil adapter disables graphs.
func NewRenderer(n Notation, graphs *graph.Adapter) *Renderer {
	return &Renderer{notation: NewSafe(n), graphs: graphs}
}

// Render builds a fresh view from resp. Any previous chart is destroyed
// before a new one is drawn; when resp has no graph the region is hidden.
func (r *Renderer) Render(resp *types.CalculationResponse) View {
	v := View{Visible: true}
	if resp == nil {
		r.clearGraph()
		return v
	}

	v.Display, v.Multi = r.display(resp.Result)
	if v.Display == "" && !resp.ResultText.IsZero() {
		v.Display, v.Multi = r.display(resp.ResultText)
	}

	for _, s := range resp.Steps {
		v.Steps = append(v.Steps, StepView{
			Title:       s.Title,
			Expression:  r.notation.Render(s.Expression),
			Explanation: s.Explanation,
		})
	}

	if r.graphs != nil && !resp.Graph.Empty() {
		h, err := r.graphs.Draw(resp.Graph)
		if err != nil {
			logging.Get(logging.CategoryRender).Warn("graph hidden: %v", err)
		} else {
			v.Graph = h
			v.GraphVisible = true
		}
	} else {
		r.clearGraph()
	}

	logging.RenderDebug("rendered result (multi=%v, steps=%d, graph=%v)", v.Multi, len(v.Steps), v.GraphVisible)
	return v
}

// Clear destroys any live chart.
func (r *Renderer) Clear() {
	r.clearGraph()
}

func (r *Renderer) clearGraph() {
	if r.graphs != nil {
		r.graphs.Clear()
	}
}

func (r *Renderer) display(res types.Result) (string, bool) {
	if res.IsMulti() {
		parts := make([]string, len(res.Values))
		for i, v := range res.Values {
			parts[i] = r.notation.Render(v)
		}
		return SolutionsPrefix + strings.Join(parts, ", "), true
	}
	if res.IsZero() {
		return "", false
	}
	return r.notation.Render(res.Values[0]), false
}
