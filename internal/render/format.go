package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"calcnerd/internal/types"

	"github.com/charmbracelet/glamour"
)

// Format selects how a result is written on the command line.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPlain, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: plain, markdown, json)", s)
}

// viewer is implemented by chart handles that can print themselves.
type viewer interface {
	View() string
}

// ChartView returns the printable chart for v, or "".
func ChartView(v View) string {
	if !v.GraphVisible || v.Graph == nil {
		return ""
	}
	if cv, ok := v.Graph.(viewer); ok {
		return cv.View()
	}
	return ""
}

// PlainText renders v as styled terminal text.
func PlainText(v View, s Styles) string {
	var b strings.Builder
	if v.Display != "" {
		b.WriteString(s.Title.Render("Result"))
		b.WriteByte('\n')
		b.WriteString(s.Display.Render(v.Display))
		b.WriteByte('\n')
	}
	if len(v.Steps) > 0 {
		b.WriteByte('\n')
		b.WriteString(s.Title.Render("Steps"))
		b.WriteByte('\n')
		for i, step := range v.Steps {
			fmt.Fprintf(&b, "%s\n", s.StepTitle.Render(fmt.Sprintf("%d. %s", i+1, step.Title)))
			if step.Expression != "" {
				b.WriteString(s.StepExpr.Render(step.Expression))
				b.WriteByte('\n')
			}
			if step.Explanation != "" {
				b.WriteString(s.Explanation.Render(step.Explanation))
				b.WriteByte('\n')
			}
		}
	}
	if chart := ChartView(v); chart != "" {
		b.WriteByte('\n')
		b.WriteString(chart)
		b.WriteByte('\n')
	}
	return b.String()
}

// MarkdownDocument renders v as a markdown document.
func MarkdownDocument(req *types.CalculationRequest, v View) string {
	var b strings.Builder
	if req != nil {
		fmt.Fprintf(&b, "# %s\n\n", req.Operation.Title())
		fmt.Fprintf(&b, "`%s`\n\n", req.Summary())
	}
	if v.Display != "" {
		fmt.Fprintf(&b, "**Result:** `%s`\n\n", v.Display)
	}
	if len(v.Steps) > 0 {
		b.WriteString("## Steps\n\n")
		for i, step := range v.Steps {
			fmt.Fprintf(&b, "%d. **%s**", i+1, step.Title)
			if step.Expression != "" {
				fmt.Fprintf(&b, " `%s`", step.Expression)
			}
			if step.Explanation != "" {
				fmt.Fprintf(&b, "  \n   %s", step.Explanation)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Output writes results in one of the command line formats.
type Output struct {
	Format Format
	Styles Styles
	Width  int
	// GlamourStyle names a glamour style ("dark", "light", "notty").
	// Empty means auto-detect.
	GlamourStyle string
}

// Write prints the result of req to w.
func (o Output) Write(w io.Writer, req *types.CalculationRequest, resp *types.CalculationResponse, v View) error {
	switch o.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		return nil
	case FormatMarkdown:
		out, err := o.markdown(MarkdownDocument(req, v))
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
		if chart := ChartView(v); chart != "" {
			_, err = fmt.Fprintln(w, chart)
		}
		return err
	default:
		_, err := io.WriteString(w, PlainText(v, o.Styles))
		return err
	}
}

func (o Output) markdown(doc string) (string, error) {
	width := o.Width
	if width <= 0 {
		width = 80
	}
	style := glamour.WithAutoStyle()
	if o.GlamourStyle != "" {
		style = glamour.WithStylePath(o.GlamourStyle)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
