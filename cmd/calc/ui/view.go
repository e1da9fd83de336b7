package ui

import (
	"fmt"
	"strings"

	"calcnerd/internal/types"

	"github.com/charmbracelet/lipgloss"
)

const helpText = "tab/alt+1-4 operation • ↑/↓ field • enter calculate • ctrl+e example • ctrl+d definite • esc close • ctrl+c quit"

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	vis := m.ctrl.Visibility()

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("calcnerd"))
	if m.serviceURL != "" {
		b.WriteString(m.styles.Muted.Render(" " + m.serviceURL))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.styles.Panel.Render(m.renderSection()))
	b.WriteString("\n")

	if vis.LoadingVisible {
		fmt.Fprintf(&b, "%s Calculating %s\n", m.spinner.View(), m.styles.Muted.Render(m.pendingSummary()))
	}
	if vis.ErrorVisible {
		b.WriteString(m.styles.Error.Render(vis.ErrorText))
		b.WriteString("\n")
	}
	if vis.ResultsVisible {
		b.WriteString(m.styles.Panel.Render(m.viewport.View()))
		b.WriteString("\n")
	}

	footer := helpText
	if m.status != "" {
		footer = m.status + " • " + footer
	}
	b.WriteString(m.styles.Footer.Render(footer))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(types.Operations))
	for _, p := range m.ctrl.Panels() {
		style := m.styles.Tab
		if p.Active {
			style = m.styles.ActiveTab
		}
		tabs = append(tabs, style.Render(p.Kind.Title()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderSection() string {
	var b strings.Builder
	kind := m.ctrl.Active()
	visible := m.visibleFields()
	for i, f := range visible {
		marker := "  "
		if i == m.focus {
			marker = m.styles.Spinner.Render("› ")
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, m.styles.Label.Render(f.label), f.input.View())
	}
	if kind == types.OperationIntegral {
		mode := "indefinite"
		if m.ctrl.Form().DefiniteInputsVisible() {
			mode = "definite"
		}
		b.WriteString(m.styles.Muted.Render("  " + mode + " integral (ctrl+d to switch)"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) pendingSummary() string {
	if m.pending.Request == nil {
		return ""
	}
	return m.pending.Request.Summary()
}
