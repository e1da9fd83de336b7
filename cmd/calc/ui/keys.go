package ui

import (
	"calcnerd/internal/logging"
	"calcnerd/internal/types"

	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg maps keys onto controller calls. Anything not bound is
// passed to the focused input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.ctrl.NextOperation()
		m.setFocus(0)
		return m, nil

	case "shift+tab":
		m.ctrl.PrevOperation()
		m.setFocus(0)
		return m, nil

	case "alt+1", "alt+2", "alt+3", "alt+4":
		kind := types.Operations[msg.Runes[0]-'1']
		if err := m.ctrl.SwitchOperation(kind); err != nil {
			logging.UIDebug("switch failed: %v", err)
		}
		m.setFocus(0)
		return m, nil

	case "up":
		m.setFocus(m.focus - 1)
		return m, nil

	case "down":
		m.setFocus(m.focus + 1)
		return m, nil

	case "enter":
		return m.calculate()

	case "ctrl+e":
		kind := m.ctrl.Active()
		if ex := m.ctrl.Form().NextExample(kind); ex != "" {
			for j := range m.fields[kind] {
				if m.fields[kind][j].name == fieldExpression {
					m.fields[kind][j].input.SetValue(ex)
					m.fields[kind][j].input.CursorEnd()
				}
			}
			m.setFocus(0)
		}
		return m, nil

	case "ctrl+d":
		if m.ctrl.Active() != types.OperationIntegral {
			return m, nil
		}
		form := m.ctrl.Form()
		form.SetDefinite(!form.DefiniteInputsVisible())
		m.setFocus(m.focus)
		return m, nil

	case "esc":
		m.ctrl.CloseResults()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	j := m.focused()
	if j < 0 {
		return m, nil
	}
	kind := m.ctrl.Active()
	var cmd tea.Cmd
	m.fields[kind][j].input, cmd = m.fields[kind][j].input.Update(msg)
	return m, cmd
}
