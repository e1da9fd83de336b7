// Package render turns calculation responses into displayable views.
//
// Mathematical notation goes through a Notation implementation wrapped by
// Safe, so that a renderer failure degrades to the raw text instead of
// surfacing as an error.
package render

import (
	"calcnerd/internal/logging"
)

// Notation renders a markup string (LaTeX-style) into display text.
type Notation interface {
	Render(markup string) (string, error)
}

// NotationFunc adapts a plain function to Notation.
type NotationFunc func(markup string) (string, error)

// Render calls f.
func (f NotationFunc) Render(markup string) (string, error) { return f(markup) }

// Plain returns its input unchanged.
var Plain Notation = NotationFunc(func(markup string) (string, error) { return markup, nil })

// Safe wraps a Notation so that it never fails. The zero value behaves
// like Plain.
type Safe struct {
	Inner Notation
}

// NewSafe wraps n.
func NewSafe(n Notation) Safe {
	return Safe{Inner: n}
}

// Render returns the rendered markup, or markup itself if the inner
// renderer returns an error or panics.
func (s Safe) Render(markup string) string {
	out, _ := s.TryRender(markup)
	return out
}

// TryRender is Render but also reports whether the inner renderer succeeded.
func (s Safe) TryRender(markup string) (out string, ok bool) {
	if s.Inner == nil {
		return markup, true
	}
	defer func() {
		if r := recover(); r != nil {
			logging.RenderDebug("notation renderer panicked on %q: %v", markup, r)
			out, ok = markup, false
		}
	}()
	rendered, err := s.Inner.Render(markup)
	if err != nil {
		logging.RenderDebug("notation fallback for %q: %v", markup, err)
		return markup, false
	}
	return rendered, true
}
