package render

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnbalanced is returned for markup with mismatched braces.
var ErrUnbalanced = errors.New("unbalanced braces")

// UnknownCommandError is returned for a backslash command outside the
// supported subset.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command \\%s", e.Name)
}

// Unicode renders a LaTeX subset as plain Unicode text: fractions, roots,
// super and subscripts, Greek letters, common symbols and function names.
type Unicode struct{}

// Render implements Notation.
func (Unicode) Render(markup string) (string, error) {
	p := &latexParser{src: []rune(markup)}
	out, err := p.sequence(false)
	if err != nil {
		return "", err
	}
	return tidy.Replace(strings.Join(strings.Fields(out), " ")), nil
}

var tidy = strings.NewReplacer("( ", "(", " )", ")", "[ ", "[", " ]", "]")

type latexParser struct {
	src []rune
	pos int
}

func (p *latexParser) eof() bool { return p.pos >= len(p.src) }

func (p *latexParser) skipSpaces() {
	for !p.eof() && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

// sequence consumes input up to EOF, or up to the closing brace when
// inGroup is set.
func (p *latexParser) sequence(inGroup bool) (string, error) {
	var b strings.Builder
	for !p.eof() {
		r := p.src[p.pos]
		switch r {
		case '}':
			if !inGroup {
				return "", fmt.Errorf("%w: unexpected '}' at offset %d", ErrUnbalanced, p.pos)
			}
			p.pos++
			return b.String(), nil
		case '{':
			p.pos++
			s, err := p.sequence(true)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case '^', '_':
			p.pos++
			arg, err := p.argument()
			if err != nil {
				return "", err
			}
			b.WriteString(script(arg, r == '^'))
		case '\\':
			s, err := p.command()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		default:
			p.pos++
			b.WriteRune(r)
		}
	}
	if inGroup {
		return "", fmt.Errorf("%w: missing '}'", ErrUnbalanced)
	}
	return b.String(), nil
}

// argument consumes one macro argument: a braced group, a command or a
// single character.
func (p *latexParser) argument() (string, error) {
	p.skipSpaces()
	if p.eof() {
		return "", errors.New("missing argument")
	}
	switch r := p.src[p.pos]; r {
	case '{':
		p.pos++
		return p.sequence(true)
	case '}':
		return "", fmt.Errorf("%w: unexpected '}' at offset %d", ErrUnbalanced, p.pos)
	case '\\':
		return p.command()
	default:
		p.pos++
		return string(r), nil
	}
}

func (p *latexParser) command() (string, error) {
	p.pos++
	if p.eof() {
		return "", errors.New("trailing backslash")
	}

	if r := p.src[p.pos]; !unicode.IsLetter(r) {
		p.pos++
		switch r {
		case ',', ';', ':', ' ', '\\':
			return " ", nil
		case '!':
			return "", nil
		}
		return string(r), nil
	}

	start := p.pos
	for !p.eof() && unicode.IsLetter(p.src[p.pos]) {
		p.pos++
	}
	name := string(p.src[start:p.pos])

	switch name {
	case "frac", "dfrac", "tfrac":
		num, err := p.argument()
		if err != nil {
			return "", err
		}
		den, err := p.argument()
		if err != nil {
			return "", err
		}
		return group(num) + "/" + group(den), nil
	case "sqrt":
		index, err := p.optional()
		if err != nil {
			return "", err
		}
		arg, err := p.argument()
		if err != nil {
			return "", err
		}
		root := "√"
		if index != "" {
			root = script(index, true) + root
		}
		return root + group(arg), nil
	case "left", "right":
		p.skipSpaces()
		if p.eof() {
			return "", fmt.Errorf("\\%s without delimiter", name)
		}
		if p.src[p.pos] == '.' {
			p.pos++
			return "", nil
		}
		return p.argument()
	case "mathrm", "mathit", "mathbf", "mathsf", "text", "textrm", "operatorname":
		return p.argument()
	}

	if s, ok := symbols[name]; ok {
		return s, nil
	}
	if functionNames[name] {
		return name, nil
	}
	return "", &UnknownCommandError{Name: name}
}

// optional consumes a bracketed optional argument such as the index of
// \sqrt[3]{x}.
func (p *latexParser) optional() (string, error) {
	p.skipSpaces()
	if p.eof() || p.src[p.pos] != '[' {
		return "", nil
	}
	p.pos++
	start := p.pos
	for !p.eof() && p.src[p.pos] != ']' {
		p.pos++
	}
	if p.eof() {
		return "", errors.New("unterminated optional argument")
	}
	inner := &latexParser{src: p.src[start:p.pos]}
	p.pos++
	return inner.sequence(false)
}

// group parenthesises s unless it is a single token.
func group(s string) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= 1 || !strings.ContainsAny(s, " +-*/·×,") {
		return s
	}
	return "(" + s + ")"
}

func script(arg string, sup bool) string {
	arg = strings.Join(strings.Fields(arg), "")
	table, mark := subscripts, "_"
	if sup {
		table, mark = superscripts, "^"
	}
	var b strings.Builder
	for _, r := range arg {
		m, ok := table[r]
		if !ok {
			if len([]rune(arg)) == 1 {
				return mark + arg
			}
			return mark + "(" + arg + ")"
		}
		b.WriteRune(m)
	}
	return b.String()
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾',
	'a': 'ᵃ', 'b': 'ᵇ', 'c': 'ᶜ', 'd': 'ᵈ', 'e': 'ᵉ', 'f': 'ᶠ', 'g': 'ᵍ',
	'h': 'ʰ', 'i': 'ⁱ', 'j': 'ʲ', 'k': 'ᵏ', 'l': 'ˡ', 'm': 'ᵐ', 'n': 'ⁿ',
	'o': 'ᵒ', 'p': 'ᵖ', 'r': 'ʳ', 's': 'ˢ', 't': 'ᵗ', 'u': 'ᵘ', 'v': 'ᵛ',
	'w': 'ʷ', 'x': 'ˣ', 'y': 'ʸ', 'z': 'ᶻ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'+': '₊', '-': '₋', '=': '₌', '(': '₍', ')': '₎',
	'a': 'ₐ', 'e': 'ₑ', 'h': 'ₕ', 'i': 'ᵢ', 'j': 'ⱼ', 'k': 'ₖ', 'l': 'ₗ',
	'm': 'ₘ', 'n': 'ₙ', 'o': 'ₒ', 'p': 'ₚ', 'r': 'ᵣ', 's': 'ₛ', 't': 'ₜ',
	'u': 'ᵤ', 'v': 'ᵥ', 'x': 'ₓ',
}

var symbols = map[string]string{
	// Greek
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ",
	"pi": "π", "rho": "ρ", "sigma": "σ", "tau": "τ", "upsilon": "υ", "phi": "φ",
	"varphi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",

	// Operators and relations
	"infty": "∞", "cdot": "·", "times": "×", "pm": "±", "mp": "∓",
	"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠",
	"approx": "≈", "to": "→", "rightarrow": "→", "partial": "∂", "nabla": "∇",
	"int": "∫", "iint": "∬", "sum": "∑", "prod": "∏", "circ": "∘",
	"in": "∈", "forall": "∀", "exists": "∃", "cup": "∪", "cap": "∩",
	"emptyset": "∅", "prime": "′",

	// Delimiters and spacing
	"ldots": "…", "cdots": "⋯", "dots": "…",
	"lvert": "|", "rvert": "|", "vert": "|", "mid": "|",
	"lbrace": "{", "rbrace": "}", "langle": "⟨", "rangle": "⟩",
	"quad": " ", "qquad": " ",
	"displaystyle": "", "limits": "",
}

var functionNames = map[string]bool{
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true, "csc": true,
	"arcsin": true, "arccos": true, "arctan": true,
	"sinh": true, "cosh": true, "tanh": true, "coth": true,
	"log": true, "ln": true, "exp": true, "lim": true,
	"max": true, "min": true, "det": true, "gcd": true,
}
