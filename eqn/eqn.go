// Package eqn converts LaTeX-flavored equation markup into a displayable
// approximation. Two paths are computed: a MathML conversion (high fidelity,
// may be unavailable) and a Unicode substitution (always total, never fails).
// Transcription never propagates an error past this package - the worst case
// degrades to the raw markup string.
package eqn

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
)

// Result of a transcription. Text is always usable; MathML is only set when
// HighFidelity is true. Number is kept apart from the body so backends can
// style the two differently.
type Result struct {
	Text         string
	Number       string // "(7)" when the request carries an explicit number
	MathML       string
	HighFidelity bool
}

// Line is the full display line with the number appended, identical across
// output formats.
func (r Result) Line() string {
	if r.Number == "" {
		return r.Text
	}
	return r.Text + "  " + r.Number
}

// Common LaTeX commands with single code point equivalents.
var unicodeCommands = []struct{ latex, repl string }{
	{`\alpha`, "α"},
	{`\beta`, "β"},
	{`\gamma`, "γ"},
	{`\delta`, "δ"},
	{`\epsilon`, "ε"},
	{`\theta`, "θ"},
	{`\lambda`, "λ"},
	{`\mu`, "μ"},
	{`\pi`, "π"},
	{`\sigma`, "σ"},
	{`\phi`, "φ"},
	{`\omega`, "ω"},
	{`\Delta`, "Δ"},
	{`\Sigma`, "Σ"},
	{`\Omega`, "Ω"},
	{`\infty`, "∞"},
	{`\pm`, "±"},
	{`\times`, "×"},
	{`\div`, "÷"},
	{`\leq`, "≤"},
	{`\geq`, "≥"},
	{`\neq`, "≠"},
	{`\approx`, "≈"},
	{`\equiv`, "≡"},
	{`\sum`, "∑"},
	{`\int`, "∫"},
	{`\partial`, "∂"},
	{`\nabla`, "∇"},
	{`\sqrt`, "√"},
}

var superscripts = map[byte]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'n': 'ⁿ', 'i': 'ⁱ',
}

var subscripts = map[byte]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'i': 'ᵢ', 'j': 'ⱼ', 'n': 'ₙ',
}

var (
	reFraction    = regexp.MustCompile(`\\frac\{([^}]+)\}\{([^}]+)\}`)
	reSupBraced   = regexp.MustCompile(`\^\{([0-9ni])\}`)
	reSupBare     = regexp.MustCompile(`\^([0-9ni])`)
	reSubBraced   = regexp.MustCompile(`_\{([0-9ijn])\}`)
	reSubBare     = regexp.MustCompile(`_([0-9ijn])`)
	reBareCommand = regexp.MustCompile(`\\([a-zA-Z]+)`)
)

// Transcriber converts equation markup. The zero value only computes the
// Unicode path; enable the MathML path with HighFidelity.
type Transcriber struct {
	HighFidelity bool
}

// Transcribe is total over any input string.
func (t Transcriber) Transcribe(latex string, number int, hasNumber bool) Result {
	res := Result{Text: approximate(latex)}

	if t.HighFidelity {
		if mathml, ok := convertMathML(latex); ok {
			res.MathML = mathml
			res.HighFidelity = true
		}
	}

	if hasNumber {
		res.Number = fmt.Sprintf("(%d)", number)
	}
	return res
}

// approximate is the Unicode substitution path. It never fails: any internal
// panic degrades to returning the raw markup untouched.
func approximate(latex string) (out string) {
	defer func() {
		if recover() != nil {
			out = latex
		}
	}()

	result := latex
	for _, c := range unicodeCommands {
		result = strings.ReplaceAll(result, c.latex, c.repl)
	}

	result = reFraction.ReplaceAllString(result, "($1)/($2)")

	result = reSupBraced.ReplaceAllStringFunc(result, func(m string) string {
		return string(superscripts[m[2]])
	})
	result = reSupBare.ReplaceAllStringFunc(result, func(m string) string {
		return string(superscripts[m[1]])
	})
	result = reSubBraced.ReplaceAllStringFunc(result, func(m string) string {
		return string(subscripts[m[2]])
	})
	result = reSubBare.ReplaceAllStringFunc(result, func(m string) string {
		return string(subscripts[m[1]])
	})

	result = strings.ReplaceAll(result, "{", "")
	result = strings.ReplaceAll(result, "}", "")

	// leftover commands lose their escape marker and stay as plain words
	result = reBareCommand.ReplaceAllString(result, "$1")

	return result
}

// convertMathML runs the markup through the MathML converter. Failure of any
// kind simply reports the path as unavailable.
func convertMathML(latex string) (mathml string, ok bool) {
	defer func() {
		if recover() != nil {
			mathml, ok = "", false
		}
	}()

	md := goldmark.New(
		goldmark.WithExtensions(
			treeblood.MathML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte("$$"+latex+"$$"), &buf); err != nil {
		return "", false
	}
	out := buf.String()
	if !strings.Contains(out, "<math") {
		return "", false
	}
	return out, true
}
