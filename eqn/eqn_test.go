package eqn

import (
	"strings"
	"testing"
)

func TestTranscribe_GreekAndScripts(t *testing.T) {
	res := Transcriber{}.Transcribe(`\alpha^{2} + \beta_{i}`, 0, false)

	if !strings.Contains(res.Text, "α²") {
		t.Errorf("Text = %q, want α²", res.Text)
	}
	if !strings.Contains(res.Text, "βᵢ") {
		t.Errorf("Text = %q, want βᵢ", res.Text)
	}
	if res.HighFidelity {
		t.Error("zero value transcriber must not report high fidelity")
	}
}

func TestTranscribe_Table(t *testing.T) {
	tests := []struct {
		name  string
		latex string
		want  string
	}{
		{"fraction", `\frac{a}{b}`, "(a)/(b)"},
		{"sum with operators", `\sum x \leq y`, "∑ x ≤ y"},
		{"bare superscript", `x^2`, "x²"},
		{"unsupported superscript keeps caret", `x^{z}`, "x^z"},
		{"bare subscript", `a_j`, "aⱼ"},
		{"unsupported subscript keeps underscore", `a_{k}`, "a_k"},
		{"unknown command loses escape", `\foobar x`, "foobar x"},
		{"braces stripped", `{x + y}`, "x + y"},
		{"sqrt and infinity", `\sqrt{x} \to \infty`, "√x to ∞"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Transcriber{}.Transcribe(tt.latex, 0, false)
			if res.Text != tt.want {
				t.Errorf("Transcribe(%q) = %q, want %q", tt.latex, res.Text, tt.want)
			}
		})
	}
}

func TestTranscribe_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"{{{",
		"}}}",
		`\frac{a}{`,
		`\frac{}{}`,
		"^",
		"_",
		`\`,
		strings.Repeat(`\alpha^{2}`, 1000),
		"\x00\xff",
	}

	for _, in := range inputs {
		res := Transcriber{HighFidelity: true}.Transcribe(in, 0, false)
		_ = res.Text // must terminate and yield something
	}
}

func TestTranscribe_Number(t *testing.T) {
	res := Transcriber{}.Transcribe(`E = mc^2`, 3, true)
	if res.Number != "(3)" {
		t.Errorf("Number = %q, want (3)", res.Number)
	}
	if !strings.HasSuffix(res.Line(), "  (3)") {
		t.Errorf("Line() = %q, want trailing equation number", res.Line())
	}

	// number survives even when transcription degrades
	res = Transcriber{}.Transcribe("", 7, true)
	if !strings.HasSuffix(res.Line(), "(7)") {
		t.Errorf("Line() = %q, want trailing equation number", res.Line())
	}

	res = Transcriber{}.Transcribe(`x^2`, 0, false)
	if res.Number != "" {
		t.Errorf("Number = %q, want empty without explicit numbering", res.Number)
	}
	if res.Line() != res.Text {
		t.Errorf("Line() = %q, want bare body %q", res.Line(), res.Text)
	}
}

func TestTranscribe_HighFidelityPath(t *testing.T) {
	res := Transcriber{HighFidelity: true}.Transcribe(`\frac{a}{b}`, 0, false)
	if res.HighFidelity && !strings.Contains(res.MathML, "<math") {
		t.Error("high fidelity flagged but no MathML produced")
	}
	// the Unicode path is computed regardless of the MathML outcome
	if res.Text != "(a)/(b)" {
		t.Errorf("Text = %q, want (a)/(b)", res.Text)
	}
}
