package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"idg/config"
	"idg/content"
	"idg/doc"
	"idg/eqn"
)

func testDocumentConfig(t *testing.T) *config.DocumentConfig {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	return &cfg.Document
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 180, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testContent(t *testing.T) *content.Content {
	t.Helper()

	jpg := encodeJPEG(t, 40, 20)
	d := &doc.Document{
		Title:    "On Fixed Layout",
		Authors:  []doc.Author{{Name: "A. Writer", Organization: "Lab"}},
		Abstract: "Short abstract.",
		Keywords: []string{"layout"},
		Sections: []doc.Section{{
			Title: "Method",
			Blocks: []doc.Block{
				{Kind: doc.BlockParagraph, Text: "Body text for the method section, long enough to wrap over more than a single line when rendered at ten points on a letter sized page with one inch margins."},
				{Kind: doc.BlockTable, Caption: "Setup", Headers: []string{"K", "V"}, Rows: [][]string{{"a", "1"}}},
				{Kind: doc.BlockImage, Caption: "Chart", Data: jpg},
				{Kind: doc.BlockEquation, Latex: `\alpha^{2}`, EqNum: 4, HasNum: true},
			},
		}},
		References: []string{"A. Writer, \"Earlier,\" 2020."},
	}
	prepared := &content.PreparedImage{
		Raw: jpg, JPEG: jpg, Format: "jpg",
		PixelW: 40, PixelH: 20, DisplayW: 216, DisplayH: 108,
	}
	tr := eqn.Transcriber{}
	return &content.Content{
		SrcName:      "request.json",
		RenderID:     "test",
		OutputFormat: config.OutputFmtPdf,
		Document:     d,
		Plan: []content.SectionPlan{{
			Index: 1, Title: "Method", Heading: "I. METHOD",
			Steps: []content.Step{
				{Block: &d.Sections[0].Blocks[0]},
				{Block: &d.Sections[0].Blocks[1], Label: "TABLE 1.1: SETUP", Caption: "Setup"},
				{Block: &d.Sections[0].Blocks[2], Label: "FIG. 1.1: CHART", Caption: "Chart", Image: prepared},
				{Block: &d.Sections[0].Blocks[3], Eq: tr.Transcribe(`\alpha^{2}`, 4, true)},
			},
		}},
		WorkDir: t.TempDir(),
	}
}

func TestGenerate(t *testing.T) {
	c := testContent(t)
	out := filepath.Join(t.TempDir(), "out.pdf")

	if err := New(zaptest.NewLogger(t)).Generate(context.Background(), c, out, testDocumentConfig(t)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)

	if !strings.HasPrefix(s, "%PDF-1.4") {
		t.Error("missing file header")
	}
	if !strings.HasSuffix(s, "%%EOF\n") {
		t.Error("missing file trailer")
	}
	for _, want := range []string{"/Times-Roman", "/Times-Bold", "/Symbol", "/DCTDecode", "/Type /Catalog", "startxref"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGenerateDirect(t *testing.T) {
	c := testContent(t)
	out := filepath.Join(t.TempDir(), "direct.pdf")

	if err := New(zaptest.NewLogger(t)).GenerateDirect(context.Background(), c, out, testDocumentConfig(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}

func TestEquationLine(t *testing.T) {
	cfg := testDocumentConfig(t)
	l := newLayout(cfg, false)
	l.equationLine(eqn.Result{Text: "E = mc²", Number: "(4)"})

	got := l.cur.content.String()
	if want := fmt.Sprintf("/%s %.1f Tf", faceItalic.resourceName(), cfg.Typography.EquationSize); !strings.Contains(got, want) {
		t.Errorf("italic body at equation size missing, want %q in %q", want, got)
	}
	if want := fmt.Sprintf("/%s %.1f Tf", faceRegular.resourceName(), cfg.Typography.EquationNumberSize); !strings.Contains(got, want) {
		t.Errorf("number at its own size missing, want %q in %q", want, got)
	}
}

func TestEncodeText(t *testing.T) {
	segs := encodeText("aα²b", faceRegular, 10)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[0].face != faceRegular || string(segs[0].bytes) != "a" {
		t.Errorf("first segment = %v %q", segs[0].face, segs[0].bytes)
	}
	// Greek routes through the Symbol font
	if segs[1].face != faceSymbol || segs[1].bytes[0] != 0x61 {
		t.Errorf("alpha segment = %v %v", segs[1].face, segs[1].bytes)
	}
	// superscript two is WinAnsi 0xB2, back in the text face
	if segs[2].face != faceRegular || segs[2].bytes[0] != 0xB2 || segs[2].bytes[1] != 'b' {
		t.Errorf("tail segment = %v %v", segs[2].face, segs[2].bytes)
	}
}

func TestEncodeTextUnknownRune(t *testing.T) {
	segs := encodeText("a☃b", faceRegular, 10) // snowman
	if len(segs) != 1 || string(segs[0].bytes) != "a?b" {
		t.Errorf("unknown rune not degraded: %#v", segs)
	}
}

func TestSplitWords(t *testing.T) {
	runs := []content.TextRun{
		{Text: "one tw"},
		{Text: "o three", Bold: true},
	}
	words := splitWords(runs, 10)
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
	// "two" spans both runs and keeps both faces
	if len(words[1].segs) != 2 {
		t.Errorf("split word has %d segments, want 2", len(words[1].segs))
	}
	if words[1].segs[0].face != faceRegular || words[1].segs[1].face != faceBold {
		t.Errorf("split word faces = %v, %v", words[1].segs[0].face, words[1].segs[1].face)
	}
}

func TestEscapeString(t *testing.T) {
	got := string(escapeString([]byte(`a(b)c\d`)))
	if got != `a\(b\)c\\d` {
		t.Errorf("escapeString = %q", got)
	}
}

func TestGlyphWidths(t *testing.T) {
	if w := glyphWidth(faceRegular, ' '); w != 250 {
		t.Errorf("space width = %d", w)
	}
	if w := glyphWidth(faceBold, 'W'); w != 1000 {
		t.Errorf("bold W width = %d", w)
	}
	// bytes outside the table fall back to a plausible default
	if w := glyphWidth(faceRegular, 0xB2); w != 500 {
		t.Errorf("high byte width = %d", w)
	}
}
