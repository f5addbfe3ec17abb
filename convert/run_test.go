package convert

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"idg/config"
	"idg/content"
	"idg/doc"
)

func encodeTestPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 12))
	for y := range 12 {
		for x := range 24 {
			img.Set(x, y, color.RGBA{R: 30, G: 90, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func testRequestJSON(t *testing.T, title string) []byte {
	t.Helper()
	return fmt.Appendf(nil, `{
		"title": %q,
		"abstract": "A short abstract.",
		"keywords": ["one", "two"],
		"authors": [{"name": "A. Writer", "organization": "Lab"}],
		"sections": [{
			"title": "Evaluation",
			"contentBlocks": [
				{"type": "text", "order": 1, "content": "Some body text."},
				{"type": "table", "order": 2, "caption": "Setup", "headers": ["K", "V"], "tableData": [["a", "1"]]},
				{"type": "image", "order": 3, "caption": "Chart", "data": %q},
				{"type": "equation", "order": 4, "latex": "\\alpha + \\beta", "equationNumber": 1}
			]
		}],
		"references": ["A. Writer, \"Earlier,\" 2020."]
	}`, title, encodeTestPNG(t))
}

func requireZipEntry(t *testing.T, path, entry string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("output is not a container: %v", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == entry {
			return
		}
	}
	t.Errorf("container %s is missing %s", path, entry)
}

func TestProcessSingleFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	log := env.Log

	srcDir, dst := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "request.json")
	if err := os.WriteFile(src, testRequestJSON(t, "Single"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := process(ctx, src, dst, config.OutputFmtDocx, log); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dst, "request.docx")
	requireZipEntry(t, out, "word/document.xml")
}

func TestProcessSingleFilePdf(t *testing.T) {
	ctx, env := setupTestEnv(t)

	srcDir, dst := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "request.json")
	if err := os.WriteFile(src, testRequestJSON(t, "Fixed"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := process(ctx, src, dst, config.OutputFmtPdf, env.Log); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "request.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("output does not look like a fixed-layout file")
	}
}

func TestProcessDirectory(t *testing.T) {
	ctx, env := setupTestEnv(t)

	srcDir, dst := t.TempDir(), t.TempDir()
	if err := os.MkdirAll(filepath.Join(srcDir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"one.json", filepath.Join("sub", "two.json")} {
		if err := os.WriteFile(filepath.Join(srcDir, name), testRequestJSON(t, name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// noise is skipped, not fatal
	if err := os.WriteFile(filepath.Join(srcDir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := process(ctx, srcDir, dst, config.OutputFmtDocx, env.Log); err != nil {
		t.Fatal(err)
	}

	requireZipEntry(t, filepath.Join(dst, "one.docx"), "word/document.xml")
	// source directory structure is preserved by default
	requireZipEntry(t, filepath.Join(dst, "sub", "two.docx"), "word/document.xml")
}

func TestProcessArchive(t *testing.T) {
	ctx, env := setupTestEnv(t)

	srcDir, dst := t.TempDir(), t.TempDir()
	arc := filepath.Join(srcDir, "batch.zip")
	writeTestArchive(t, arc, map[string][]byte{
		"inner/request.json": testRequestJSON(t, "Archived"),
		"inner/readme.txt":   []byte("ignore me"),
	})

	if err := process(ctx, arc, dst, config.OutputFmtDocx, env.Log); err != nil {
		t.Fatal(err)
	}

	requireZipEntry(t, filepath.Join(dst, "inner", "request.docx"), "word/document.xml")
}

func TestProcessMissingSource(t *testing.T) {
	ctx, env := setupTestEnv(t)

	err := process(ctx, filepath.Join(t.TempDir(), "no-such.json"), t.TempDir(), config.OutputFmtDocx, env.Log)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestProcessDocOverwrite(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.NoDirs = true

	dst := t.TempDir()
	out := filepath.Join(dst, "request.docx")
	if err := os.WriteFile(out, []byte("old output"), 0644); err != nil {
		t.Fatal(err)
	}

	err := processDoc(ctx, bytes.NewReader(testRequestJSON(t, "Clash")), "request.json", dst, config.OutputFmtDocx, env.Log)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing output rejection, got %v", err)
	}

	env.Overwrite = true
	if err := processDoc(ctx, bytes.NewReader(testRequestJSON(t, "Clash")), "request.json", dst, config.OutputFmtDocx, env.Log); err != nil {
		t.Fatal(err)
	}
	requireZipEntry(t, out, "word/document.xml")
}

func TestProcessDocBadRequest(t *testing.T) {
	ctx, env := setupTestEnv(t)

	err := processDoc(ctx, strings.NewReader(`{"sections": [{"contentBlocks": [{"type": "martian"}]}]}`),
		"bad.json", t.TempDir(), config.OutputFmtDocx, env.Log)
	if err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestWriteFallsBackToDirect(t *testing.T) {
	ctx, env := setupTestEnv(t)

	// an unwritable output directory fails every tier the same way, the
	// error must name each of them
	c := &content.Content{
		OutputFormat: config.OutputFmtDocx,
		Document:     &doc.Document{Title: "Unwritable"},
		WorkDir:      t.TempDir(),
	}
	err := Write(ctx, c, filepath.Join(t.TempDir(), "missing", "\x00bad", "out.docx"), &env.Cfg.Document, env.Log)
	if err == nil {
		t.Fatal("expected exhausted tiers error")
	}
	for _, want := range []string{"tier docx:", "tier docx-direct:"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
