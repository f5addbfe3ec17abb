package convert

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"idg/config"
	"idg/content"
	"idg/doc"
	"idg/state"
)

func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	return ctx, env
}

func pathTestContent(format config.OutputFmt) *content.Content {
	return &content.Content{
		SrcName:      "batch/request.json",
		RenderID:     "0195f1f2",
		OutputFormat: format,
		Document: &doc.Document{
			Title:   "Книга",
			Authors: []doc.Author{{Name: "A. Writer"}},
		},
	}
}

func TestBuildOutputPathDefault(t *testing.T) {
	_, env := setupTestEnv(t)
	c := pathTestContent(config.OutputFmtDocx)

	got := buildOutputPath(c, filepath.Join("batch", "request.json"), "/out", env)
	want := filepath.Join("/out", "batch", "request.docx")
	if got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestBuildOutputPathNoDirs(t *testing.T) {
	_, env := setupTestEnv(t)
	env.NoDirs = true
	c := pathTestContent(config.OutputFmtPdf)

	got := buildOutputPath(c, filepath.Join("batch", "request.json"), "/out", env)
	want := filepath.Join("/out", "request.pdf")
	if got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestBuildOutputPathTemplate(t *testing.T) {
	_, env := setupTestEnv(t)
	env.NoDirs = true
	env.Cfg.Document.OutputNameTemplate = `{{.Title}}/{{.SourceFile}}`
	c := pathTestContent(config.OutputFmtDocx)

	got := buildOutputPath(c, filepath.Join("batch", "request.json"), "/out", env)
	want := filepath.Join("/out", "Книга", "request.docx")
	if got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestBuildOutputPathTemplateTransliterate(t *testing.T) {
	_, env := setupTestEnv(t)
	env.NoDirs = true
	env.Cfg.Document.OutputNameTemplate = `{{.Title}}`
	env.Cfg.Document.FileNameTransliterate = true
	c := pathTestContent(config.OutputFmtDocx)

	got := buildOutputPath(c, filepath.Join("batch", "request.json"), "/out", env)
	want := filepath.Join("/out", "kniga.docx")
	if got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestBuildOutputPathBadTemplate(t *testing.T) {
	_, env := setupTestEnv(t)
	env.NoDirs = true
	env.Cfg.Document.OutputNameTemplate = `{{.NoSuchField}}`
	c := pathTestContent(config.OutputFmtDocx)

	// broken template falls back to the default scheme
	got := buildOutputPath(c, "request.json", "/out", env)
	want := filepath.Join("/out", "request.docx")
	if got != want {
		t.Errorf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestBuildDefaultFileName(t *testing.T) {
	_, env := setupTestEnv(t)

	if got := buildDefaultFileName(filepath.Join("a", "b", "report.json"), config.OutputFmtPdf, env); got != "report.pdf" {
		t.Errorf("buildDefaultFileName = %q", got)
	}

	env.Cfg.Document.FileNameTransliterate = true
	if got := buildDefaultFileName("Книга.json", config.OutputFmtDocx, env); got != "kniga.docx" {
		t.Errorf("transliterated name = %q", got)
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	cases := []struct {
		path string
		want []string
	}{
		{"a", []string{"a"}},
		{filepath.Join("a", "b", "c"), []string{"a", "b", "c"}},
		{filepath.Join("a", "b") + string(filepath.Separator), []string{"a", "b"}},
		{"", nil},
	}
	for _, tc := range cases {
		got := splitAndCleanPath(tc.path)
		if len(got) != len(tc.want) {
			t.Errorf("splitAndCleanPath(%q) = %v, want %v", tc.path, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitAndCleanPath(%q) = %v, want %v", tc.path, got, tc.want)
				break
			}
		}
	}
}

func TestAssemblePathWithSubdirs(t *testing.T) {
	_, env := setupTestEnv(t)

	got := assemblePathWithSubdirs("/out", filepath.Join("sub", "deeper", "name"), config.OutputFmtDocx, env)
	want := filepath.Join("/out", "sub", "deeper", "name.docx")
	if got != want {
		t.Errorf("assemblePathWithSubdirs = %q, want %q", got, want)
	}

	if got := assemblePathWithSubdirs("/out", "", config.OutputFmtDocx, env); got != "/out" {
		t.Errorf("empty expansion = %q", got)
	}
}
