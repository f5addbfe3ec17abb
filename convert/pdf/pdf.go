// Package pdf renders prepared content into a fixed-layout file using the
// standard core fonts. Line breaking quality is best achievable for a simple
// greedy breaker, deliberately not competing with a full typesetting engine.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"idg/config"
	"idg/content"
	"idg/doc"
)

type Generator struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Generator {
	return &Generator{log: log}
}

// Generate creates the PDF output file with justified body text and centered
// figures and tables.
func (g *Generator) Generate(ctx context.Context, c *content.Content, outputPath string, cfg *config.DocumentConfig) error {
	return g.generate(ctx, c, outputPath, cfg, false)
}

// GenerateDirect is the conservative assembly path: plain left alignment, no
// justification tuning.
func (g *Generator) GenerateDirect(ctx context.Context, c *content.Content, outputPath string, cfg *config.DocumentConfig) error {
	return g.generate(ctx, c, outputPath, cfg, true)
}

func (g *Generator) generate(ctx context.Context, c *content.Content, outputPath string, cfg *config.DocumentConfig, direct bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.log.Info("Generating PDF", zap.String("output", outputPath), zap.Bool("direct", direct))

	w := newWriter()
	l := newLayout(cfg, direct)

	if err := registerImages(w, l, c); err != nil {
		return err
	}

	frontMatter(l, c.Document, direct)
	for i := range c.Plan {
		section(l, &c.Plan[i], direct)
	}
	references(l, c.Document.References, direct)

	root, err := assemble(w, l, cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, w.serialize(root), 0644); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	return nil
}

// registerImages creates one DCT XObject per prepared image up front.
func registerImages(w *writer, l *layout, c *content.Content) error {
	for _, sp := range c.Plan {
		for _, step := range sp.Steps {
			img := step.Image
			if img == nil {
				continue
			}
			if _, done := l.imageNames[img]; done {
				continue
			}

			conf, _, err := image.DecodeConfig(bytes.NewReader(img.JPEG))
			if err != nil {
				return fmt.Errorf("unable to read image payload: %w", err)
			}
			space := "/DeviceRGB"
			if conf.ColorModel == color.GrayModel {
				space = "/DeviceGray"
			}

			l.imageSeq++
			name := fmt.Sprintf("Im%d", l.imageSeq)
			dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent 8 /Filter /DCTDecode",
				conf.Width, conf.Height, space)
			l.imageNames[img] = name
			l.imageRefs[name] = w.addRawStream(dict, img.JPEG)
		}
	}
	return nil
}

func frontMatter(l *layout, d *doc.Document, direct bool) {
	t := &l.cfg.Typography
	bodyAlign := "justify"
	if direct {
		bodyAlign = "left"
	}

	if d.Title != "" {
		l.flowTextCentered(d.Title, t.TitleSize, t.TitleSize*1.2)
		l.spacer(t.LineSpacing / 2)
	}

	for _, a := range d.Authors {
		if a.Name == "" {
			continue
		}
		l.line(a.Name, faceRegular, t.AuthorSize, t.LineSpacing, !direct)
		if a.Organization != "" {
			l.line(a.Organization, faceItalic, t.AffiliationSize, t.LineSpacing, !direct)
		}
		if a.Email != "" {
			l.line(a.Email, faceRegular, t.AffiliationSize, t.LineSpacing, !direct)
		}
	}
	l.spacer(t.LineSpacing / 2)

	if d.Abstract != "" {
		runs := []content.TextRun{
			{Text: "Abstract—", Bold: true, Italic: true},
			{Text: d.Abstract, Bold: true},
		}
		l.flowText(runs, t.BodySize, t.LineSpacing, bodyAlign)
		l.spacer(t.LineSpacing / 2)
	}

	if len(d.Keywords) > 0 {
		runs := []content.TextRun{
			{Text: "Index Terms—", Bold: true, Italic: true},
			{Text: strings.Join(d.Keywords, ", "), Italic: true},
		}
		l.flowText(runs, t.BodySize, t.LineSpacing, bodyAlign)
		l.spacer(t.LineSpacing / 2)
	}
}

func section(l *layout, sp *content.SectionPlan, direct bool) {
	t := &l.cfg.Typography
	bodyAlign := "justify"
	if direct {
		bodyAlign = "left"
	}

	if sp.Heading != "" {
		l.spacer(t.LineSpacing)
		l.line(sp.Heading, faceRegular, t.SectionSize, t.LineSpacing, true)
		l.spacer(t.LineSpacing / 2)
	}

	for i := range sp.Steps {
		step := &sp.Steps[i]
		switch step.Block.Kind {
		case doc.BlockParagraph:
			l.flowText(content.SplitRuns(step.Block.Text, step.Block.Emphasis), t.BodySize, t.LineSpacing, bodyAlign)
			l.spacer(t.LineSpacing / 2)

		case doc.BlockTable:
			caption(l, step.Label)
			l.table(step.Block.Headers, step.Block.Rows, step.Block.ColumnCount())
			l.spacer(t.CaptionSpaceAfter)

		case doc.BlockImage:
			caption(l, step.Label)
			l.spacer(t.ImageSpaceBefore)
			l.image(step.Image)
			l.spacer(t.ImageSpaceAfter)

		case doc.BlockEquation:
			l.spacer(t.LineSpacing / 2)
			l.equationLine(step.Eq)
			l.spacer(t.LineSpacing / 2)
		}
	}
}

// caption emits the resolved label once, centered and bold, with the
// configured spacing around it.
func caption(l *layout, label string) {
	if label == "" {
		return
	}
	t := &l.cfg.Typography
	l.spacer(t.CaptionSpaceBefore)
	l.line(label, faceBold, t.CaptionSize, t.LineSpacing, true)
	l.spacer(t.CaptionSpaceAfter)
}

func references(l *layout, refs []string, direct bool) {
	if len(refs) == 0 {
		return
	}
	t := &l.cfg.Typography
	bodyAlign := "justify"
	if direct {
		bodyAlign = "left"
	}

	l.spacer(t.LineSpacing)
	l.line("REFERENCES", faceRegular, t.SectionSize, t.LineSpacing, true)
	l.spacer(t.LineSpacing / 2)

	for i, ref := range refs {
		runs := []content.TextRun{{Text: fmt.Sprintf("[%d] %s", i+1, ref)}}
		l.flowText(runs, t.BodySize, t.LineSpacing, bodyAlign)
	}
}

// flowTextCentered wraps a single unstyled string with centered lines.
func (l *layout) flowTextCentered(text string, size, leading float64) {
	l.flowText([]content.TextRun{{Text: text}}, size, leading, "center")
}

// assemble builds the object graph around the accumulated pages and returns
// the catalog reference.
func assemble(w *writer, l *layout, cfg *config.DocumentConfig) (int, error) {
	fontRefs := make(map[face]int)
	for _, f := range []face{faceRegular, faceBold, faceItalic, faceBoldItalic, faceSymbol} {
		enc := " /Encoding /WinAnsiEncoding"
		if f == faceSymbol {
			enc = ""
		}
		fontRefs[f] = w.add(fmt.Appendf(nil, "<< /Type /Font /Subtype /Type1 /BaseFont /%s%s >>", f.baseFont(), enc))
	}

	pagesRef := w.reserve()

	pageRefs := make([]int, 0, len(l.pages))
	for _, p := range l.pages {
		streamRef, err := w.addStream("", p.content.Bytes())
		if err != nil {
			return 0, fmt.Errorf("unable to compress page content: %w", err)
		}

		var res bytes.Buffer
		res.WriteString("/Font << ")
		for _, f := range []face{faceRegular, faceBold, faceItalic, faceBoldItalic, faceSymbol} {
			fmt.Fprintf(&res, "/%s %d 0 R ", f.resourceName(), fontRefs[f])
		}
		res.WriteString(">>")
		if len(p.images) > 0 {
			res.WriteString(" /XObject << ")
			for name, ref := range p.images {
				fmt.Fprintf(&res, "/%s %d 0 R ", name, ref)
			}
			res.WriteString(">>")
		}

		pageRefs = append(pageRefs, w.add(fmt.Appendf(nil,
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %.2f %.2f] /Resources << %s >> /Contents %d 0 R >>",
			pagesRef, cfg.Page.Width, cfg.Page.Height, res.String(), streamRef)))
	}

	var kids bytes.Buffer
	for _, ref := range pageRefs {
		fmt.Fprintf(&kids, "%d 0 R ", ref)
	}
	w.set(pagesRef, fmt.Appendf(nil, "<< /Type /Pages /Kids [%s] /Count %d >>", strings.TrimSpace(kids.String()), len(pageRefs)))

	return w.add(fmt.Appendf(nil, "<< /Type /Catalog /Pages %d 0 R >>", pagesRef)), nil
}
