package docx

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"idg/config"
	"idg/content"
	"idg/doc"
)

// builder keeps state of one document.xml assembly.
type builder struct {
	cfg    *config.DocumentConfig
	body   *etree.Element
	media  map[*content.PreparedImage]mediaFile
	direct bool

	drawingID int
}

func buildDocument(c *content.Content, cfg *config.DocumentConfig, media map[*content.PreparedImage]mediaFile, direct bool) *etree.Document {
	xml := etree.NewDocument()
	xml.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	root := xml.CreateElement("w:document")
	root.CreateAttr("xmlns:w", "http://schemas.openxmlformats.org/wordprocessingml/2006/main")
	root.CreateAttr("xmlns:r", "http://schemas.openxmlformats.org/officeDocument/2006/relationships")
	root.CreateAttr("xmlns:wp", "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing")
	root.CreateAttr("xmlns:a", "http://schemas.openxmlformats.org/drawingml/2006/main")
	root.CreateAttr("xmlns:pic", "http://schemas.openxmlformats.org/drawingml/2006/picture")

	b := &builder{
		cfg:    cfg,
		body:   root.CreateElement("w:body"),
		media:  media,
		direct: direct,
	}

	b.frontMatter(c.Document)
	for _, sp := range c.Plan {
		b.section(&sp)
	}
	b.references(c.Document.References)
	b.sectionProperties()

	return xml
}

func (b *builder) frontMatter(d *doc.Document) {
	t := &b.cfg.Typography

	if d.Title != "" {
		p := b.paragraph("center", 0, t.LineSpacing/2, 0)
		b.run(p, d.Title, t.TitleSize, false, false)
	}

	for _, a := range d.Authors {
		if a.Name == "" {
			continue
		}
		p := b.paragraph("center", 0, 0, 0)
		b.run(p, a.Name, t.AuthorSize, false, false)
		if a.Organization != "" {
			p = b.paragraph("center", 0, 0, 0)
			b.run(p, a.Organization, t.AffiliationSize, false, true)
		}
		if a.Email != "" {
			p = b.paragraph("center", 0, t.LineSpacing/2, 0)
			b.run(p, a.Email, t.AffiliationSize, false, false)
		}
	}

	if d.Abstract != "" {
		p := b.paragraph(b.bodyAlign(), t.LineSpacing/2, 0, 0)
		b.run(p, "Abstract—", t.BodySize, true, true)
		b.run(p, d.Abstract, t.BodySize, true, false)
	}

	if len(d.Keywords) > 0 {
		p := b.paragraph(b.bodyAlign(), t.LineSpacing/2, t.LineSpacing/2, 0)
		b.run(p, "Index Terms—", t.BodySize, true, true)
		for i, kw := range d.Keywords {
			if i > 0 {
				b.run(p, ", ", t.BodySize, false, true)
			}
			b.run(p, kw, t.BodySize, false, true)
		}
	}
}

func (b *builder) section(sp *content.SectionPlan) {
	t := &b.cfg.Typography

	if sp.Heading != "" {
		p := b.paragraph("center", t.LineSpacing, t.LineSpacing/2, 0)
		b.run(p, sp.Heading, t.SectionSize, false, false)
	}

	for i := range sp.Steps {
		step := &sp.Steps[i]
		switch step.Block.Kind {
		case doc.BlockParagraph:
			b.textParagraph(step.Block)
		case doc.BlockTable:
			b.table(step)
		case doc.BlockImage:
			b.image(step)
		case doc.BlockEquation:
			b.equation(step)
		}
	}
}

func (b *builder) references(refs []string) {
	if len(refs) == 0 {
		return
	}
	t := &b.cfg.Typography

	p := b.paragraph("center", t.LineSpacing, t.LineSpacing/2, 0)
	b.run(p, "REFERENCES", t.SectionSize, false, false)

	for i, ref := range refs {
		p := b.paragraph(b.bodyAlign(), 0, 0, t.LineSpacing)
		b.run(p, fmt.Sprintf("[%d] %s", i+1, ref), t.BodySize, false, false)
	}
}

func (b *builder) textParagraph(blk *doc.Block) {
	t := &b.cfg.Typography
	p := b.paragraph(b.bodyAlign(), 0, t.LineSpacing/2, t.LineSpacing)
	for _, run := range content.SplitRuns(blk.Text, blk.Emphasis) {
		b.run(p, run.Text, t.BodySize, run.Bold, run.Italic)
	}
}

// caption emits the resolved label as its own paragraph. This is the only
// place a label reaches the output.
func (b *builder) caption(label string) {
	t := &b.cfg.Typography
	p := b.paragraph("center", t.CaptionSpaceBefore, t.CaptionSpaceAfter, 0)
	b.run(p, label, t.CaptionSize, true, false)
}

func (b *builder) table(step *content.Step) {
	blk := step.Block
	if step.Label != "" {
		b.caption(step.Label)
	}

	tbl := b.body.CreateElement("w:tbl")

	tblPr := tbl.CreateElement("w:tblPr")
	tblW := tblPr.CreateElement("w:tblW")
	tblW.CreateAttr("w:w", "0")
	tblW.CreateAttr("w:type", "auto")
	if !b.direct {
		jc := tblPr.CreateElement("w:jc")
		jc.CreateAttr("w:val", "center")
	}
	borders := tblPr.CreateElement("w:tblBorders")
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		e := borders.CreateElement("w:" + side)
		e.CreateAttr("w:val", "single")
		e.CreateAttr("w:sz", "4")
		e.CreateAttr("w:space", "0")
		e.CreateAttr("w:color", "auto")
	}

	cols := blk.ColumnCount()
	grid := tbl.CreateElement("w:tblGrid")
	for range cols {
		grid.CreateElement("w:gridCol")
	}

	if len(blk.Headers) > 0 {
		b.tableRow(tbl, blk.Headers, true)
	}
	for _, row := range blk.Rows {
		b.tableRow(tbl, row, false)
	}

	// a bare table must not merge visually with the following text
	b.spacerParagraph(b.cfg.Typography.CaptionSpaceAfter)
}

func (b *builder) tableRow(tbl *etree.Element, cells []string, header bool) {
	t := &b.cfg.Typography

	tr := tbl.CreateElement("w:tr")
	for _, cell := range cells {
		tc := tr.CreateElement("w:tc")
		tcPr := tc.CreateElement("w:tcPr")
		tcW := tcPr.CreateElement("w:tcW")
		tcW.CreateAttr("w:w", "0")
		tcW.CreateAttr("w:type", "auto")

		p := tc.CreateElement("w:p")
		if header {
			pPr := p.CreateElement("w:pPr")
			jc := pPr.CreateElement("w:jc")
			jc.CreateAttr("w:val", "center")
		}
		b.run(p, cell, t.BodySize, header, false)
	}
}

func (b *builder) image(step *content.Step) {
	t := &b.cfg.Typography

	if step.Label != "" {
		b.caption(step.Label)
	}

	// blank line above and below keeps the image clear of surrounding text
	b.spacerParagraph(t.ImageSpaceBefore)

	p := b.paragraph("center", 0, 0, 0)
	b.drawing(p, step.Image)

	b.spacerParagraph(t.ImageSpaceAfter)
}

func (b *builder) drawing(p *etree.Element, img *content.PreparedImage) {
	m := b.media[img]
	b.drawingID++

	cx := strconv.FormatInt(int64(img.DisplayW*emuPerPoint), 10)
	cy := strconv.FormatInt(int64(img.DisplayH*emuPerPoint), 10)

	r := p.CreateElement("w:r")
	drawing := r.CreateElement("w:drawing")

	inline := drawing.CreateElement("wp:inline")
	for _, dist := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(dist, "0")
	}

	extent := inline.CreateElement("wp:extent")
	extent.CreateAttr("cx", cx)
	extent.CreateAttr("cy", cy)

	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", strconv.Itoa(b.drawingID))
	docPr.CreateAttr("name", m.Name)

	graphic := inline.CreateElement("a:graphic")
	graphicData := graphic.CreateElement("a:graphicData")
	graphicData.CreateAttr("uri", "http://schemas.openxmlformats.org/drawingml/2006/picture")

	picEl := graphicData.CreateElement("pic:pic")

	nvPicPr := picEl.CreateElement("pic:nvPicPr")
	cNvPr := nvPicPr.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(b.drawingID))
	cNvPr.CreateAttr("name", m.Name)
	nvPicPr.CreateElement("pic:cNvPicPr")

	blipFill := picEl.CreateElement("pic:blipFill")
	blip := blipFill.CreateElement("a:blip")
	blip.CreateAttr("r:embed", m.RelID)
	blipFill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := picEl.CreateElement("pic:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", cx)
	ext.CreateAttr("cy", cy)
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")
}

func (b *builder) equation(step *content.Step) {
	t := &b.cfg.Typography
	p := b.paragraph("center", t.LineSpacing/2, t.LineSpacing/2, 0)
	b.run(p, step.Eq.Text, t.EquationSize, false, true)
	if step.Eq.Number != "" {
		b.run(p, "  "+step.Eq.Number, t.EquationNumberSize, false, false)
	}
}

func (b *builder) sectionProperties() {
	pg := &b.cfg.Page

	sectPr := b.body.CreateElement("w:sectPr")

	pgSz := sectPr.CreateElement("w:pgSz")
	pgSz.CreateAttr("w:w", twips(pg.Width))
	pgSz.CreateAttr("w:h", twips(pg.Height))

	pgMar := sectPr.CreateElement("w:pgMar")
	for _, side := range []string{"top", "right", "bottom", "left"} {
		pgMar.CreateAttr("w:"+side, twips(pg.Margin))
	}
}

// paragraph creates a paragraph with alignment and spacing measured in points.
// Zero spacing values are omitted from the output.
func (b *builder) paragraph(align string, beforePt, afterPt, linePt float64) *etree.Element {
	p := b.body.CreateElement("w:p")
	pPr := p.CreateElement("w:pPr")

	if align != "" {
		jc := pPr.CreateElement("w:jc")
		jc.CreateAttr("w:val", align)
	}
	if beforePt > 0 || afterPt > 0 || linePt > 0 {
		spacing := pPr.CreateElement("w:spacing")
		if beforePt > 0 {
			spacing.CreateAttr("w:before", twips(beforePt))
		}
		if afterPt > 0 {
			spacing.CreateAttr("w:after", twips(afterPt))
		}
		if linePt > 0 {
			spacing.CreateAttr("w:line", twips(linePt))
			spacing.CreateAttr("w:lineRule", "exact")
		}
	}
	return p
}

func (b *builder) spacerParagraph(sizePt float64) {
	if sizePt <= 0 {
		return
	}
	p := b.body.CreateElement("w:p")
	pPr := p.CreateElement("w:pPr")
	spacing := pPr.CreateElement("w:spacing")
	spacing.CreateAttr("w:before", "0")
	spacing.CreateAttr("w:after", "0")
	spacing.CreateAttr("w:line", twips(sizePt))
	spacing.CreateAttr("w:lineRule", "exact")
}

func (b *builder) run(p *etree.Element, text string, sizePt float64, bold, italic bool) {
	t := &b.cfg.Typography

	r := p.CreateElement("w:r")
	rPr := r.CreateElement("w:rPr")

	fonts := rPr.CreateElement("w:rFonts")
	fonts.CreateAttr("w:ascii", t.FontFamily)
	fonts.CreateAttr("w:hAnsi", t.FontFamily)

	sz := rPr.CreateElement("w:sz")
	sz.CreateAttr("w:val", strconv.Itoa(int(sizePt*2)))

	if bold {
		rPr.CreateElement("w:b")
	}
	if italic {
		rPr.CreateElement("w:i")
	}

	tEl := r.CreateElement("w:t")
	tEl.CreateAttr("xml:space", "preserve")
	tEl.SetText(text)
}

// bodyAlign is justified on the full path; the direct assembly path keeps
// plain left alignment.
func (b *builder) bodyAlign() string {
	if b.direct {
		return "left"
	}
	return "both"
}

func twips(pt float64) string {
	return strconv.FormatInt(int64(pt*twipsPerPoint), 10)
}
