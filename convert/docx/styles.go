package docx

import (
	"archive/zip"
	"strconv"

	"github.com/beevik/etree"

	"idg/config"
)

// writeStyles emits a minimal styles part: document defaults carrying the
// configured font family and body size. Everything else is direct formatting.
func writeStyles(zw *zip.Writer, t *config.TypographyConfig) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	styles := doc.CreateElement("w:styles")
	styles.CreateAttr("xmlns:w", "http://schemas.openxmlformats.org/wordprocessingml/2006/main")

	docDefaults := styles.CreateElement("w:docDefaults")
	rPrDefault := docDefaults.CreateElement("w:rPrDefault")
	rPr := rPrDefault.CreateElement("w:rPr")

	fonts := rPr.CreateElement("w:rFonts")
	fonts.CreateAttr("w:ascii", t.FontFamily)
	fonts.CreateAttr("w:hAnsi", t.FontFamily)

	sz := rPr.CreateElement("w:sz")
	sz.CreateAttr("w:val", strconv.Itoa(int(t.BodySize*2)))

	pPrDefault := docDefaults.CreateElement("w:pPrDefault")
	pPr := pPrDefault.CreateElement("w:pPr")
	spacing := pPr.CreateElement("w:spacing")
	spacing.CreateAttr("w:before", "0")
	spacing.CreateAttr("w:after", "0")

	normal := styles.CreateElement("w:style")
	normal.CreateAttr("w:type", "paragraph")
	normal.CreateAttr("w:styleId", "Normal")
	normal.CreateAttr("w:default", "1")
	name := normal.CreateElement("w:name")
	name.CreateAttr("w:val", "Normal")

	return writeXMLToZip(zw, "word/styles.xml", doc)
}
