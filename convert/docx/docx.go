// Package docx renders prepared content into an OOXML word-processor file.
// The container is an ordinary zip archive of XML parts plus embedded media.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"idg/config"
	"idg/content"
)

const (
	emuPerPoint   = 12700
	twipsPerPoint = 20
)

type mediaFile struct {
	Name  string
	RelID string
	Data  []byte
}

type Generator struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Generator {
	return &Generator{log: log}
}

// Generate creates the DOCX output file using the full feature set: justified
// body text, native ruled tables, sized inline images.
func (g *Generator) Generate(ctx context.Context, c *content.Content, outputPath string, cfg *config.DocumentConfig) error {
	return g.generate(ctx, c, outputPath, cfg, false)
}

// GenerateDirect is the conservative assembly path used when the full path
// fails: left-aligned text, auto-width tables, no image transforms. It trades
// polish for predictability.
func (g *Generator) GenerateDirect(ctx context.Context, c *content.Content, outputPath string, cfg *config.DocumentConfig) error {
	return g.generate(ctx, c, outputPath, cfg, true)
}

func (g *Generator) generate(ctx context.Context, c *content.Content, outputPath string, cfg *config.DocumentConfig, direct bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.log.Info("Generating DOCX", zap.String("output", outputPath), zap.Bool("direct", direct))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	// assembly runs under a generated name - outputPath may itself point into
	// the work dir and must never collide with the temporary file
	f, err := os.CreateTemp(c.WorkDir, "assembly-*.docx")
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	tmpName := f.Name()
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	media := collectMedia(c)

	if err := writeContentTypes(zw, media); err != nil {
		return fmt.Errorf("unable to write content types: %w", err)
	}
	if err := writeRootRels(zw); err != nil {
		return fmt.Errorf("unable to write package relationships: %w", err)
	}
	if err := writeDocumentRels(zw, media); err != nil {
		return fmt.Errorf("unable to write document relationships: %w", err)
	}
	if err := writeStyles(zw, &cfg.Typography); err != nil {
		return fmt.Errorf("unable to write styles: %w", err)
	}

	doc := buildDocument(c, cfg, media, direct)
	if err := writeXMLToZip(zw, "word/document.xml", doc); err != nil {
		return fmt.Errorf("unable to write document: %w", err)
	}

	for _, m := range media {
		if err := writeDataToZip(zw, "word/media/"+m.Name, m.Data); err != nil {
			return fmt.Errorf("unable to write media %s: %w", m.Name, err)
		}
	}

	// make sure buffers are flushed before continuing
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}
	// clean temporary file
	defer os.Remove(tmpName)

	if cfg.FixZip {
		return copyZipWithoutDataDescriptors(tmpName, outputPath)
	}
	return copyFile(tmpName, outputPath)
}

// collectMedia assigns package names and relationship IDs to every prepared
// image in plan order. rId1 is reserved for the styles part.
func collectMedia(c *content.Content) map[*content.PreparedImage]mediaFile {
	media := make(map[*content.PreparedImage]mediaFile)
	n := 0
	for _, sp := range c.Plan {
		for _, step := range sp.Steps {
			if step.Image == nil {
				continue
			}
			if _, exists := media[step.Image]; exists {
				continue
			}
			n++
			media[step.Image] = mediaFile{
				Name:  fmt.Sprintf("image%d.%s", n, step.Image.Format),
				RelID: fmt.Sprintf("rId%d", n+1),
				Data:  step.Image.Raw,
			}
		}
	}
	return media
}

func writeContentTypes(zw *zip.Writer, media map[*content.PreparedImage]mediaFile) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	types := doc.CreateElement("Types")
	types.CreateAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/content-types")

	addDefault := func(ext, ct string) {
		d := types.CreateElement("Default")
		d.CreateAttr("Extension", ext)
		d.CreateAttr("ContentType", ct)
	}
	addDefault("rels", "application/vnd.openxmlformats-package.relationships+xml")
	addDefault("xml", "application/xml")

	seen := make(map[string]bool)
	for _, m := range media {
		ext := filepath.Ext(m.Name)[1:]
		if seen[ext] {
			continue
		}
		seen[ext] = true
		switch ext {
		case "png":
			addDefault(ext, "image/png")
		case "jpg":
			addDefault(ext, "image/jpeg")
		case "gif":
			addDefault(ext, "image/gif")
		}
	}

	addOverride := func(part, ct string) {
		o := types.CreateElement("Override")
		o.CreateAttr("PartName", part)
		o.CreateAttr("ContentType", ct)
	}
	addOverride("/word/document.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml")
	addOverride("/word/styles.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml")

	return writeXMLToZip(zw, "[Content_Types].xml", doc)
}

func writeRootRels(zw *zip.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	rels := doc.CreateElement("Relationships")
	rels.CreateAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/relationships")

	rel := rels.CreateElement("Relationship")
	rel.CreateAttr("Id", "rId1")
	rel.CreateAttr("Type", "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument")
	rel.CreateAttr("Target", "word/document.xml")

	return writeXMLToZip(zw, "_rels/.rels", doc)
}

func writeDocumentRels(zw *zip.Writer, media map[*content.PreparedImage]mediaFile) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	rels := doc.CreateElement("Relationships")
	rels.CreateAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/relationships")

	rel := rels.CreateElement("Relationship")
	rel.CreateAttr("Id", "rId1")
	rel.CreateAttr("Type", "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles")
	rel.CreateAttr("Target", "styles.xml")

	for _, m := range media {
		rel := rels.CreateElement("Relationship")
		rel.CreateAttr("Id", m.RelID)
		rel.CreateAttr("Type", "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image")
		rel.CreateAttr("Target", "media/"+m.Name)
	}

	return writeXMLToZip(zw, "word/_rels/document.xml.rels", doc)
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destinationFile.Close()

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
