// Package doc defines the structured technical document model accepted for
// rendering and its JSON wire form. A Document is immutable once submitted:
// rendering never modifies it, all derived state (caption ordinals, resolved
// labels) lives with the render, not with the model.
package doc

import (
	"fmt"
	"strings"
)

// BlockKind discriminates Block variants.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockTable
	BlockImage
	BlockEquation
)

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "text"
	case BlockTable:
		return "table"
	case BlockImage:
		return "image"
	case BlockEquation:
		return "equation"
	default:
		return fmt.Sprintf("BlockKind(%d)", int(k))
	}
}

type Author struct {
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Email        string `json:"email,omitempty"`
}

// EmphasisSpan marks a byte range of paragraph text to be rendered with
// bold/italic emphasis. Ranges are half-open [Start, End).
type EmphasisSpan struct {
	Start  int  `json:"start"`
	End    int  `json:"end"`
	Bold   bool `json:"bold,omitempty"`
	Italic bool `json:"italic,omitempty"`
}

// Block is a tagged variant over paragraph, table, image and equation
// content. Only the fields of the active Kind are meaningful.
type Block struct {
	Kind    BlockKind
	Order   int
	Caption string

	// paragraph
	Text     string
	Emphasis []EmphasisSpan

	// table; TableName is the deprecated legacy caption field which may
	// duplicate or overlap Caption and is reconciled before rendering
	TableName string
	Headers   []string
	Rows      [][]string

	// image
	Data  []byte
	Size  string
	Width float64 // requested display width in points, 0 means use Size

	// equation
	Latex  string
	EqNum  int
	HasNum bool
}

// HasRenderableImage reports whether an image block carries a payload worth
// rendering. Blocks failing this are skipped and never consume a figure
// ordinal.
func (b *Block) HasRenderableImage() bool {
	return b.Kind == BlockImage && len(b.Data) > 0
}

type Section struct {
	Title  string
	Blocks []Block
}

type Document struct {
	Title      string
	Authors    []Author
	Abstract   string
	Keywords   []string
	Sections   []Section
	References []string
}

// Validate checks document shape invariants which cannot be repaired without
// corrupting data. It is called once before rendering starts.
func (d *Document) Validate() error {
	for si := range d.Sections {
		sec := &d.Sections[si]
		for bi := range sec.Blocks {
			if err := sec.Blocks[bi].validate(); err != nil {
				return fmt.Errorf("section %d block %d: %w", si+1, bi+1, err)
			}
		}
	}
	return nil
}

func (b *Block) validate() error {
	switch b.Kind {
	case BlockTable:
		cols := len(b.Headers)
		if cols == 0 && len(b.Rows) > 0 {
			cols = len(b.Rows[0])
		}
		if cols == 0 {
			return fmt.Errorf("table has no columns")
		}
		for i, row := range b.Rows {
			if len(row) != cols {
				return fmt.Errorf("table is not rectangular: row %d has %d cells, want %d", i+1, len(row), cols)
			}
		}
	case BlockParagraph:
		for _, span := range b.Emphasis {
			if span.Start < 0 || span.End > len(b.Text) || span.Start > span.End {
				return fmt.Errorf("emphasis range [%d, %d) out of bounds for text of length %d", span.Start, span.End, len(b.Text))
			}
		}
	}
	return nil
}

// ColumnCount returns table width in cells.
func (b *Block) ColumnCount() int {
	if len(b.Headers) > 0 {
		return len(b.Headers)
	}
	if len(b.Rows) > 0 {
		return len(b.Rows[0])
	}
	return 0
}

// AuthorLine joins author names the way front matter displays them.
func (d *Document) AuthorLine() string {
	names := make([]string, 0, len(d.Authors))
	for _, a := range d.Authors {
		if strings.TrimSpace(a.Name) != "" {
			names = append(names, strings.TrimSpace(a.Name))
		}
	}
	return strings.Join(names, ", ")
}
