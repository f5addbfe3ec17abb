package content

import (
	"sort"

	"github.com/maruel/natural"

	"idg/doc"
	"idg/utils/debug"
)

// String returns a readable tree of the resolved render plan. It exists
// solely for manual inspection during debugging.
func (c *Content) String() string {
	if c == nil {
		return "<nil Content>"
	}

	tw := debug.NewTreeWriter()
	tw.TextBlock(0, "Title", c.Document.Title)
	tw.Line(0, "Authors: %d", len(c.Document.Authors))
	for _, a := range c.Document.Authors {
		tw.Line(1, "Author[%q] org[%q] email[%q]", a.Name, a.Organization, a.Email)
	}
	tw.Line(0, "Keywords: %d", len(c.Document.Keywords))
	tw.Line(0, "References: %d", len(c.Document.References))

	tw.Line(0, "Plan: %d sections", len(c.Plan))
	for _, sp := range c.Plan {
		tw.Line(1, "Section[%d] heading[%q] steps[%d]", sp.Index, sp.Heading, len(sp.Steps))
		for i, step := range sp.Steps {
			switch step.Block.Kind {
			case doc.BlockParagraph:
				tw.Line(2, "Step[%d] paragraph len[%d]", i, len(step.Block.Text))
			case doc.BlockTable:
				tw.Line(2, "Step[%d] table label[%q] rows[%d] cols[%d]", i, step.Label, len(step.Block.Rows), step.Block.ColumnCount())
			case doc.BlockImage:
				tw.Line(2, "Step[%d] image label[%q] format[%q] dim[%dx%d] display[%.1fx%.1f]",
					i, step.Label, step.Image.Format, step.Image.PixelW, step.Image.PixelH, step.Image.DisplayW, step.Image.DisplayH)
			case doc.BlockEquation:
				tw.Line(2, "Step[%d] equation fidelity[%v] text[%q]", i, step.Eq.HighFidelity, step.Eq.Line())
			}
		}
	}

	// flat caption index, naturally sorted so "1.10" follows "1.9"
	var labels []string
	for _, sp := range c.Plan {
		for _, step := range sp.Steps {
			if step.Label != "" {
				labels = append(labels, step.Label)
			}
		}
	}
	if len(labels) > 0 {
		sort.Sort(natural.StringSlice(labels))
		tw.Line(0, "Captions: %d", len(labels))
		for _, l := range labels {
			tw.Line(1, "%s", l)
		}
	}
	return tw.String()
}
