package content

import (
	"go.uber.org/zap"

	"idg/doc"
	"idg/eqn"
)

// Step is one renderable unit of the plan. Labels and equation text are
// resolved here, exactly once, and reused verbatim by whichever backend
// renders the step - numbering is therefore identical across output formats
// by construction.
type Step struct {
	Block   *doc.Block
	Label   string // full caption line, empty when the block carries none
	Caption string // reconciled caption text without numbering
	Image   *PreparedImage
	Eq      eqn.Result
}

// SectionPlan is the ordered render plan for one document section.
type SectionPlan struct {
	Index   int    // 1-based position, used in caption labels
	Title   string // raw section title
	Heading string // numbered heading line, e.g. "III. EVALUATION"
	Steps   []Step
}

// buildPlan walks the document in order keeping two per-section ordinal
// counters (tables, figures). Ordinals are strictly sequential per kind
// within a section: skipped blocks never consume a slot.
func buildPlan(d *doc.Document, images map[*doc.Block]*PreparedImage, tr eqn.Transcriber, log *zap.Logger) []SectionPlan {
	plans := make([]SectionPlan, 0, len(d.Sections))

	for si := range d.Sections {
		sec := &d.Sections[si]
		sp := SectionPlan{
			Index: si + 1,
			Title: sec.Title,
		}
		if sec.Title != "" {
			sp.Heading = romanUpper(si+1) + ". " + upperCaser.String(sec.Title)
		}

		tables, figures := 0, 0
		for bi := range sec.Blocks {
			b := &sec.Blocks[bi]
			step := Step{Block: b}

			switch b.Kind {
			case doc.BlockTable:
				tables++
				step.Caption = reconcileTableCaption(b.Caption, b.TableName, tables)
				step.Label = tableLabel(sp.Index, tables, step.Caption)

			case doc.BlockImage:
				img := images[b]
				if img == nil {
					// no payload, nothing to render - the block is dropped
					// and the next figure still gets this ordinal
					log.Debug("Skipping image block without payload",
						zap.Int("section", sp.Index), zap.Int("block", bi+1))
					continue
				}
				step.Image = img
				if b.Caption != "" {
					figures++
					step.Caption = b.Caption
					step.Label = figureLabel(sp.Index, figures, b.Caption)
				}

			case doc.BlockEquation:
				step.Eq = tr.Transcribe(b.Latex, b.EqNum, b.HasNum)
				if !step.Eq.HighFidelity {
					log.Debug("Equation transcribed with Unicode approximation",
						zap.Int("section", sp.Index), zap.Int("block", bi+1))
				}
			}

			sp.Steps = append(sp.Steps, step)
		}

		plans = append(plans, sp)
	}
	return plans
}
