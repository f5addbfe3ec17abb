// Package content turns a parsed document into a fully resolved render plan:
// validated model, decoded and normalized figure payloads, reconciled caption
// labels and transcribed equations. Both output backends consume the same
// prepared Content, which is what keeps numbering identical between formats.
package content

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"idg/config"
	"idg/doc"
	"idg/eqn"
	"idg/misc"
	"idg/state"
)

// Content is one prepared document render. It owns its working directory and
// its counters: separate renders share nothing and may run concurrently.
type Content struct {
	SrcName      string
	RenderID     string
	OutputFormat config.OutputFmt

	Document *doc.Document
	Plan     []SectionPlan

	WorkDir string
}

// Prepare reads, parses, and prepares a generation request for conversion.
func Prepare(ctx context.Context, r io.Reader, srcName string, outputFormat config.OutputFmt, log *zap.Logger) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	d, err := doc.ParseJSON(r, log)
	if err != nil {
		return nil, fmt.Errorf("unable to parse document request: %w", err)
	}

	renderID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("unable to generate render ID: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", misc.GetAppName()+"-")
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary directory: %w", err)
	}
	env.Rpt.Store(fmt.Sprintf("%s-%s", misc.GetAppName(), renderID), tmpDir)

	imgs := prepareImages(d, &env.Cfg.Document.Images, log)

	tr := eqn.Transcriber{HighFidelity: env.Cfg.Document.Equations.HighFidelity}
	plan := buildPlan(d, imgs, tr, log)

	c := &Content{
		SrcName:      srcName,
		RenderID:     renderID.String(),
		OutputFormat: outputFormat,
		Document:     d,
		Plan:         plan,
		WorkDir:      tmpDir,
	}

	log.Debug("Prepared content",
		zap.String("render_id", c.RenderID),
		zap.Int("sections", len(plan)),
		zap.Int("images", len(imgs)))

	// Save prepared plan for debugging
	if env.Rpt != nil {
		name := filepath.Base(srcName) + "_prepared"
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(c.String()), 0644); err != nil {
			return nil, fmt.Errorf("unable to write prepared plan for debugging: %w", err)
		}
	}

	return c, nil
}
