package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"idg/config"
	"idg/content"
	"idg/convert/docx"
	"idg/convert/pdf"
	"idg/convert/pdfcloud"
)

// tier is one strategy for producing the requested output format. Tiers run
// in order; a failure is logged and the next tier runs exactly once. Only
// when every tier fails does Write return an error naming each tier with its
// cause.
type tier struct {
	name string
	run  func(ctx context.Context) error
}

// Write renders prepared content to outputPath in its requested format.
func Write(ctx context.Context, c *content.Content, outputPath string, cfg *config.DocumentConfig, log *zap.Logger) error {
	var tiers []tier

	switch c.OutputFormat {
	case config.OutputFmtDocx:
		gen := docx.New(log)
		tiers = append(tiers,
			tier{name: "docx", run: func(ctx context.Context) error {
				return gen.Generate(ctx, c, outputPath, cfg)
			}},
			tier{name: "docx-direct", run: func(ctx context.Context) error {
				return gen.GenerateDirect(ctx, c, outputPath, cfg)
			}},
		)

	case config.OutputFmtPdf:
		gen := pdf.New(log)
		tiers = append(tiers,
			tier{name: "pdf", run: func(ctx context.Context) error {
				return gen.Generate(ctx, c, outputPath, cfg)
			}},
			tier{name: "pdf-direct", run: func(ctx context.Context) error {
				return gen.GenerateDirect(ctx, c, outputPath, cfg)
			}},
		)
		// External conversion needs an intermediate word-processor file and
		// is only in play when the service is configured. It is never the
		// sole tier.
		if cfg.PDFService.URL != "" {
			tiers = append(tiers, tier{name: "pdf-service", run: func(ctx context.Context) error {
				intermediate := filepath.Join(c.WorkDir, "intermediate.docx")
				defer os.Remove(intermediate)
				if err := docx.New(log).Generate(ctx, c, intermediate, cfg); err != nil {
					return fmt.Errorf("unable to prepare intermediate file: %w", err)
				}
				return pdfcloud.New(&cfg.PDFService, log).Convert(ctx, intermediate, outputPath)
			}})
		}

	default:
		// this should never happen
		panic("unsupported format requested")
	}

	var errs error
	for _, t := range tiers {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		err := t.run(ctx)
		if err == nil {
			if errs != nil {
				log.Warn("Output produced by fallback", zap.String("tier", t.name))
			}
			return nil
		}
		log.Warn("Generation tier failed", zap.String("tier", t.name), zap.Error(err))
		errs = multierr.Append(errs, fmt.Errorf("tier %s: %w", t.name, err))

		// a failed tier must not leave a partial result behind
		if _, serr := os.Stat(outputPath); serr == nil {
			_ = os.Remove(outputPath)
		}
	}
	return fmt.Errorf("all generation tiers exhausted for %s: %w", c.OutputFormat, errs)
}
