// Package pdfcloud calls an external service converting word-processor output
// into fixed-layout output. The service is treated as unreliable best-effort:
// any failure here just removes the tier from the fallback chain.
package pdfcloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"idg/config"
)

type Client struct {
	cfg *config.PDFServiceConfig
	log *zap.Logger

	httpClient *http.Client
}

func New(cfg *config.PDFServiceConfig, log *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

// Convert uploads the file at inputPath and stores the converted result at
// outputPath. The response body is written to a temporary sibling first so a
// failed conversion never leaves a truncated output file.
func (c *Client) Convert(ctx context.Context, inputPath, outputPath string) error {
	if c.cfg.URL == "" {
		return fmt.Errorf("conversion service is not configured")
	}

	c.log.Info("Converting via external service", zap.String("url", c.cfg.URL), zap.String("input", inputPath))

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("unable to read input file: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(inputPath))
	if err != nil {
		return fmt.Errorf("unable to prepare upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("unable to prepare upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("unable to prepare upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, &body)
	if err != nil {
		return fmt.Errorf("unable to prepare request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if key := string(c.cfg.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("conversion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// read a little of the body for diagnostics, services tend to
		// explain themselves in plain text
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("conversion service returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".pdfcloud-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to store converted result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize converted result: %w", err)
	}
	return os.Rename(tmpName, outputPath)
}
