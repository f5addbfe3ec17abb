package content

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/tiff"

	"idg/config"
	"idg/doc"
	"idg/jpegquality"
	"idg/utils/images"
)

// pointsPerPixel assumes the conventional 96dpi pixel density for payloads
// that carry no density information of their own.
const pointsPerPixel = 72.0 / 96.0

// PreparedImage is a figure payload normalized for both backends: Raw is
// embeddable by the word-processor backend as-is, JPEG is the DCT-encoded
// variant the fixed-layout backend streams directly into the page.
type PreparedImage struct {
	Raw      []byte
	JPEG     []byte
	Format   string // raw payload format: png, jpg or gif
	PixelW   int
	PixelH   int
	DisplayW float64 // points
	DisplayH float64
}

// prepareImages decodes and normalizes every image block payload up front so
// rendering never touches codecs. A payload that cannot be prepared is
// logged and dropped; per the skip rule the block then renders nothing and
// consumes no figure ordinal.
func prepareImages(d *doc.Document, cfg *config.ImagesConfig, log *zap.Logger) map[*doc.Block]*PreparedImage {
	out := make(map[*doc.Block]*PreparedImage)
	for si := range d.Sections {
		sec := &d.Sections[si]
		for bi := range sec.Blocks {
			b := &sec.Blocks[bi]
			if !b.HasRenderableImage() {
				continue
			}
			img, err := prepareImage(b, cfg)
			if err != nil {
				log.Warn("Unable to prepare image, block will be skipped",
					zap.Int("section", si+1), zap.Int("block", bi+1), zap.Error(err))
				continue
			}
			log.Debug("Prepared image",
				zap.Int("section", si+1), zap.Int("block", bi+1),
				zap.String("format", img.Format),
				zap.Int("w", img.PixelW), zap.Int("h", img.PixelH))
			out[b] = img
		}
	}
	return out
}

func prepareImage(b *doc.Block, cfg *config.ImagesConfig) (*PreparedImage, error) {
	data := b.Data
	format := sniffFormat(data)

	displayW := displayWidthFor(b, cfg)

	if format == "svg" {
		// rasterize at twice the display resolution to keep lines crisp
		target := int(displayW / pointsPerPixel * 2)
		img, err := images.RasterizeSVGToImage(data, target, 0)
		if err != nil {
			return nil, fmt.Errorf("unable to rasterize svg: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("unable to encode rasterized svg: %w", err)
		}
		data, format = buf.Bytes(), "png"
	}

	img, decodedFmt, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s image: %w", format, err)
	}
	if format == "" {
		format = decodedFmt
	}

	// formats the word-processor container cannot embed are re-encoded
	if format != "png" && format != "jpg" && format != "jpeg" && format != "gif" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("unable to re-encode %s image: %w", format, err)
		}
		data, format = buf.Bytes(), "png"
	}
	if format == "jpeg" {
		format = "jpg"
	}

	// some word processors render transparent regions as black
	if format == "png" && cfg.RemovePNGTransparency && !isOpaque(img) {
		img = flattenOverWhite(img)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("unable to flatten png transparency: %w", err)
		}
		data = buf.Bytes()
	}

	bounds := img.Bounds()
	pw, ph := bounds.Dx(), bounds.Dy()
	if pw <= 0 || ph <= 0 {
		return nil, fmt.Errorf("image has empty bounds")
	}

	if cfg.ScaleFactor > 0 && cfg.ScaleFactor != 1.0 {
		displayW *= cfg.ScaleFactor
	}
	// never upscale past native resolution
	if native := float64(pw) * pointsPerPixel; cfg.Resize == config.ImageResizeModeKeepAR && displayW > native {
		displayW = native
	}
	displayH := displayW * float64(ph) / float64(pw)

	// drop excess resolution when asked to - two device pixels per point is
	// plenty for print-oriented output
	if cfg.Optimize {
		if maxPx := int(displayW / pointsPerPixel * 2); pw > maxPx && maxPx > 0 {
			img = imaging.Resize(img, maxPx, 0, imaging.Lanczos)
			bounds = img.Bounds()
			pw, ph = bounds.Dx(), bounds.Dy()

			var buf bytes.Buffer
			if format == "jpg" {
				if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: cfg.JPEGQuality}); err != nil {
					return nil, fmt.Errorf("unable to encode resized image: %w", err)
				}
			} else {
				format = "png"
				if err := png.Encode(&buf, img); err != nil {
					return nil, fmt.Errorf("unable to encode resized image: %w", err)
				}
			}
			data = buf.Bytes()
		}
	}

	jpegData, err := encodeForFixedLayout(img, data, format, cfg)
	if err != nil {
		return nil, err
	}

	return &PreparedImage{
		Raw:      data,
		JPEG:     jpegData,
		Format:   format,
		PixelW:   pw,
		PixelH:   ph,
		DisplayW: displayW,
		DisplayH: displayH,
	}, nil
}

// encodeForFixedLayout produces the DCT payload for the PDF backend. An
// already compressed JPEG at or below the configured quality is passed
// through untouched to avoid generational loss.
func encodeForFixedLayout(img image.Image, data []byte, format string, cfg *config.ImagesConfig) ([]byte, error) {
	if format == "jpg" {
		if qr, err := jpegquality.NewWithBytes(data); err == nil && qr.Quality() <= cfg.JPEGQuality {
			out, _, err := images.EnsureJFIFAPP0(data, images.DpiPxPerInch, 96, 96)
			if err == nil {
				return out, nil
			}
		}
	}

	// alpha has to go: composite over white before DCT encoding
	flat := flattenOverWhite(img)

	var enc image.Image = flat
	if images.IsGrayscale(img) {
		enc = imaging.Grayscale(flat)
	}

	out, err := images.EncodeJPEGWithDPI(enc, cfg.JPEGQuality, images.DpiPxPerInch, 96, 96)
	if err != nil {
		return nil, fmt.Errorf("unable to encode image for fixed layout: %w", err)
	}
	return out, nil
}

func flattenOverWhite(img image.Image) *image.RGBA {
	flat := image.NewRGBA(img.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
	return flat
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func sniffFormat(data []byte) string {
	if t, err := filetype.Match(data); err == nil && t.Extension != "unknown" {
		return t.Extension
	}
	// filetype does not know text based formats
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.Contains(head, []byte("<svg")) || bytes.Contains(head, []byte("<?xml")) {
		return "svg"
	}
	return ""
}

func displayWidthFor(b *doc.Block, cfg *config.ImagesConfig) float64 {
	if b.Width > 0 {
		return b.Width
	}
	size := config.ImageSizeMedium
	if b.Size != "" {
		if parsed, err := config.ParseImageSize(b.Size); err == nil {
			size = parsed
		}
	}
	switch size {
	case config.ImageSizeSmall:
		return cfg.SmallWidth
	case config.ImageSizeLarge:
		return cfg.LargeWidth
	default:
		return cfg.MediumWidth
	}
}
