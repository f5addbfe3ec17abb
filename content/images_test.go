package content

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"idg/config"
	"idg/doc"
)

func testImagesConfig() *config.ImagesConfig {
	return &config.ImagesConfig{
		Resize:      config.ImageResizeModeKeepAR,
		ScaleFactor: 1.0,
		JPEGQuality: 75,
		SmallWidth:  144,
		MediumWidth: 216,
		LargeWidth:  324,
	}
}

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPrepareImagePNG(t *testing.T) {
	cfg := testImagesConfig()
	b := &doc.Block{Kind: doc.BlockImage, Data: encodePNG(t, 400, 200, color.RGBA{R: 200, G: 50, B: 50, A: 255})}

	img, err := prepareImage(b, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if img.Format != "png" {
		t.Errorf("format = %q, want png", img.Format)
	}
	if img.PixelW != 400 || img.PixelH != 200 {
		t.Errorf("pixel dims = %dx%d", img.PixelW, img.PixelH)
	}
	if img.DisplayW != cfg.MediumWidth {
		t.Errorf("display width = %f, want medium %f", img.DisplayW, cfg.MediumWidth)
	}
	if got, want := img.DisplayH, img.DisplayW/2; got != want {
		t.Errorf("display height = %f, want %f", got, want)
	}
	if len(img.JPEG) == 0 {
		t.Error("fixed layout payload missing")
	}
	// DCT payload must decode on its own
	if _, err := jpeg.Decode(bytes.NewReader(img.JPEG)); err != nil {
		t.Errorf("fixed layout payload does not decode: %v", err)
	}
}

func TestPrepareImageNoUpscale(t *testing.T) {
	cfg := testImagesConfig()
	cfg.LargeWidth = 1000 // far beyond native resolution
	b := &doc.Block{Kind: doc.BlockImage, Size: "large", Data: encodePNG(t, 100, 100, color.White)}

	img, err := prepareImage(b, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if native := 100 * pointsPerPixel; img.DisplayW > native {
		t.Errorf("display width %f exceeds native %f", img.DisplayW, native)
	}
}

func TestPrepareImagePNGTransparency(t *testing.T) {
	data := encodePNG(t, 40, 20, color.NRGBA{R: 200, G: 50, B: 50, A: 128})

	cfg := testImagesConfig()
	img, err := prepareImage(&doc.Block{Kind: doc.BlockImage, Data: data}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Raw))
	if err != nil {
		t.Fatal(err)
	}
	if isOpaque(decoded) {
		t.Error("alpha channel dropped without remove_png_transparency")
	}

	cfg.RemovePNGTransparency = true
	img, err = prepareImage(&doc.Block{Kind: doc.BlockImage, Data: data}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err = png.Decode(bytes.NewReader(img.Raw))
	if err != nil {
		t.Fatal(err)
	}
	if !isOpaque(decoded) {
		t.Error("transparency survived flattening")
	}
}

func TestPrepareImageGarbage(t *testing.T) {
	b := &doc.Block{Kind: doc.BlockImage, Data: []byte("definitely not an image")}
	if _, err := prepareImage(b, testImagesConfig()); err == nil {
		t.Error("expected error for undecodable payload")
	}
}

func TestDisplayWidthFor(t *testing.T) {
	cfg := testImagesConfig()
	cases := []struct {
		name  string
		block doc.Block
		want  float64
	}{
		{"explicit width wins", doc.Block{Width: 300, Size: "small"}, 300},
		{"small", doc.Block{Size: "small"}, cfg.SmallWidth},
		{"large", doc.Block{Size: "large"}, cfg.LargeWidth},
		{"default medium", doc.Block{}, cfg.MediumWidth},
		{"unknown size falls back", doc.Block{Size: "huge"}, cfg.MediumWidth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := displayWidthFor(&tc.block, cfg); got != tc.want {
				t.Errorf("displayWidthFor = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestSniffFormat(t *testing.T) {
	if got := sniffFormat(encodePNG(t, 2, 2, color.White)); got != "png" {
		t.Errorf("png sniffed as %q", got)
	}
	if got := sniffFormat([]byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`)); got != "svg" {
		t.Errorf("svg sniffed as %q", got)
	}
}
