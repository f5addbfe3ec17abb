package pdf

import (
	"golang.org/x/text/encoding/charmap"
)

// The fixed-layout backend uses the standard Type1 core fonts, so no font
// programs are embedded and text must be reduced to WinAnsi (with a Symbol
// font detour for Greek and operators). Glyphs outside both encodings degrade
// to a question mark - best achievable, not perfect.

type face int

const (
	faceRegular face = iota
	faceBold
	faceItalic
	faceBoldItalic
	faceSymbol
)

func (f face) resourceName() string {
	switch f {
	case faceBold:
		return "F2"
	case faceItalic:
		return "F3"
	case faceBoldItalic:
		return "F4"
	case faceSymbol:
		return "F5"
	default:
		return "F1"
	}
}

func (f face) baseFont() string {
	switch f {
	case faceBold:
		return "Times-Bold"
	case faceItalic:
		return "Times-Italic"
	case faceBoldItalic:
		return "Times-BoldItalic"
	case faceSymbol:
		return "Symbol"
	default:
		return "Times-Roman"
	}
}

func pickFace(bold, italic bool) face {
	switch {
	case bold && italic:
		return faceBoldItalic
	case bold:
		return faceBold
	case italic:
		return faceItalic
	default:
		return faceRegular
	}
}

// timesWidths holds glyph widths for ASCII 32..126 in 1/1000 em.
var timesWidths = [95]int{
	250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
	500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278, 564, 564, 564, 444,
	921, 722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889, 722, 722,
	556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611, 333, 278, 333, 469, 500,
	333, 444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778, 500, 500,
	500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541,
}

var timesBoldWidths = [95]int{
	250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333, 250, 278,
	500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 333, 333, 570, 570, 570, 500,
	930, 722, 667, 722, 722, 667, 611, 778, 778, 389, 500, 778, 667, 944, 722, 778,
	611, 778, 722, 556, 667, 722, 722, 1000, 722, 722, 667, 333, 278, 333, 581, 500,
	333, 500, 556, 444, 556, 444, 333, 500, 556, 278, 333, 556, 278, 833, 556, 500,
	556, 556, 444, 389, 333, 556, 500, 722, 500, 500, 444, 394, 220, 394, 520,
}

// symbolGlyph maps a Unicode code point onto the standard Symbol font
// encoding together with its approximate advance width.
type symbolGlyph struct {
	code  byte
	width int
}

var symbolGlyphs = map[rune]symbolGlyph{
	'α': {0x61, 631}, 'β': {0x62, 549}, 'γ': {0x67, 411}, 'δ': {0x64, 494},
	'ε': {0x65, 439}, 'θ': {0x71, 521}, 'λ': {0x6C, 549}, 'μ': {0x6D, 576},
	'π': {0x70, 549}, 'σ': {0x73, 603}, 'φ': {0x66, 521}, 'ω': {0x77, 686},
	'Δ': {0x44, 612}, 'Σ': {0x53, 592}, 'Ω': {0x57, 768},
	'∞': {0xA5, 713}, '±': {0xB1, 549}, '≤': {0xA3, 549}, '≥': {0xB3, 549},
	'≠': {0xB9, 549}, '≈': {0xBB, 549}, '≡': {0xBA, 549}, '×': {0xB4, 549},
	'÷': {0xB8, 549}, '∑': {0xE5, 713}, '∫': {0xF2, 274}, '∂': {0xB6, 494},
	'∇': {0xD1, 713}, '√': {0xD6, 549},
}

// seg is a stretch of text that renders with one face in one encoding.
type seg struct {
	face  face
	size  float64
	bytes []byte
}

var winAnsi = charmap.Windows1252

// encodeText reduces a Unicode string to a sequence of single-encoding
// segments. WinAnsi covers most of it; Greek letters and math operators route
// through the Symbol font; everything else becomes '?'.
func encodeText(text string, f face, size float64) []seg {
	var segs []seg
	push := func(fc face, b byte) {
		if n := len(segs); n > 0 && segs[n-1].face == fc {
			segs[n-1].bytes = append(segs[n-1].bytes, b)
			return
		}
		segs = append(segs, seg{face: fc, size: size, bytes: []byte{b}})
	}

	for _, r := range text {
		if b, ok := winAnsi.EncodeRune(r); ok {
			push(f, b)
			continue
		}
		if g, ok := symbolGlyphs[r]; ok {
			push(faceSymbol, g.code)
			continue
		}
		push(f, '?')
	}
	return segs
}

// glyphWidth returns the advance width in 1/1000 em for an encoded byte.
func glyphWidth(f face, b byte) int {
	if f == faceSymbol {
		for _, g := range symbolGlyphs {
			if g.code == b {
				return g.width
			}
		}
		return 600
	}
	if b < 32 || b > 126 {
		return 500
	}
	if f == faceBold || f == faceBoldItalic {
		return timesBoldWidths[b-32]
	}
	return timesWidths[b-32]
}

// segWidth measures a segment in points.
func segWidth(s seg) float64 {
	total := 0
	for _, b := range s.bytes {
		total += glyphWidth(s.face, b)
	}
	return float64(total) * s.size / 1000
}

func segsWidth(segs []seg) float64 {
	var w float64
	for _, s := range segs {
		w += segWidth(s)
	}
	return w
}
