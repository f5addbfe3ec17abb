package pdf

import (
	"bytes"
	"fmt"

	"idg/config"
	"idg/content"
	"idg/eqn"
)

const cellPad = 3.0

type page struct {
	content bytes.Buffer
	images  map[string]int // resource name -> object ref
}

// layout walks prepared content top-down through a sequence of pages. The
// origin is bottom-left per the page coordinate model, so the cursor starts at
// the top margin and descends.
type layout struct {
	cfg    *config.DocumentConfig
	direct bool

	pages []*page
	cur   *page
	y     float64

	imageNames map[*content.PreparedImage]string
	imageRefs  map[string]int
	imageSeq   int
}

func newLayout(cfg *config.DocumentConfig, direct bool) *layout {
	l := &layout{
		cfg:        cfg,
		direct:     direct,
		imageNames: make(map[*content.PreparedImage]string),
		imageRefs:  make(map[string]int),
	}
	l.newPage()
	return l
}

func (l *layout) newPage() {
	l.cur = &page{images: make(map[string]int)}
	l.pages = append(l.pages, l.cur)
	l.y = l.cfg.Page.Height - l.cfg.Page.Margin
}

func (l *layout) contentWidth() float64 {
	return l.cfg.Page.Width - 2*l.cfg.Page.Margin
}

// ensure makes room for a block of the given height, breaking the page when
// it does not fit. Blocks taller than a whole page stay on their own page and
// run off the bottom.
func (l *layout) ensure(h float64) {
	if l.y-h < l.cfg.Page.Margin && l.y < l.cfg.Page.Height-l.cfg.Page.Margin {
		l.newPage()
	}
}

func (l *layout) spacer(h float64) {
	l.y -= h
}

func escapeString(b []byte) []byte {
	var out bytes.Buffer
	for _, c := range b {
		switch c {
		case '(', ')', '\\':
			out.WriteByte('\\')
			out.WriteByte(c)
		case '\r':
			out.WriteString(`\r`)
		default:
			out.WriteByte(c)
		}
	}
	return out.Bytes()
}

// showLine draws one line of segments starting at x with optional extra word
// spacing for justification.
func (l *layout) showLine(segs []seg, x, baseline, wordSpacing float64) {
	fmt.Fprintf(&l.cur.content, "BT\n1 0 0 1 %.2f %.2f Tm\n", x, baseline)
	if wordSpacing > 0 {
		fmt.Fprintf(&l.cur.content, "%.3f Tw\n", wordSpacing)
	}
	for _, s := range segs {
		fmt.Fprintf(&l.cur.content, "/%s %.1f Tf\n", s.face.resourceName(), s.size)
		fmt.Fprintf(&l.cur.content, "(%s) Tj\n", escapeString(s.bytes))
	}
	if wordSpacing > 0 {
		l.cur.content.WriteString("0 Tw\n")
	}
	l.cur.content.WriteString("ET\n")
}

// word is the unit of line breaking.
type word struct {
	segs  []seg
	width float64
}

// splitWords turns styled runs into words, merging style boundaries that fall
// inside a word.
func splitWords(runs []content.TextRun, size float64) []word {
	var words []word
	var curr []seg

	flush := func() {
		if len(curr) == 0 {
			return
		}
		words = append(words, word{segs: curr, width: segsWidth(curr)})
		curr = nil
	}

	for _, run := range runs {
		f := pickFace(run.Bold, run.Italic)
		start := 0
		for i, r := range run.Text {
			if r != ' ' {
				continue
			}
			if i > start {
				curr = append(curr, encodeText(run.Text[start:i], f, size)...)
			}
			flush()
			start = i + 1
		}
		if start < len(run.Text) {
			curr = append(curr, encodeText(run.Text[start:], f, size)...)
		}
	}
	flush()
	return words
}

// flowText wraps runs into lines at the current cursor. Alignment is one of
// "left", "center" or "justify"; the last line of a justified paragraph stays
// left aligned.
func (l *layout) flowText(runs []content.TextRun, size, leading float64, align string) {
	words := splitWords(runs, size)
	if len(words) == 0 {
		return
	}
	if l.direct && align == "justify" {
		align = "left"
	}

	spaceW := float64(timesWidths[0]) * size / 1000
	maxW := l.contentWidth()

	var line []word
	var lineW float64

	emit := func(last bool) {
		if len(line) == 0 {
			return
		}
		l.ensure(leading)
		l.y -= leading
		baseline := l.y

		segs := make([]seg, 0, len(line)*2)
		for i, wd := range line {
			if i > 0 {
				segs = append(segs, seg{face: wd.segs[0].face, size: size, bytes: []byte{' '}})
			}
			segs = append(segs, wd.segs...)
		}
		natural := lineW + spaceW*float64(len(line)-1)

		x := l.cfg.Page.Margin
		var ws float64
		switch align {
		case "center":
			x += (maxW - natural) / 2
		case "justify":
			if !last && len(line) > 1 {
				ws = (maxW - natural) / float64(len(line)-1)
			}
		}
		l.showLine(segs, x, baseline, ws)
		line, lineW = nil, 0
	}

	for _, wd := range words {
		needed := lineW + wd.width
		if len(line) > 0 {
			needed += spaceW * float64(len(line))
		}
		if len(line) > 0 && needed > maxW {
			emit(false)
		}
		line = append(line, wd)
		lineW += wd.width
	}
	emit(true)
}

// line draws a single unwrapped centered or left line, used for headings and
// captions.
func (l *layout) line(text string, f face, size, leading float64, center bool) {
	segs := encodeText(text, f, size)
	if len(segs) == 0 {
		return
	}
	l.ensure(leading)
	l.y -= leading
	x := l.cfg.Page.Margin
	if center {
		x += (l.contentWidth() - segsWidth(segs)) / 2
	}
	l.showLine(segs, x, l.y, 0)
}

// equationLine centers the italic equation body and its number, set in the
// regular face at the number size, on a shared baseline.
func (l *layout) equationLine(eq eqn.Result) {
	t := &l.cfg.Typography
	segs := encodeText(eq.Text, faceItalic, t.EquationSize)
	if eq.Number != "" {
		segs = append(segs, encodeText("  "+eq.Number, faceRegular, t.EquationNumberSize)...)
	}
	if len(segs) == 0 {
		return
	}
	l.ensure(t.LineSpacing)
	l.y -= t.LineSpacing
	x := l.cfg.Page.Margin + (l.contentWidth()-segsWidth(segs))/2
	l.showLine(segs, x, l.y, 0)
}

// table draws a ruled grid with a header row. Columns take their natural
// width and are scaled down proportionally when the table would overflow.
func (l *layout) table(headers []string, rows [][]string, cols int) {
	t := &l.cfg.Typography
	rowH := t.LineSpacing + 2*cellPad

	widths := make([]float64, cols)
	measure := func(cells []string) {
		for i, cell := range cells {
			if i >= cols {
				break
			}
			w := segsWidth(encodeText(cell, faceBold, t.BodySize)) + 2*cellPad
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	if len(headers) > 0 {
		measure(headers)
	}
	for _, row := range rows {
		measure(row)
	}

	var total float64
	for _, w := range widths {
		total += w
	}
	if total > l.contentWidth() {
		scale := l.contentWidth() / total
		for i := range widths {
			widths[i] *= scale
		}
		total = l.contentWidth()
	}

	nRows := len(rows)
	if len(headers) > 0 {
		nRows++
	}
	height := float64(nRows) * rowH
	l.ensure(height)

	x0 := l.cfg.Page.Margin
	if !l.direct {
		x0 += (l.contentWidth() - total) / 2
	}
	top := l.y

	// grid
	l.cur.content.WriteString("0.5 w\n")
	for r := 0; r <= nRows; r++ {
		y := top - float64(r)*rowH
		fmt.Fprintf(&l.cur.content, "%.2f %.2f m %.2f %.2f l S\n", x0, y, x0+total, y)
	}
	x := x0
	for c := 0; c <= cols; c++ {
		fmt.Fprintf(&l.cur.content, "%.2f %.2f m %.2f %.2f l S\n", x, top, x, top-height)
		if c < cols {
			x += widths[c]
		}
	}

	// cells
	drawRow := func(cells []string, rowTop float64, header bool) {
		baseline := rowTop - cellPad - t.BodySize*0.8
		x := x0
		for i := 0; i < cols && i < len(cells); i++ {
			f := faceRegular
			if header {
				f = faceBold
			}
			segs := encodeText(cells[i], f, t.BodySize)
			tx := x + cellPad
			if header {
				tx = x + (widths[i]-segsWidth(segs))/2
			}
			l.showLine(segs, tx, baseline, 0)
			x += widths[i]
		}
	}

	rowTop := top
	if len(headers) > 0 {
		drawRow(headers, rowTop, true)
		rowTop -= rowH
	}
	for _, row := range rows {
		drawRow(row, rowTop, false)
		rowTop -= rowH
	}

	l.y = top - height
}

// image places a previously registered XObject centered at the cursor.
func (l *layout) image(img *content.PreparedImage) {
	name := l.imageNames[img]
	if name == "" {
		return
	}
	l.ensure(img.DisplayH)
	l.y -= img.DisplayH

	x := l.cfg.Page.Margin
	if !l.direct {
		x += (l.contentWidth() - img.DisplayW) / 2
	}
	fmt.Fprintf(&l.cur.content, "q\n%.2f 0 0 %.2f %.2f %.2f cm\n/%s Do\nQ\n", img.DisplayW, img.DisplayH, x, l.y, name)
	l.cur.images[name] = l.imageRefs[name]
}
