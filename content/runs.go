package content

import "idg/doc"

// TextRun is a maximal stretch of paragraph text with uniform emphasis.
type TextRun struct {
	Text   string
	Bold   bool
	Italic bool
}

// SplitRuns flattens a paragraph's emphasis spans into ordered runs. Spans may
// overlap and arrive in any order; out of bounds spans are clamped.
func SplitRuns(text string, spans []doc.EmphasisSpan) []TextRun {
	if text == "" {
		return nil
	}
	if len(spans) == 0 {
		return []TextRun{{Text: text}}
	}

	const (
		flagBold   = 1
		flagItalic = 2
	)
	flags := make([]byte, len(text))
	for _, s := range spans {
		start, end := max(s.Start, 0), min(s.End, len(text))
		for i := start; i < end; i++ {
			if s.Bold {
				flags[i] |= flagBold
			}
			if s.Italic {
				flags[i] |= flagItalic
			}
		}
	}

	var runs []TextRun
	start := 0
	for i := 1; i <= len(text); i++ {
		if i == len(text) || flags[i] != flags[start] {
			runs = append(runs, TextRun{
				Text:   text[start:i],
				Bold:   flags[start]&flagBold != 0,
				Italic: flags[start]&flagItalic != 0,
			})
			start = i
		}
	}
	return runs
}
