package content

import (
	"reflect"
	"testing"

	"idg/doc"
)

func TestSplitRuns(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		spans []doc.EmphasisSpan
		want  []TextRun
	}{
		{
			name: "no spans",
			text: "plain text",
			want: []TextRun{{Text: "plain text"}},
		},
		{
			name:  "middle bold",
			text:  "a bold b",
			spans: []doc.EmphasisSpan{{Start: 2, End: 6, Bold: true}},
			want: []TextRun{
				{Text: "a "},
				{Text: "bold", Bold: true},
				{Text: " b"},
			},
		},
		{
			name: "overlapping bold and italic",
			text: "abcdef",
			spans: []doc.EmphasisSpan{
				{Start: 0, End: 4, Bold: true},
				{Start: 2, End: 6, Italic: true},
			},
			want: []TextRun{
				{Text: "ab", Bold: true},
				{Text: "cd", Bold: true, Italic: true},
				{Text: "ef", Italic: true},
			},
		},
		{
			name:  "out of bounds clamped",
			text:  "abc",
			spans: []doc.EmphasisSpan{{Start: -5, End: 100, Italic: true}},
			want:  []TextRun{{Text: "abc", Italic: true}},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitRuns(tc.text, tc.spans)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SplitRuns() = %#v, want %#v", got, tc.want)
			}
		})
	}
}
