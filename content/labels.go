package content

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upperCaser = cases.Upper(language.English)

// reconcileTableCaption merges the caption field with the deprecated legacy
// table name field into one display string. Policy, in order: neither present
// yields a default, a single value wins, a case-insensitive substring
// relationship picks the longer (more specific) value, unrelated values
// prefer the caption.
func reconcileTableCaption(caption, tableName string, ordinal int) string {
	caption = strings.TrimSpace(caption)
	tableName = strings.TrimSpace(tableName)

	switch {
	case caption == "" && tableName == "":
		return fmt.Sprintf("Data Table %d", ordinal)
	case caption == "":
		return tableName
	case tableName == "":
		return caption
	}

	lc, ln := strings.ToLower(caption), strings.ToLower(tableName)
	if strings.Contains(lc, ln) || strings.Contains(ln, lc) {
		if len(tableName) > len(caption) {
			return tableName
		}
		return caption
	}
	return caption
}

// tableLabel builds the full numbered caption line preceding a table.
func tableLabel(section, ordinal int, text string) string {
	return fmt.Sprintf("TABLE %d.%d: %s", section, ordinal, upperCaser.String(text))
}

// figureLabel builds the full numbered caption line for an image.
func figureLabel(section, ordinal int, text string) string {
	return fmt.Sprintf("FIG. %d.%d: %s", section, ordinal, upperCaser.String(text))
}

// romanUpper converts a 1-based section index to the Roman numeral used in
// section headings.
func romanUpper(n int) string {
	if n <= 0 {
		return ""
	}
	var (
		values   = []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
		numerals = []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
		sb       strings.Builder
	)
	for i, v := range values {
		for n >= v {
			sb.WriteString(numerals[i])
			n -= v
		}
	}
	return sb.String()
}
