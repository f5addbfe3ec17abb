package doc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Wire form of a generation request. Historically lenient in a few places:
// keywords may be a comma separated string or a list, references may be plain
// strings or objects, image payloads may carry a data URI prefix.
type (
	wireDocument struct {
		Title      string          `json:"title"`
		Abstract   string          `json:"abstract"`
		Keywords   json.RawMessage `json:"keywords"`
		Authors    []wireAuthor    `json:"authors"`
		Sections   []wireSection   `json:"sections"`
		Tables     []wireBlock     `json:"tables"`
		References json.RawMessage `json:"references"`
	}

	wireAuthor struct {
		Name         string `json:"name"`
		Organization string `json:"organization"`
		Affiliation  string `json:"affiliation"`
		Email        string `json:"email"`
	}

	wireSection struct {
		Title         string      `json:"title"`
		ContentBlocks []wireBlock `json:"contentBlocks"`
	}

	wireBlock struct {
		Type      string          `json:"type"`
		Order     int             `json:"order"`
		Content   string          `json:"content"`
		Emphasis  []EmphasisSpan  `json:"emphasis"`
		Caption   string          `json:"caption"`
		TableName string          `json:"tableName"`
		TableType string          `json:"tableType"`
		Headers   []string        `json:"headers"`
		TableData [][]string      `json:"tableData"`
		Data      string          `json:"data"`
		Size      string          `json:"size"`
		Width     float64         `json:"width"`
		Latex     string          `json:"latex"`
		EqNumber  json.RawMessage `json:"equationNumber"`
	}

	wireReference struct {
		Text string `json:"text"`
	}
)

// ParseJSON decodes a generation request into the document model. Shape
// problems which cannot be repaired without corrupting data (unknown block
// type, non-rectangular table) are returned as errors; lenient wire quirks
// are normalized silently.
func ParseJSON(r io.Reader, log *zap.Logger) (*Document, error) {
	var wire wireDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("unable to decode document request: %w", err)
	}

	d := &Document{
		Title:    strings.TrimSpace(wire.Title),
		Abstract: strings.TrimSpace(wire.Abstract),
	}

	for _, a := range wire.Authors {
		org := a.Organization
		if org == "" {
			org = a.Affiliation
		}
		d.Authors = append(d.Authors, Author{
			Name:         strings.TrimSpace(a.Name),
			Organization: strings.TrimSpace(org),
			Email:        strings.TrimSpace(a.Email),
		})
	}

	d.Keywords = parseKeywords(wire.Keywords)
	d.References = parseReferences(wire.References, log)

	for si, ws := range wire.Sections {
		sec, err := parseSection(ws, log)
		if err != nil {
			return nil, fmt.Errorf("section %d (%q): %w", si+1, ws.Title, err)
		}
		d.Sections = append(d.Sections, sec)
	}

	// Standalone top-level tables predate per-section content blocks. They
	// are folded into a synthetic trailing section so they get stable
	// caption labels like everything else.
	if len(wire.Tables) > 0 {
		sec := Section{Title: "Supplementary Tables"}
		for ti, wb := range wire.Tables {
			wb.Type = "table"
			b, err := parseBlock(wb, ti)
			if err != nil {
				return nil, fmt.Errorf("standalone table %d: %w", ti+1, err)
			}
			sec.Blocks = append(sec.Blocks, b)
		}
		d.Sections = append(d.Sections, sec)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseSection(ws wireSection, log *zap.Logger) (Section, error) {
	sec := Section{Title: strings.TrimSpace(ws.Title)}
	for bi, wb := range ws.ContentBlocks {
		b, err := parseBlock(wb, bi)
		if err != nil {
			return Section{}, fmt.Errorf("block %d: %w", bi+1, err)
		}
		sec.Blocks = append(sec.Blocks, b)
	}
	// Blocks carry an explicit order field, ties keep input order.
	sort.SliceStable(sec.Blocks, func(i, j int) bool {
		return sec.Blocks[i].Order < sec.Blocks[j].Order
	})
	if log != nil {
		log.Debug("Parsed section", zap.String("title", sec.Title), zap.Int("blocks", len(sec.Blocks)))
	}
	return sec, nil
}

func parseBlock(wb wireBlock, index int) (Block, error) {
	b := Block{
		Order:   wb.Order,
		Caption: strings.TrimSpace(wb.Caption),
	}
	if b.Order == 0 {
		b.Order = index + 1
	}

	switch wb.Type {
	case "text", "paragraph":
		b.Kind = BlockParagraph
		b.Text = wb.Content
		b.Emphasis = wb.Emphasis
	case "table":
		b.Kind = BlockTable
		b.TableName = strings.TrimSpace(wb.TableName)
		b.Headers = wb.Headers
		b.Rows = wb.TableData
	case "image":
		b.Kind = BlockImage
		b.Size = strings.TrimSpace(wb.Size)
		b.Width = wb.Width
		data, err := decodeImagePayload(wb.Data)
		if err != nil {
			return Block{}, fmt.Errorf("image payload: %w", err)
		}
		b.Data = data
	case "equation":
		b.Kind = BlockEquation
		b.Latex = wb.Latex
		if b.Latex == "" {
			b.Latex = wb.Content
		}
		if n, ok := parseEquationNumber(wb.EqNumber); ok {
			b.EqNum, b.HasNum = n, true
		}
	default:
		return Block{}, fmt.Errorf("unknown block type %q", wb.Type)
	}
	return b, nil
}

func decodeImagePayload(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}
	// data URI prefix is optional
	if strings.HasPrefix(data, "data:") {
		if idx := strings.Index(data, ","); idx >= 0 {
			data = data[idx+1:]
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	return decoded, nil
}

func parseEquationNumber(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func parseKeywords(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanKeywords(list)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return cleanKeywords(strings.Split(s, ","))
	}
	return nil
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseReferences(raw json.RawMessage, log *zap.Logger) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanKeywords(list)
	}
	var objs []wireReference
	if err := json.Unmarshal(raw, &objs); err == nil {
		out := make([]string, 0, len(objs))
		for _, o := range objs {
			if t := strings.TrimSpace(o.Text); t != "" {
				out = append(out, t)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	if log != nil {
		log.Warn("Unrecognized references format, ignoring")
	}
	return nil
}
