package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
)

// writer accumulates numbered indirect objects and serializes them with a
// classic cross-reference table. Object numbers are handed out sequentially
// starting from 1; an object may be reserved first and filled in later, which
// is how the circular pages tree is assembled.
type writer struct {
	objs [][]byte
}

func newWriter() *writer {
	return &writer{}
}

// reserve allocates an object number without a body.
func (w *writer) reserve() int {
	w.objs = append(w.objs, nil)
	return len(w.objs)
}

// set fills a previously reserved object.
func (w *writer) set(id int, body []byte) {
	w.objs[id-1] = body
}

// add allocates and fills an object in one step.
func (w *writer) add(body []byte) int {
	w.objs = append(w.objs, body)
	return len(w.objs)
}

// addStream writes a flate-compressed stream object.
func (w *writer) addStream(dict string, data []byte) (int, error) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(data); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}

	var body bytes.Buffer
	fmt.Fprintf(&body, "<< %s /Filter /FlateDecode /Length %d >>\nstream\n", dict, compressed.Len())
	body.Write(compressed.Bytes())
	body.WriteString("\nendstream")
	return w.add(body.Bytes()), nil
}

// addRawStream writes a stream object without recompression, used for DCT
// encoded image data.
func (w *writer) addRawStream(dict string, data []byte) int {
	var body bytes.Buffer
	fmt.Fprintf(&body, "<< %s /Length %d >>\nstream\n", dict, len(data))
	body.Write(data)
	body.WriteString("\nendstream")
	return w.add(body.Bytes())
}

// serialize produces the complete file with root as the document catalog.
func (w *writer) serialize(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n")

	offsets := make([]int, len(w.objs))
	for i, obj := range w.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(obj)
		buf.WriteString("\nendobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(w.objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(w.objs)+1, root, xref)
	return buf.Bytes()
}
