package convert

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func isUTF32BigEndianBOM4(buf []byte) bool {
	return buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func isUTF8BOM3(buf []byte) bool {
	return buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE
}

// detectUTF sniffs BOM at the beginning of the buffer. Note that UTF32LE check
// must happen before UTF16LE - the marks overlap.
func detectUTF(buf []byte) srcEncoding {
	if len(buf) >= 4 {
		if isUTF32BigEndianBOM4(buf) {
			return encUTF32BigEndian
		}
		if isUTF32LittleEndianBOM4(buf) {
			return encUTF32LittleEndian
		}
	}
	if len(buf) >= 3 && isUTF8BOM3(buf) {
		return encUTF8
	}
	if len(buf) >= 2 {
		if isUTF16BigEndianBOM2(buf) {
			return encUTF16BigEndian
		}
		if isUTF16LittleEndianBOM2(buf) {
			return encUTF16LittleEndian
		}
	}
	return encUnknown
}

// selectReader wraps the reader with a decoding transformer when the source
// carries a BOM. The JSON decoder insists on plain UTF-8.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return unicode.UTF8BOM.NewDecoder().Reader(r)
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	default:
		// this should never happen
		panic("unsupported encoding requested")
	}
}

// looksLikeDocument checks that past an optional BOM the payload starts with a
// JSON object opener. Cheap sanity filter, full validation happens at parse.
func looksLikeDocument(buf []byte, enc srcEncoding) bool {
	switch enc {
	case encUTF8:
		buf = buf[3:]
	case encUTF16BigEndian, encUTF16LittleEndian:
		buf = decodeSample(buf, enc)
	case encUTF32BigEndian, encUTF32LittleEndian:
		buf = decodeSample(buf, enc)
	}
	trimmed := bytes.TrimLeft(buf, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func decodeSample(buf []byte, enc srcEncoding) []byte {
	out, err := io.ReadAll(selectReader(bytes.NewReader(buf), enc))
	if err != nil {
		return nil
	}
	return out
}

// isDocFile checks if file is a document request and detects its encoding.
func isDocFile(path string) (ok bool, enc srcEncoding, err error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return false, encUnknown, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, encUnknown, err
	}
	buf = buf[:n]

	enc = detectUTF(buf)
	return looksLikeDocument(buf, enc), enc, nil
}

// isDocInArchive checks if file inside zip archive is a document request.
func isDocInArchive(f *zip.File) (ok bool, enc srcEncoding, err error) {
	if !strings.EqualFold(filepath.Ext(f.FileHeader.Name), ".json") {
		return false, encUnknown, nil
	}

	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, encUnknown, err
	}
	buf = buf[:n]

	enc = detectUTF(buf)
	return looksLikeDocument(buf, enc), enc, nil
}

// isArchiveFile checks if file is a zip archive worth looking into.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 262)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.IsArchive(buf[:n]), nil
}
