package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

func encoderFor(enc srcEncoding) encoding.Encoding {
	switch enc {
	case encUTF8:
		return unicode.UTF8BOM
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.UseBOM)
	default:
		return nil
	}
}

func encodeSample(t *testing.T, text string, enc srcEncoding) []byte {
	t.Helper()
	e := encoderFor(enc)
	if e == nil {
		return []byte(text)
	}
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, e.NewEncoder())
	if _, err := io.WriteString(w, text); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectUTF(t *testing.T) {
	const sample = `{"title": "probe"}`

	cases := []struct {
		name string
		enc  srcEncoding
	}{
		{"none", encUnknown},
		{"utf8", encUTF8},
		{"utf16be", encUTF16BigEndian},
		{"utf16le", encUTF16LittleEndian},
		{"utf32be", encUTF32BigEndian},
		{"utf32le", encUTF32LittleEndian},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := encodeSample(t, sample, tc.enc)
			if got := detectUTF(buf); got != tc.enc {
				t.Errorf("detectUTF = %d, want %d", got, tc.enc)
			}
		})
	}
}

func TestDetectUTFShortBuffers(t *testing.T) {
	for _, buf := range [][]byte{nil, {0xFF}, {0xEF, 0xBB}} {
		if got := detectUTF(buf); got != encUnknown {
			t.Errorf("detectUTF(%v) = %d, want unknown", buf, got)
		}
	}
	// UTF32LE mark starts with the UTF16LE mark, longer one must win
	if got := detectUTF([]byte{0xFF, 0xFE, 0x00, 0x00}); got != encUTF32LittleEndian {
		t.Errorf("detectUTF overlap = %d, want utf32le", got)
	}
}

func TestSelectReader(t *testing.T) {
	const sample = `{"title": "π in the sky"}`

	for _, enc := range []srcEncoding{encUnknown, encUTF8, encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian} {
		buf := encodeSample(t, sample, enc)
		got, err := io.ReadAll(selectReader(bytes.NewReader(buf), enc))
		if err != nil {
			t.Fatalf("enc %d: %v", enc, err)
		}
		if string(got) != sample {
			t.Errorf("enc %d: decoded %q, want %q", enc, got, sample)
		}
	}
}

func TestLooksLikeDocument(t *testing.T) {
	cases := []struct {
		name string
		text string
		enc  srcEncoding
		want bool
	}{
		{"plain", `{"title": "x"}`, encUnknown, true},
		{"leading space", "\n\t {\"a\": 1}", encUnknown, true},
		{"utf16", `{"title": "x"}`, encUTF16LittleEndian, true},
		{"utf32", `{"title": "x"}`, encUTF32BigEndian, true},
		{"array", `[1, 2]`, encUnknown, false},
		{"text", "just some text", encUnknown, false},
		{"empty", "", encUnknown, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := encodeSample(t, tc.text, tc.enc)
			if got := looksLikeDocument(buf, tc.enc); got != tc.want {
				t.Errorf("looksLikeDocument = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsDocFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "request.json")
	if err := os.WriteFile(good, encodeSample(t, `{"title": "x"}`, encUTF16LittleEndian), 0644); err != nil {
		t.Fatal(err)
	}
	ok, enc, err := isDocFile(good)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || enc != encUTF16LittleEndian {
		t.Errorf("isDocFile = %v, %d", ok, enc)
	}

	wrongExt := filepath.Join(dir, "request.txt")
	if err := os.WriteFile(wrongExt, []byte(`{"title": "x"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if ok, _, err := isDocFile(wrongExt); err != nil || ok {
		t.Errorf("wrong extension accepted: %v, %v", ok, err)
	}

	notJSON := filepath.Join(dir, "noise.json")
	if err := os.WriteFile(notJSON, []byte("not a request"), 0644); err != nil {
		t.Fatal(err)
	}
	if ok, _, err := isDocFile(notJSON); err != nil || ok {
		t.Errorf("non JSON content accepted: %v, %v", ok, err)
	}
}

func writeTestArchive(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestIsArchiveFile(t *testing.T) {
	dir := t.TempDir()

	arc := filepath.Join(dir, "batch.zip")
	writeTestArchive(t, arc, map[string][]byte{"a.json": []byte(`{"title": "x"}`)})
	ok, err := isArchiveFile(arc)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("real archive not recognized")
	}

	fake := filepath.Join(dir, "fake.zip")
	if err := os.WriteFile(fake, []byte("this is not an archive"), 0644); err != nil {
		t.Fatal(err)
	}
	if ok, err := isArchiveFile(fake); err != nil || ok {
		t.Errorf("fake archive accepted: %v, %v", ok, err)
	}

	if ok, err := isArchiveFile(filepath.Join(dir, "a.json")); err != nil || ok {
		t.Errorf("wrong extension accepted: %v, %v", ok, err)
	}
}

func TestIsDocInArchive(t *testing.T) {
	dir := t.TempDir()
	arc := filepath.Join(dir, "batch.zip")
	writeTestArchive(t, arc, map[string][]byte{
		"good.json":  encodeSample(t, `{"title": "x"}`, encUTF8),
		"noise.json": []byte("plain text"),
		"other.txt":  []byte(`{"title": "x"}`),
	})

	zr, err := zip.OpenReader(arc)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	found := map[string]bool{}
	for _, f := range zr.File {
		ok, enc, err := isDocInArchive(f)
		if err != nil {
			t.Fatal(err)
		}
		found[f.Name] = ok
		if f.Name == "good.json" && enc != encUTF8 {
			t.Errorf("good.json encoding = %d", enc)
		}
	}
	if !found["good.json"] || found["noise.json"] || found["other.txt"] {
		t.Errorf("detection results = %v", found)
	}
}
