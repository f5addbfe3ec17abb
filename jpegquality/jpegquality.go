// Package jpegquality estimates the quality setting a JPEG was encoded with
// by inverting the IJG quantization table scaling. The estimate is used to
// avoid recompressing images that are already below the requested quality.
package jpegquality

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var ErrInvalidJPEG = errors.New("invalid jpeg data")

// Standard IJG luminance quantization table in zigzag order.
var stdLuminance = [64]int{
	16, 11, 12, 14, 12, 10, 16, 14,
	13, 14, 18, 17, 16, 19, 24, 40,
	26, 24, 22, 22, 24, 49, 35, 37,
	29, 40, 58, 51, 61, 60, 57, 51,
	56, 55, 64, 72, 92, 78, 64, 68,
	87, 69, 55, 56, 80, 109, 81, 87,
	95, 98, 103, 104, 103, 62, 77, 113,
	121, 112, 100, 120, 92, 101, 103, 99,
}

// Reader holds the quality estimate for one JPEG stream.
type Reader struct {
	quality int
}

// New reads the whole stream and estimates its encoding quality.
func New(r io.Reader) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewWithBytes(data)
}

// NewWithBytes estimates encoding quality of an in-memory JPEG.
func NewWithBytes(data []byte) (*Reader, error) {
	table, err := luminanceTable(data)
	if err != nil {
		return nil, err
	}
	return &Reader{quality: estimate(table)}, nil
}

// Quality returns the estimated encoder quality setting, 1..100.
func (r *Reader) Quality() int {
	return r.quality
}

// luminanceTable walks JPEG marker segments and returns the first
// quantization table with destination 0.
func luminanceTable(data []byte) ([64]int, error) {
	var table [64]int

	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return table, ErrInvalidJPEG
	}

	buf := bytes.NewReader(data[2:])
	for {
		marker, err := nextMarker(buf)
		if err != nil {
			return table, ErrInvalidJPEG
		}
		switch {
		case marker == 0xD9 || marker == 0xDA:
			// EOI or SOS without DQT seen
			return table, ErrInvalidJPEG
		case marker >= 0xD0 && marker <= 0xD7:
			continue // RSTn, no payload
		}

		var length uint16
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil || length < 2 {
			return table, ErrInvalidJPEG
		}
		payload := make([]byte, int(length)-2)
		if _, err := io.ReadFull(buf, payload); err != nil {
			return table, ErrInvalidJPEG
		}

		if marker != 0xDB {
			continue
		}

		// DQT segment may hold several tables
		for off := 0; off < len(payload); {
			pq := payload[off] >> 4
			tq := payload[off] & 0x0F
			off++
			width := 1
			if pq == 1 {
				width = 2
			}
			if off+64*width > len(payload) {
				return table, ErrInvalidJPEG
			}
			if tq == 0 {
				for i := range 64 {
					if width == 2 {
						table[i] = int(binary.BigEndian.Uint16(payload[off+i*2:]))
					} else {
						table[i] = int(payload[off+i])
					}
				}
				return table, nil
			}
			off += 64 * width
		}
	}
}

func nextMarker(buf *bytes.Reader) (byte, error) {
	for {
		b, err := buf.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xFF {
			continue
		}
		for {
			m, err := buf.ReadByte()
			if err != nil {
				return 0, err
			}
			if m == 0xFF {
				continue // fill byte
			}
			if m == 0x00 {
				break // stuffed byte inside entropy coded data
			}
			return m, nil
		}
	}
}

// estimate inverts the IJG scaling formula: an encoder derives each
// coefficient as clamp((std*scale+50)/100) where scale is 5000/q for q<50
// and 200-2q otherwise. The average observed scale across all coefficients
// gives a stable quality estimate.
func estimate(table [64]int) int {
	var sum, count float64
	for i := range 64 {
		if table[i] <= 0 || stdLuminance[i] == 0 {
			continue
		}
		sum += float64(table[i]) * 100.0 / float64(stdLuminance[i])
		count++
	}
	if count == 0 {
		return 100
	}
	scale := sum / count

	var q float64
	if scale <= 100 {
		q = (200 - scale) / 2
	} else {
		q = 5000 / scale
	}
	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	}
	return int(q + 0.5)
}
