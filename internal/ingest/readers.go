package ingest

// readers.go provides io.Reader wrappers that clean up common CSV artifacts
// before parsing, without loading the whole file first:
//
//   - BOMSkippingReader removes the UTF-8 BOM Windows tools prepend.
//   - UTF8SanitizingReader replaces invalid UTF-8 bytes with '?'.
//
// DecodeAll composes both and enforces the caller's size cap.

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrFileTooLarge is returned by DecodeAll when the input exceeds the cap.
var ErrFileTooLarge = errors.New("file too large")

// BOMSkippingReader wraps an io.Reader and skips a leading UTF-8 BOM
// (0xEF 0xBB 0xBF) if present.
type BOMSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte
	bufData    []byte
	bufOffset  int
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. The first read checks for and drops the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if n == 0 {
			return 0, err
		}

		if n >= 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			r.bufData = nil
		} else {
			r.bufData = r.buf[:n]
			r.bufOffset = 0
		}

		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}

	if len(r.bufData) > r.bufOffset {
		copied := copy(p, r.bufData[r.bufOffset:])
		r.bufOffset += copied
		if r.bufOffset >= len(r.bufData) {
			r.bufData = nil
		}
		return copied, nil
	}

	return r.reader.Read(p)
}

// UTF8SanitizingReader wraps an io.Reader and replaces invalid UTF-8 bytes
// with '?'. A single-byte replacement keeps the output no longer than the
// input, so sanitization happens in place in the read buffer.
type UTF8SanitizingReader struct {
	reader  io.Reader
	pending []byte
}

// NewUTF8SanitizingReader creates a new sanitizing reader.
func NewUTF8SanitizingReader(r io.Reader) *UTF8SanitizingReader {
	return &UTF8SanitizingReader{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *UTF8SanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isAllASCII(p[:n]) {
		return n, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

// isAllASCII is the fast path: most CSV data never leaves ASCII.
func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place, replacing invalid bytes with '?'.
// Incomplete trailing sequences are held back for the next read unless atEOF.
func (s *UTF8SanitizingReader) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])

		if !atEOF && read+size >= len(data) && isIncompleteRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}

		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// runeLen returns the expected byte length of a UTF-8 sequence starting
// with b, or 0 for a continuation byte.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// isIncompleteRune reports whether data could be the prefix of a multi-byte
// sequence whose continuation bytes have not arrived yet.
func isIncompleteRune(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return runeLen(data[0]) > len(data)
}

// DecodeAll reads r fully through the BOM and UTF-8 cleanup wrappers,
// rejecting input larger than maxBytes.
func DecodeAll(r io.Reader, maxBytes int64) (string, error) {
	clean := NewUTF8SanitizingReader(NewBOMSkippingReader(r))

	var b strings.Builder
	n, err := io.Copy(&b, io.LimitReader(clean, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if n > maxBytes {
		return "", ErrFileTooLarge
	}
	return b.String(), nil
}
