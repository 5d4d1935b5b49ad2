package core

// reader.go turns an uploaded byte stream into parseable text.
//
// Import files come from spreadsheets and legacy exports, so two repairs are
// applied while reading:
//
//   - a leading UTF-8 byte order mark (EF BB BF) is dropped
//   - invalid UTF-8 bytes are replaced with '?'
//
// ReadContent also enforces the configured size limit on the raw bytes.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// invalidByteReplacement keeps the output no longer than the input.
const invalidByteReplacement = '?'

// SanitizingReader strips a leading BOM and repairs invalid UTF-8.
type SanitizingReader struct {
	src        *bufio.Reader
	bomChecked bool
	pending    []byte
	buf        [utf8.UTFMax]byte
}

// NewSanitizingReader wraps r.
func NewSanitizingReader(r io.Reader) *SanitizingReader {
	return &SanitizingReader{src: bufio.NewReaderSize(r, 64*1024)}
}

// Read implements io.Reader.
func (s *SanitizingReader) Read(p []byte) (int, error) {
	if !s.bomChecked {
		s.bomChecked = true
		if head, err := s.src.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = s.src.Discard(len(utf8BOM))
		}
	}

	n := 0
	for n < len(p) {
		if len(s.pending) > 0 {
			c := copy(p[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}

		r, size, err := s.src.ReadRune()
		if err != nil {
			return n, err
		}
		if r == utf8.RuneError && size == 1 {
			r = invalidByteReplacement
		}

		// Multi-byte runes may not fit the caller's buffer; spill into pending.
		w := utf8.EncodeRune(s.buf[:], r)
		s.pending = s.buf[:w]
	}
	return n, nil
}

// countingReader records how many raw bytes passed through.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// ReadContent reads the whole of r as sanitized text. When maxBytes is
// positive and r holds more than maxBytes raw bytes, ErrFileTooLarge is
// returned without buffering the excess.
func ReadContent(r io.Reader, maxBytes int64) (string, error) {
	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	counted := &countingReader{r: src}

	data, err := io.ReadAll(NewSanitizingReader(counted))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if maxBytes > 0 && counted.n > maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes)
	}
	return string(data), nil
}
