/*
Package dump reads and writes the legacy world dump formats.

There are three line-oriented formats, each opening with a version tag line:
attribute dumps ("atdump version 1"), elevation dumps ("elevdump version 1") and prop
dumps ("propdump version 3"). Files are Windows-1252 encoded with CRLF line ends.
Parsing is all-or-nothing: the first malformed line aborts with an error wrapping ErrMalformed.
*/
package dump

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Version tag lines.
const (
	AttributeTag = "atdump version 1"
	ElevationTag = "elevdump version 1"
	PropTag      = "propdump version 3"
)

// maxLineSize bounds a single dump line; elevation lines of large nodes run to tens of kilobytes.
const maxLineSize = 16 << 20

// ErrMalformed is wrapped by every parse error.
var ErrMalformed = errors.New("malformed dump")

func malformed(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformed, line, fmt.Sprintf(format, args...))
}

// scanLines calls fn with every raw line after the version tag, numbered from 1.
// Raw lines keep their Windows-1252 bytes; the trailing line terminator is removed.
func scanLines(r io.Reader, formatName string, fn func(n int, raw []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLineSize)

	n := 0
	for scanner.Scan() {
		n++
		raw := scanner.Bytes()

		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		if first, _, _ := bytes.Cut(raw, []byte(" ")); string(first) == formatName {
			continue
		}

		if err := fn(n, raw); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", formatName, err)
	}
	return nil
}

func decode(raw []byte) (string, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// lineWriter writes CRLF-terminated Windows-1252 lines. Characters outside the code page
// are replaced, one byte each, so character counts survive encoding.
type lineWriter struct {
	w   *bufio.Writer
	enc *encoding.Encoder
	err error
}

func newLineWriter(w io.Writer, tag string) *lineWriter {
	lw := &lineWriter{
		w:   bufio.NewWriter(w),
		enc: encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
	}
	lw.writeRaw([]byte(tag))
	return lw
}

func (lw *lineWriter) encode(s string) []byte {
	out, err := lw.enc.Bytes([]byte(s))
	if err != nil && lw.err == nil {
		lw.err = err
	}
	return out
}

func (lw *lineWriter) writeLine(s string) {
	lw.writeRaw(lw.encode(s))
}

func (lw *lineWriter) writeRaw(b []byte) {
	if lw.err != nil {
		return
	}
	if _, err := lw.w.Write(b); err != nil {
		lw.err = err
		return
	}
	_, lw.err = lw.w.WriteString("\r\n")
}

func (lw *lineWriter) flush() error {
	if lw.err != nil {
		return lw.err
	}
	return lw.w.Flush()
}
