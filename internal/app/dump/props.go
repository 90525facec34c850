package dump

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Escapes for line breaks inside the text blob of a prop line.
var (
	escCRLF = []byte{0x80, 0x7f}
	escLF   = []byte{0x7f}
)

// propHeaderFields is the number of space separated fields before the text blob.
const propHeaderFields = 11

// PropRecord is one line of a prop dump.
type PropRecord struct {
	Owner int
	Date  int64
	X     int
	Y     int
	Z     int
	Yaw   int
	Pitch int
	Roll  int
	Name  string

	// Desc and Act are nil when their declared length is zero.
	Desc *string
	Act  *string
}

// ParseProps reads a prop dump. Each line is
// "owner date x y z yaw pitch roll name_len desc_len act_len blob"
// where blob is name, description and action concatenated. Escaped line breaks in the blob
// are restored before it is sliced by the declared character lengths.
func ParseProps(r io.Reader) ([]PropRecord, error) {
	var props []PropRecord

	err := scanLines(r, "propdump", func(n int, raw []byte) error {
		raw = bytes.ReplaceAll(raw, escCRLF, []byte("\r\n"))
		raw = bytes.ReplaceAll(raw, escLF, []byte("\n"))

		line, err := decode(raw)
		if err != nil {
			return malformed(n, "%v", err)
		}

		parts := strings.SplitN(line, " ", propHeaderFields+1)
		if len(parts) < propHeaderFields {
			return malformed(n, "expected %d header fields, got %d", propHeaderFields, len(parts))
		}
		blob := ""
		if len(parts) > propHeaderFields {
			blob = parts[propHeaderFields]
		}

		header := make([]int64, propHeaderFields)
		for i := range header {
			v, err := strconv.ParseInt(parts[i], 10, 64)
			if err != nil {
				return malformed(n, "field %d: %q is not an integer", i+1, parts[i])
			}
			header[i] = v
		}

		nameLen, descLen, actLen := int(header[8]), int(header[9]), int(header[10])
		runes := []rune(blob)
		if nameLen < 0 || descLen < 0 || actLen < 0 || nameLen+descLen+actLen > len(runes) {
			return malformed(n, "declared text lengths %d+%d+%d exceed blob of %d characters", nameLen, descLen, actLen, len(runes))
		}

		props = append(props, PropRecord{
			Owner: int(header[0]),
			Date:  header[1],
			X:     int(header[2]),
			Y:     int(header[3]),
			Z:     int(header[4]),
			Yaw:   int(header[5]),
			Pitch: int(header[6]),
			Roll:  int(header[7]),
			Name:  string(runes[:nameLen]),
			Desc:  optional(runes[nameLen : nameLen+descLen]),
			Act:   optional(runes[nameLen+descLen : nameLen+descLen+actLen]),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return props, nil
}

func optional(r []rune) *string {
	if len(r) == 0 {
		return nil
	}
	s := string(r)
	return &s
}

// WriteProps writes props as a prop dump, escaping line breaks in the text blob.
func WriteProps(w io.Writer, props []PropRecord) error {
	lw := newLineWriter(w, PropTag)

	for _, p := range props {
		desc, act := deref(p.Desc), deref(p.Act)

		header := []int64{
			int64(p.Owner), p.Date,
			int64(p.X), int64(p.Y), int64(p.Z),
			int64(p.Yaw), int64(p.Pitch), int64(p.Roll),
			int64(utf8.RuneCountInString(p.Name)),
			int64(utf8.RuneCountInString(desc)),
			int64(utf8.RuneCountInString(act)),
		}

		var b strings.Builder
		for _, v := range header {
			b.WriteString(strconv.FormatInt(v, 10))
			b.WriteByte(' ')
		}

		line := lw.encode(b.String() + p.Name + desc + act)
		line = bytes.ReplaceAll(line, []byte("\r\n"), escCRLF)
		line = bytes.ReplaceAll(line, []byte("\n"), escLF)
		lw.writeRaw(line)
	}

	return lw.flush()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
