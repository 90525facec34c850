package dump

import (
	"io"
	"strconv"
	"strings"

	"lemuria/internal/app/terrain"
)

// ParseElevation reads an elevation dump. Each line is
// "page_x page_z node_x node_z radius ntex nheight tex... height...".
func ParseElevation(r io.Reader) ([]terrain.NodeRecord, error) {
	var nodes []terrain.NodeRecord

	err := scanLines(r, "elevdump", func(n int, raw []byte) error {
		fields := strings.Fields(string(raw))
		if len(fields) < 7 {
			return malformed(n, "expected at least 7 fields, got %d", len(fields))
		}

		header := make([]int, 7)
		for i := range header {
			v, err := strconv.Atoi(fields[i])
			if err != nil {
				return malformed(n, "field %d: %q is not an integer", i+1, fields[i])
			}
			header[i] = v
		}

		ntex, nheight := header[5], header[6]
		if ntex < 0 || nheight < 0 || len(fields) != 7+ntex+nheight {
			return malformed(n, "declared %d textures and %d heights, found %d values", ntex, nheight, len(fields)-7)
		}

		textures, err := terrain.ParseIntList(strings.Join(fields[7:7+ntex], " "))
		if err != nil {
			return malformed(n, "textures: %v", err)
		}
		heights, err := terrain.ParseIntList(strings.Join(fields[7+ntex:], " "))
		if err != nil {
			return malformed(n, "heights: %v", err)
		}

		nodes = append(nodes, terrain.NodeRecord{
			PageX:    header[0],
			PageZ:    header[1],
			NodeX:    header[2],
			NodeZ:    header[3],
			Radius:   header[4],
			Textures: textures,
			Heights:  heights,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return nodes, nil
}

// WriteElevation writes nodes as an elevation dump.
func WriteElevation(w io.Writer, nodes []terrain.NodeRecord) error {
	lw := newLineWriter(w, ElevationTag)

	for _, node := range nodes {
		var b strings.Builder
		for _, v := range []int{node.PageX, node.PageZ, node.NodeX, node.NodeZ, node.Radius, len(node.Textures), len(node.Heights)} {
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(' ')
		}
		b.WriteString(terrain.FormatIntList(node.Textures))
		if len(node.Heights) > 0 {
			b.WriteByte(' ')
			b.WriteString(terrain.FormatIntList(node.Heights))
		}
		lw.writeLine(strings.TrimRight(b.String(), " "))
	}

	return lw.flush()
}
