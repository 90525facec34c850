/*
Package terrain turns elevation node records into sparse per-page cell maps.

A page is a 128x128 grid of cells addressed by a flat index (row*128 + column). Nodes are
square sub-blocks of a page with side 2*radius, placed at (node_x, node_z) inside it, each
carrying a flat texture array and a flat height array. Cells whose texture and height are
both zero are left out of the map.
*/
package terrain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// PageSize is the number of cells along each side of a page.
const PageSize = 128

// NodeRecord is one stored or dumped elevation node.
type NodeRecord struct {
	PageX    int
	PageZ    int
	NodeX    int
	NodeZ    int
	Radius   int
	Textures []int
	Heights  []int
}

// Side returns the node's side length in cells.
func (n NodeRecord) Side() int {
	return 2 * n.Radius
}

// Cell is the texture and height of one terrain cell, serialized as [texture, height].
type Cell struct {
	Texture int
	Height  int
}

func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Texture, c.Height})
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	c.Texture, c.Height = pair[0], pair[1]
	return nil
}

// Page maps in-page cell indexes to cells.
type Page map[int]Cell

// PageMap maps PageKey strings to pages.
type PageMap map[string]Page

// PageKey returns the key of page (pageX, pageZ): its world-space origin "<128*x>_<128*z>".
func PageKey(pageX, pageZ int) string {
	return fmt.Sprintf("%d_%d", PageSize*pageX, PageSize*pageZ)
}

// BuildPages groups nodes by page and expands each page. Every page that has a node gets
// an entry, even if all its cells are empty. No nodes yields an empty map.
func BuildPages(nodes []NodeRecord) PageMap {
	pages := make(PageMap)
	for _, n := range nodes {
		key := PageKey(n.PageX, n.PageZ)
		page, ok := pages[key]
		if !ok {
			page = make(Page)
			pages[key] = page
		}
		page.AddNode(n)
	}
	return pages
}

// BuildPage expands nodes into a single page, ignoring their page coordinates.
func BuildPage(nodes []NodeRecord) Page {
	page := make(Page)
	for _, n := range nodes {
		page.AddNode(n)
	}
	return page
}

// AddNode writes the non-empty cells of n into p. Arrays shorter than the node repeat their
// first element, which covers the single-texture shorthand; an empty array reads as zero.
func (p Page) AddNode(n NodeRecord) {
	side := n.Side()
	for i := 0; i < side; i++ {
		row := i * PageSize
		for j := 0; j < side; j++ {
			idx := side*i + j
			texture := valueAt(n.Textures, idx)
			height := valueAt(n.Heights, idx)
			if texture == 0 && height == 0 {
				continue
			}
			p[row+j+n.NodeX+n.NodeZ*PageSize] = Cell{Texture: texture, Height: height}
		}
	}
}

func valueAt(values []int, idx int) int {
	if idx < len(values) {
		return values[idx]
	}
	if len(values) > 0 {
		return values[0]
	}
	return 0
}

// ParseIntList parses a space separated list of integers. An empty string is an empty list.
func ParseIntList(s string) ([]int, error) {
	fields := strings.Fields(s)
	values := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("value %d of list: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// FormatIntList is the inverse of ParseIntList.
func FormatIntList(values []int) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
