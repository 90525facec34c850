/*
Package world serves the read model of worlds: descriptors, prop queries and terrain pages,
plus the import and export of legacy dumps.
*/
package world

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"lemuria/internal/app/terrain"
)

// ErrNotFound is returned when a world does not exist.
var ErrNotFound = errors.New("world not found")

// DefaultEntry is the entry point of worlds that do not define one.
const DefaultEntry = "0N 0W"

// Record is a stored world row. Data holds the nested attribute tree as JSON.
type Record struct {
	ID   int
	Name string
	Data string
}

// Text is a string attribute that also accepts JSON numbers, since dump values that look
// numeric are stored as numbers.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = Text(n.String())
	return nil
}

// Color is an RGB triple.
type Color [3]int

type Fog struct {
	Color   Color   `json:"color"`
	Enabled bool    `json:"enabled"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

type Direction struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Light struct {
	Fog      Fog       `json:"fog"`
	DirColor Color     `json:"dir_color"`
	AmbColor Color     `json:"amb_color"`
	Dir      Direction `json:"dir"`
}

type Sky struct {
	Skybox      Text  `json:"skybox"`
	TopColor    Color `json:"top_color"`
	NorthColor  Color `json:"north_color"`
	EastColor   Color `json:"east_color"`
	SouthColor  Color `json:"south_color"`
	WestColor   Color `json:"west_color"`
	BottomColor Color `json:"bottom_color"`
}

type Terrain struct {
	Enabled bool    `json:"enabled"`
	Ambient float64 `json:"ambient"`
	Diffuse float64 `json:"diffuse"`
	Offset  float64 `json:"offset"`
}

type Water struct {
	TextureTop    Text    `json:"texture_top"`
	Opacity       float64 `json:"opacity"`
	Color         Color   `json:"color"`
	Offset        float64 `json:"offset"`
	TextureBottom Text    `json:"texture_bottom"`
	Enabled       bool    `json:"enabled"`
	UnderView     float64 `json:"under_view"`
}

// World is the descriptor sent to clients entering a world.
type World struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Welcome  Text    `json:"welcome"`
	Path     Text    `json:"path"`
	Keywords Text    `json:"keywords,omitempty"`
	Entry    Text    `json:"entry"`
	Light    Light   `json:"light"`
	Sky      Sky     `json:"sky"`
	Terrain  Terrain `json:"terrain"`
	Water    Water   `json:"water"`

	// Elev is nil when the world has no readable elevation data.
	Elev terrain.PageMap `json:"elev"`
}

// Default returns a descriptor holding every default attribute value.
func Default() World {
	return World{
		Entry: DefaultEntry,
		Light: Light{
			Fog:      Fog{Color: Color{0, 0, 127}, Min: 0, Max: 120},
			DirColor: Color{255, 255, 255},
			AmbColor: Color{255, 255, 255},
			Dir:      Direction{X: -0.8, Y: -0.5, Z: -0.2},
		},
		Terrain: Terrain{Ambient: 0.2, Diffuse: 1},
		Water: Water{
			Opacity:   180,
			Color:     Color{0, 0, 255},
			Offset:    -1,
			UnderView: 120,
		},
	}
}

// FromRecord merges the stored attributes of rec over the defaults. Attributes missing from
// the stored tree keep their default value at any depth.
func FromRecord(rec Record) (*World, error) {
	w := Default()

	if rec.Data != "" {
		if err := json.Unmarshal([]byte(rec.Data), &w); err != nil {
			return nil, fmt.Errorf("decoding attributes of world %d: %w", rec.ID, err)
		}
	}

	w.ID = rec.ID
	w.Name = rec.Name
	if w.Entry == "" {
		w.Entry = DefaultEntry
	}

	return &w, nil
}

// Summary is one entry of the world list.
type Summary struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Users int    `json:"users"`
}

// ParseID parses a world id from a path parameter.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, raw)
	}
	return id, nil
}
