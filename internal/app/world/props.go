package world

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"lemuria/internal/pkg/req"
)

// Prop is an object placed in a world.
type Prop struct {
	ID      int
	WorldID int
	Owner   int
	Date    int64
	Name    string
	X       int
	Y       int
	Z       int
	Pitch   int
	Yaw     int
	Roll    int

	// Desc and Act are nil, never empty, when absent.
	Desc *string
	Act  *string
}

// MarshalJSON renders p as a prop list entry:
// [date, name, x, y, z, pitch, yaw, roll, desc, act].
func (p Prop) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Date, p.Name, p.X, p.Y, p.Z, p.Pitch, p.Yaw, p.Roll, p.Desc, p.Act})
}

// PropList is the prop query response.
type PropList struct {
	Entries []Prop `json:"entries"`
}

// Bounds restricts a prop query per axis to [min, max). A nil scalar leaves that side open.
type Bounds struct {
	MinX, MaxX *int
	MinY, MaxY *int
	MinZ, MaxZ *int
}

// ParseBounds reads min_x, max_x, min_y, max_y, min_z and max_z from q. Values that are not
// plain decimal integers are treated as absent.
func ParseBounds(q url.Values) Bounds {
	get := func(key string) *int {
		if v, ok := req.OptionalInt(q.Get(key)); ok {
			return &v
		}
		return nil
	}

	return Bounds{
		MinX: get("min_x"), MaxX: get("max_x"),
		MinY: get("min_y"), MaxY: get("max_y"),
		MinZ: get("min_z"), MaxZ: get("max_z"),
	}
}

// Contains reports whether (x, y, z) lies inside b.
func (b Bounds) Contains(x, y, z int) bool {
	return inRange(x, b.MinX, b.MaxX) && inRange(y, b.MinY, b.MaxY) && inRange(z, b.MinZ, b.MaxZ)
}

func inRange(v int, lo, hi *int) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v >= *hi {
		return false
	}
	return true
}

// Filter returns the props inside b, keeping their order.
func (b Bounds) Filter(props []Prop) []Prop {
	out := make([]Prop, 0, len(props))
	for _, p := range props {
		if b.Contains(p.X, p.Y, p.Z) {
			out = append(out, p)
		}
	}
	return out
}

// key renders b for cache keys, with "_" for open sides. Y is part of the key because Y
// bounds filter results.
func (b Bounds) key() string {
	var sb strings.Builder
	for i, v := range []*int{b.MinX, b.MaxX, b.MinY, b.MaxY, b.MinZ, b.MaxZ} {
		if i > 0 {
			sb.WriteByte(',')
		}
		if v == nil {
			sb.WriteByte('_')
		} else {
			sb.WriteString(strconv.Itoa(*v))
		}
	}
	return sb.String()
}
