package dump

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// attributePaths maps attribute dump keys to dotted paths in the nested attribute tree.
var attributePaths = map[int]string{
	0:   "name",
	3:   "path",
	11:  "light.fog.color.r",
	12:  "light.fog.color.g",
	13:  "light.fog.color.b",
	25:  "welcome",
	41:  "light.dir.x",
	42:  "light.dir.y",
	43:  "light.dir.z",
	44:  "light.dir_color.r",
	45:  "light.dir_color.g",
	46:  "light.dir_color.b",
	47:  "light.amb_color.r",
	48:  "light.amb_color.g",
	49:  "light.amb_color.b",
	51:  "light.fog.enabled",
	52:  "light.fog.min",
	53:  "light.fog.max",
	61:  "sky.skybox",
	64:  "keywords",
	65:  "terrain.enabled",
	69:  "entry",
	70:  "sky.top_color.r",
	71:  "sky.top_color.g",
	72:  "sky.top_color.b",
	73:  "sky.north_color.r",
	74:  "sky.north_color.g",
	75:  "sky.north_color.b",
	76:  "sky.east_color.r",
	77:  "sky.east_color.g",
	78:  "sky.east_color.b",
	79:  "sky.south_color.r",
	80:  "sky.south_color.g",
	81:  "sky.south_color.b",
	82:  "sky.west_color.r",
	83:  "sky.west_color.g",
	84:  "sky.west_color.b",
	85:  "sky.bottom_color.r",
	86:  "sky.bottom_color.g",
	87:  "sky.bottom_color.b",
	111: "water.texture_top",
	112: "water.opacity",
	113: "water.color.r",
	114: "water.color.g",
	115: "water.color.b",
	116: "water.offset",
	120: "water.texture_bottom",
	123: "water.enabled",
	130: "terrain.ambient",
	131: "terrain.diffuse",
	132: "water.under_view",
	141: "terrain.offset",
}

var attributeKeys = func() map[string]int {
	keys := make(map[string]int, len(attributePaths))
	for k, p := range attributePaths {
		keys[p] = k
	}
	return keys
}()

const rgb = "rgb"

// AttributeKeys returns a copy of the dump key to attribute path table.
func AttributeKeys() map[int]string {
	out := make(map[int]string, len(attributePaths))
	for k, p := range attributePaths {
		out[k] = p
	}
	return out
}

// ParseAttributes reads an attribute dump into a nested map. Unknown keys are ignored.
// Parents whose name ends in "color" are 3-element []int indexed by the r, g and b leaves;
// "enabled" leaves are booleans ("Y" is true); other leaves become an int, a float64 or
// the raw string, whichever parses first.
func ParseAttributes(r io.Reader) (map[string]any, error) {
	attrs := make(map[string]any)

	err := scanLines(r, "atdump", func(n int, raw []byte) error {
		line, err := decode(raw)
		if err != nil {
			return malformed(n, "%v", err)
		}

		keyStr, value, _ := strings.Cut(line, " ")
		key, err := strconv.Atoi(keyStr)
		if err != nil {
			return malformed(n, "invalid key %q", keyStr)
		}

		path, ok := attributePaths[key]
		if !ok {
			return nil
		}

		if err := setPath(attrs, path, strings.TrimSpace(value)); err != nil {
			return malformed(n, "key %d: %v", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return attrs, nil
}

func setPath(root map[string]any, path, value string) error {
	parts := strings.Split(path, ".")
	leaf := parts[len(parts)-1]

	var target any = root
	for _, name := range parts[:len(parts)-1] {
		m, ok := target.(map[string]any)
		if !ok {
			return fmt.Errorf("%q is not an object", name)
		}
		child, ok := m[name]
		if !ok {
			if strings.HasSuffix(name, "color") {
				child = []int{0, 0, 0}
			} else {
				child = make(map[string]any)
			}
			m[name] = child
		}
		target = child
	}

	switch t := target.(type) {
	case []int:
		idx := strings.Index(rgb, leaf)
		if len(leaf) != 1 || idx < 0 {
			return fmt.Errorf("color component %q", leaf)
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("color component %q: %w", value, err)
		}
		t[idx] = v

	case map[string]any:
		if leaf == "enabled" {
			t[leaf] = value == "Y"
			return nil
		}
		if v, err := strconv.Atoi(value); err == nil {
			t[leaf] = v
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			t[leaf] = f
		} else {
			t[leaf] = value
		}
	}
	return nil
}

// Flatten renders a nested attribute map as dotted paths with dump-ready values:
// three-element sequences split into r, g and b leaves and booleans become Y or N.
func Flatten(attrs map[string]any) map[string]string {
	out := make(map[string]string)
	flattenInto(out, "", attrs)
	return out
}

func flattenInto(out map[string]string, prefix string, m map[string]any) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}

		if color, ok := colorComponents(v); ok {
			for i, c := range color {
				out[path+"."+rgb[i:i+1]] = c
			}
			continue
		}

		switch t := v.(type) {
		case map[string]any:
			flattenInto(out, path, t)
		case nil:
			out[path] = ""
		default:
			out[path] = formatValue(t)
		}
	}
}

func colorComponents(v any) ([3]string, bool) {
	var out [3]string
	switch t := v.(type) {
	case []int:
		if len(t) < 3 {
			return out, false
		}
		for i := range out {
			out[i] = strconv.Itoa(t[i])
		}
	case []any:
		if len(t) < 3 {
			return out, false
		}
		for i := range out {
			out[i] = formatValue(t[i])
		}
	default:
		return out, false
	}
	return out, true
}

func formatValue(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "Y"
		}
		return "N"
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			// keep integral floats distinguishable from ints
			s += ".0"
		}
		return s
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// WriteAttributes writes attrs as an attribute dump ordered by key. Paths without a dump
// key are skipped.
func WriteAttributes(w io.Writer, attrs map[string]any) error {
	type entry struct {
		key   int
		value string
	}

	flat := Flatten(attrs)
	entries := make([]entry, 0, len(flat))
	for path, value := range flat {
		if key, ok := attributeKeys[path]; ok {
			entries = append(entries, entry{key: key, value: value})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	lw := newLineWriter(w, AttributeTag)
	for _, e := range entries {
		lw.writeLine(strconv.Itoa(e.key) + " " + e.value)
	}
	return lw.flush()
}
