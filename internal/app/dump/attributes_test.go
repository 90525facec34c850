package dump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAttributes = "atdump version 1\r\n" +
	"0 Lemuria\r\n" +
	"3 http://objects.example/lemuria\r\n" +
	"11 10\r\n" +
	"12 20\r\n" +
	"13 30\r\n" +
	"25 Welcome to Lemuria!\r\n" +
	"41 -0.8\r\n" +
	"51 Y\r\n" +
	"53 120\r\n" +
	"65 N\r\n" +
	"69 1N 2W\r\n" +
	"70 255\r\n" +
	"130 0.2\r\n" +
	"999 ignored\r\n"

func TestParseAttributes(t *testing.T) {
	attrs, err := ParseAttributes(strings.NewReader(sampleAttributes))
	require.NoError(t, err)

	want := map[string]any{
		"name":    "Lemuria",
		"path":    "http://objects.example/lemuria",
		"welcome": "Welcome to Lemuria!",
		"entry":   "1N 2W",
		"light": map[string]any{
			"fog": map[string]any{
				"color":   []int{10, 20, 30},
				"enabled": true,
				"max":     120,
			},
			"dir": map[string]any{"x": -0.8},
		},
		"terrain": map[string]any{
			"enabled": false,
			"ambient": 0.2,
		},
		"sky": map[string]any{
			"top_color": []int{255, 0, 0},
		},
	}

	if diff := cmp.Diff(want, attrs); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAttributesMalformedKey(t *testing.T) {
	_, err := ParseAttributes(strings.NewReader("atdump version 1\r\nabc value\r\n"))
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorContains(t, err, "line 2")
}

func TestParseAttributesMalformedColor(t *testing.T) {
	_, err := ParseAttributes(strings.NewReader("atdump version 1\r\n11 red\r\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestAttributesRoundTrip(t *testing.T) {
	original, err := ParseAttributes(strings.NewReader(sampleAttributes))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteAttributes(&buf, original))

	again, err := ParseAttributes(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(original, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteAttributesOrderAndFormat(t *testing.T) {
	attrs := map[string]any{
		"welcome": "Hi",
		"name":    "Tiny",
		"terrain": map[string]any{"enabled": true, "diffuse": 1.0},
		"water":   map[string]any{"color": []any{0.0, 0.0, 255.0}},
		"unknown": "dropped",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAttributes(&buf, attrs))

	want := "atdump version 1\r\n" +
		"0 Tiny\r\n" +
		"25 Hi\r\n" +
		"65 Y\r\n" +
		"113 0.0\r\n" +
		"114 0.0\r\n" +
		"115 255.0\r\n" +
		"131 1.0\r\n"
	assert.Equal(t, want, buf.String())
}

func TestWindows1252Attributes(t *testing.T) {
	// 0xE9 is "é" in Windows-1252.
	raw := []byte("atdump version 1\r\n25 Caf\xe9\r\n")

	attrs, err := ParseAttributes(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Café", attrs["welcome"])

	var buf bytes.Buffer
	require.NoError(t, WriteAttributes(&buf, attrs))
	assert.Equal(t, raw, buf.Bytes())
}

func TestAttributeKeysIsACopy(t *testing.T) {
	keys := AttributeKeys()
	assert.Equal(t, "name", keys[0])
	assert.Equal(t, "terrain.offset", keys[141])

	keys[0] = "changed"
	assert.Equal(t, "name", AttributeKeys()[0])
}
