package dump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lemuria/internal/app/terrain"
)

func TestParseElevation(t *testing.T) {
	input := "elevdump version 1\r\n" +
		"0 -1 4 8 1 1 4 5 0 0 3 0\r\n" +
		"2 3 0 0 1 4 4 1 2 3 4 10 20 30 40\r\n"

	nodes, err := ParseElevation(strings.NewReader(input))
	require.NoError(t, err)

	want := []terrain.NodeRecord{
		{PageX: 0, PageZ: -1, NodeX: 4, NodeZ: 8, Radius: 1, Textures: []int{5}, Heights: []int{0, 0, 3, 0}},
		{PageX: 2, PageZ: 3, Radius: 1, Textures: []int{1, 2, 3, 4}, Heights: []int{10, 20, 30, 40}},
	}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseElevationMalformed(t *testing.T) {
	tests := map[string]string{
		"short header":   "0 0 0 0 1 1\r\n",
		"bad number":     "0 0 0 x 1 1 1 5 5\r\n",
		"count mismatch": "0 0 0 0 1 2 2 1 2 3\r\n",
		"bad height":     "0 0 0 0 1 1 1 5 up\r\n",
	}

	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseElevation(strings.NewReader("elevdump version 1\r\n" + line))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestElevationRoundTrip(t *testing.T) {
	nodes := []terrain.NodeRecord{
		{PageX: -3, PageZ: 7, NodeX: 16, NodeZ: 32, Radius: 2, Textures: []int{9}, Heights: make([]int, 16)},
		{PageX: 0, PageZ: 0, Radius: 1, Textures: []int{1, 2, 3, 4}, Heights: []int{-1, 0, 1, 2}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteElevation(&buf, nodes))
	assert.True(t, strings.HasPrefix(buf.String(), ElevationTag+"\r\n"))

	again, err := ParseElevation(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(nodes, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseElevationEmpty(t *testing.T) {
	nodes, err := ParseElevation(strings.NewReader(ElevationTag + "\r\n"))
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
