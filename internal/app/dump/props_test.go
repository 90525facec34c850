package dump

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseProps(t *testing.T) {
	raw := []byte("propdump version 3\r\n" +
		"1 1700000000 100 -20 300 900 10 0 9 0 0 tree1.rwx\r\n" +
		"2 1700000001 -5 0 5 0 0 1800 8 12 12 sign.rwxline1\x80\x7fline2create sign\x7f\r\n")

	props, err := ParseProps(bytes.NewReader(raw))
	require.NoError(t, err)

	want := []PropRecord{
		{Owner: 1, Date: 1700000000, X: 100, Y: -20, Z: 300, Yaw: 900, Pitch: 10, Roll: 0, Name: "tree1.rwx"},
		{
			Owner: 2, Date: 1700000001, X: -5, Y: 0, Z: 5, Yaw: 0, Pitch: 0, Roll: 1800,
			Name: "sign.rwx",
			Desc: strPtr("line1\r\nline2"),
			Act:  strPtr("create sign\n"),
		},
	}
	if diff := cmp.Diff(want, props); diff != "" {
		t.Errorf("props mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePropsNameWithSpaces(t *testing.T) {
	raw := []byte("propdump version 3\r\n1 1 0 0 0 0 0 0 7 3 0 my propa b\r\n")

	props, err := ParseProps(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "my prop", props[0].Name)
	assert.Equal(t, "a b", *props[0].Desc)
	assert.Nil(t, props[0].Act)
}

func TestParsePropsMalformed(t *testing.T) {
	tests := map[string]string{
		"bad date":        "1 soon 0 0 0 0 0 0 1 0 0 a\r\n",
		"too few fields":  "1 2 3\r\n",
		"blob too short":  "1 1 0 0 0 0 0 0 10 0 0 short\r\n",
		"negative length": "1 1 0 0 0 0 0 0 -1 0 0 x\r\n",
	}

	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProps(bytes.NewReader([]byte(PropTag + "\r\n" + line)))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestPropsRoundTrip(t *testing.T) {
	props := []PropRecord{
		{Owner: 3, Date: 42, X: 1, Y: 2, Z: 3, Yaw: 4, Pitch: 5, Roll: 6, Name: "wall.rwx"},
		{
			Owner: 3, Date: 43, X: -1, Y: -2, Z: -3, Name: "café.rwx",
			Desc: strPtr("two\r\nlines"),
			Act:  strPtr("create color red\nactivate url x"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProps(&buf, props))

	// Line breaks inside the blob are escaped, so the dump has one line per prop plus the tag.
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("\r\n")))

	again, err := ParseProps(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(props, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
