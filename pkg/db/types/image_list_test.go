package dbtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageListScanNormalizesStoredShapes(t *testing.T) {
	cases := []struct {
		name string
		src  any
		want ImageList
	}{
		{name: "nil", src: nil, want: ImageList{}},
		{name: "json text", src: `["a.jpg","b.jpg"]`, want: ImageList{"a.jpg", "b.jpg"}},
		{name: "json bytes", src: []byte(`["a.jpg"]`), want: ImageList{"a.jpg"}},
		{name: "postgres array", src: `{a.jpg,"b c.jpg"}`, want: ImageList{"a.jpg", "b c.jpg"}},
		{name: "double encoded", src: `"[\"a.jpg\"]"`, want: ImageList{"a.jpg"}},
		{name: "bare url", src: "https://cdn/x.jpg", want: ImageList{"https://cdn/x.jpg"}},
		{name: "empty array", src: "{}", want: ImageList{}},
		{name: "blank entries dropped", src: `["", " a.jpg "]`, want: ImageList{"a.jpg"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got ImageList
			require.NoError(t, got.Scan(tc.src))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestImageListScanRejectsMalformed(t *testing.T) {
	var got ImageList
	assert.Error(t, got.Scan(`["unterminated`))
	assert.Error(t, got.Scan(42))
}

func TestImageListValueWritesJSON(t *testing.T) {
	v, err := ImageList{"a.jpg", "b.jpg"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a.jpg","b.jpg"]`, v)

	empty, err := ImageList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)
}

func TestImageListFirst(t *testing.T) {
	assert.Equal(t, "", ImageList{}.First())
	assert.Equal(t, "a.jpg", ImageList{"a.jpg", "b.jpg"}.First())
}
