package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcatFlattensInOrder(t *testing.T) {
	parts := []LineString{
		NewLineString([][]float64{{0, 0}, {1, 1}}),
		NewLineString([][]float64{{1, 1}, {2, 2}, {3, 3}}),
	}

	got := Concat(parts)

	assert.Equal(t, TypeLineString, got.Type)
	assert.Equal(t, [][]float64{{0, 0}, {1, 1}, {1, 1}, {2, 2}, {3, 3}}, got.Coordinates)
}

func TestConcatEmpty(t *testing.T) {
	got := Concat(nil)
	assert.Empty(t, got.Coordinates)
}

func TestWKT(t *testing.T) {
	tests := []struct {
		name   string
		coords [][]float64
		want   string
	}{
		{"integers", [][]float64{{1, 1}, {2, 2}}, "LINESTRING(1 1, 2 2)"},
		{"decimals", [][]float64{{67.0599, 24.8004}, {-122.42, 37.78}}, "LINESTRING(67.0599 24.8004, -122.42 37.78)"},
		{"single point", [][]float64{{10, 20}}, "LINESTRING(10 20)"},
		{"empty", nil, "LINESTRING()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLineString(tt.coords).WKT()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWKTRejectsOtherTypes(t *testing.T) {
	_, err := LineString{Type: "Point", Coordinates: [][]float64{{1, 1}}}.WKT()
	assert.True(t, errors.Is(err, ErrNotLineString))
}

func TestWKTToWKBRoundTrip(t *testing.T) {
	b, err := WKTToWKB("LINESTRING(1 2, 3 4)")
	require.NoError(t, err)

	doc, err := WKBToGeoJSON(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"LineString","coordinates":[[1,2],[3,4]]}`, string(doc))
}

func TestParseWKTRejectsPoint(t *testing.T) {
	_, err := ParseWKT("POINT(1 2)")
	assert.True(t, errors.Is(err, ErrNotLineString))
}

func TestGeom(t *testing.T) {
	ls, err := NewLineString([][]float64{{1, 2}, {3, 4}}).Geom()
	require.NoError(t, err)
	assert.Equal(t, 2, ls.NumCoords())

	_, err = NewLineString([][]float64{{1}}).Geom()
	assert.Error(t, err)
}
