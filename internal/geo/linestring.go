package geo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// TypeLineString is the GeoJSON type name carried by every routed geometry.
const TypeLineString = "LineString"

// ErrNotLineString is returned when a geometry that must be a LineString declares another type.
var ErrNotLineString = errors.New("geometry is not a LineString")

// Location is a geographic coordinate in WGS84.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Coord returns the location as a [lng, lat] pair.
func (l Location) Coord() []float64 {
	return []float64{l.Longitude, l.Latitude}
}

// LineString mirrors the GeoJSON LineString object returned by the router.
// Coordinates are [lng, lat] pairs.
type LineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// NewLineString builds a LineString over the given coordinates.
func NewLineString(coords [][]float64) LineString {
	return LineString{Type: TypeLineString, Coordinates: coords}
}

// Concat flattens the coordinates of every part, in order, into one LineString.
// Shared endpoints between consecutive parts are kept as-is.
func Concat(parts []LineString) LineString {
	n := 0
	for _, p := range parts {
		n += len(p.Coordinates)
	}
	coords := make([][]float64, 0, n)
	for _, p := range parts {
		coords = append(coords, p.Coordinates...)
	}
	return NewLineString(coords)
}

// WKT serializes the line as LINESTRING(lng lat, lng lat, ...).
// The backend matches on this exact shape, so numbers use the shortest
// representation and there is no space after the keyword.
func (l LineString) WKT() (string, error) {
	if l.Type != TypeLineString {
		return "", fmt.Errorf("%w: got %q", ErrNotLineString, l.Type)
	}
	pairs := make([]string, len(l.Coordinates))
	for i, c := range l.Coordinates {
		parts := make([]string, len(c))
		for j, v := range c {
			parts[j] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		pairs[i] = strings.Join(parts, " ")
	}
	return "LINESTRING(" + strings.Join(pairs, ", ") + ")", nil
}

// Geom converts the line into a go-geom LineString.
func (l LineString) Geom() (*geom.LineString, error) {
	if l.Type != TypeLineString {
		return nil, fmt.Errorf("%w: got %q", ErrNotLineString, l.Type)
	}
	coords := make([]geom.Coord, len(l.Coordinates))
	for i, c := range l.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("coordinate %d has %d values, want 2", i, len(c))
		}
		coords[i] = geom.Coord{c[0], c[1]}
	}
	return geom.NewLineString(geom.XY).SetCoords(coords)
}

// ParseWKT decodes a WKT string and requires it to be a LineString.
func ParseWKT(raw string) (*geom.LineString, error) {
	g, err := wkt.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("parse wkt: %w", err)
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotLineString, g)
	}
	return ls, nil
}

// WKTToWKB parses a WKT LineString and re-encodes it as little-endian WKB.
func WKTToWKB(raw string) ([]byte, error) {
	ls, err := ParseWKT(raw)
	if err != nil {
		return nil, err
	}
	return wkb.Marshal(ls, binary.LittleEndian)
}

// WKBToGeoJSON converts stored WKB bytes into a GeoJSON geometry document.
func WKBToGeoJSON(wkbBytes []byte) ([]byte, error) {
	if len(wkbBytes) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return nil, err
	}
	return gjson.Marshal(g)
}
