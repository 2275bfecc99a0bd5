package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit_admin/internal/geo"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *MapboxClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewMapboxClient(MapboxConfig{BaseURL: srv.URL, AccessToken: "tok"}, nil)
}

func TestMapboxRoute(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directions/v5/mapbox/driving-traffic/10,20;30,40", r.URL.Path)
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","routes":[{"weight":100,"duration":90,"distance":1200,
			"geometry":{"type":"LineString","coordinates":[[1,1],[2,2]]}}]}`))
	})

	route, err := client.Route(context.Background(), []geo.Location{
		{Longitude: 10, Latitude: 20},
		{Longitude: 30, Latitude: 40},
	})

	require.NoError(t, err)
	assert.Equal(t, 100.0, route.Weight)
	assert.Equal(t, 1200.0, route.Distance)
	assert.Equal(t, geo.TypeLineString, route.Geometry.Type)
	assert.Equal(t, [][]float64{{1, 1}, {2, 2}}, route.Geometry.Coordinates)
}

func TestMapboxNoRoutes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[]}`))
	})

	_, err := client.Route(context.Background(), []geo.Location{{}, {Longitude: 1, Latitude: 1}})
	assert.True(t, errors.Is(err, ErrNoRoute))
}

func TestMapboxNoSegment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":"NoSegment","message":"Could not find a matching segment"}`))
	})

	_, err := client.Route(context.Background(), []geo.Location{{}, {Longitude: 1, Latitude: 1}})
	assert.True(t, errors.Is(err, ErrNoRoute))
}

func TestMapboxServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
	})

	_, err := client.Route(context.Background(), []geo.Location{{}, {Longitude: 1, Latitude: 1}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoRoute))
	assert.Contains(t, err.Error(), "401")
}

func TestMapboxNeedsTwoWaypoints(t *testing.T) {
	client := NewMapboxClient(MapboxConfig{BaseURL: "http://unused"}, nil)
	_, err := client.Route(context.Background(), []geo.Location{{}})
	assert.Error(t, err)
}
