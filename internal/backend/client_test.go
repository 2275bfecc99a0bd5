package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit_admin/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0, nil)
}

func TestNearestVertex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nearest", r.URL.Path)
		assert.Equal(t, "24.86", r.URL.Query().Get("lat"))
		assert.Equal(t, "67.01", r.URL.Query().Get("lon"))
		w.Write([]byte(`{"id":42,"osm_id":9001,"latitude":24.8601,"longitude":67.0102}`))
	})

	v, err := c.NearestVertex(context.Background(), 24.86, 67.01)

	require.NoError(t, err)
	assert.Equal(t, int64(42), v.ID)
	assert.Equal(t, int64(9001), v.OsmID)
	assert.Equal(t, 67.0102, v.Longitude)
}

func TestCreateRoutePayload(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/create-bus-route", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.CreateRoute(context.Background(), models.CreateRouteRequest{
		Vertices:    []models.Vertex{{ID: 1}, {ID: 2}},
		Weights:     []float64{10},
		Geometry:    []string{"LINESTRING(1 1, 2 2)"},
		Description: "Line 7",
		BusTypeID:   3,
	})

	require.NoError(t, err)
	assert.Equal(t, float64(3), got["busTypeId"])
	assert.Equal(t, "Line 7", got["description"])
	assert.Equal(t, []any{"LINESTRING(1 1, 2 2)"}, got["geometry"])
	assert.Equal(t, []any{float64(10)}, got["weights"])
	assert.Len(t, got["vertices"], 2)
}

func TestCreateRouteStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad geometry"}`))
	})

	err := c.CreateRoute(context.Background(), models.CreateRouteRequest{})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Contains(t, se.Body, "bad geometry")
}

func TestListRouteTypes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-all-bus-types", r.URL.Path)
		w.Write([]byte(`{"busTypes":[{"id":1,"description":"Express"},{"id":2,"description":"Local"}]}`))
	})

	types, err := c.ListRouteTypes(context.Background())

	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Local", types[1].Description)
}

func TestListRouteEdges(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-all-bus-routes", r.URL.Path)
		w.Write([]byte(`{"routes":[{"route_id":5,"edge_id":1,"source":10,"target":11,
			"geom":{"type":"LineString","coordinates":[[1,1],[2,2]]}}]}`))
	})

	edges, err := c.ListRouteEdges(context.Background())

	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, uint(5), edges[0].RouteID)
	assert.JSONEq(t, `{"type":"LineString","coordinates":[[1,1],[2,2]]}`, string(edges[0].Geom))
}
