package submit

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit_admin/internal/builder"
	"transit_admin/internal/geo"
	"transit_admin/internal/models"
	"transit_admin/internal/routing"
)

type recordingCreator struct {
	calls []models.CreateRouteRequest
	err   error
}

func (r *recordingCreator) CreateRoute(_ context.Context, req models.CreateRouteRequest) error {
	r.calls = append(r.calls, req)
	return r.err
}

func lineRouter() routing.Router {
	return routing.RouterFunc(func(_ context.Context, wp []geo.Location) (routing.Route, error) {
		return routing.Route{
			Weight:   100,
			Geometry: geo.NewLineString([][]float64{{1, 1}, {2, 2}}),
		}, nil
	})
}

func twoStopSession(t *testing.T) *builder.Session {
	t.Helper()
	log, _ := test.NewNullLogger()
	s := builder.NewSession(lineRouter(), builder.WithLogger(log))
	s.AddStop(context.Background(), models.Vertex{ID: 11, Longitude: 10, Latitude: 20})
	s.AddStop(context.Background(), models.Vertex{ID: 12, Longitude: 30, Latitude: 40})
	return s
}

func uintPtr(v uint) *uint { return &v }

func TestAssemble(t *testing.T) {
	snap := builder.Snapshot{
		Stops:    []builder.Stop{{ID: "a", Index: 1}, {ID: "b", Index: 2}},
		Vertices: []models.Vertex{{ID: 11}, {ID: 12}},
		Segments: []builder.Segment{{
			Weight:   100,
			Geometry: geo.NewLineString([][]float64{{1, 1}, {2.5, 2}}),
		}},
		RouteTypeID: uintPtr(4),
	}

	req, err := Assemble(snap, "Line 7")

	require.NoError(t, err)
	assert.Equal(t, []float64{10}, req.Weights)
	assert.Equal(t, []string{"LINESTRING(1 1, 2.5 2)"}, req.Geometry)
	assert.Equal(t, []int64{11, 12}, []int64{req.Vertices[0].ID, req.Vertices[1].ID})
	assert.Equal(t, "Line 7", req.Description)
	assert.Equal(t, uint(4), req.BusTypeID)
}

func TestAssembleSingleStop(t *testing.T) {
	snap := builder.Snapshot{
		Stops:       []builder.Stop{{ID: "a", Index: 1}},
		Vertices:    []models.Vertex{{ID: 11}},
		RouteTypeID: uintPtr(1),
	}

	req, err := Assemble(snap, "")

	require.NoError(t, err)
	assert.Len(t, req.Vertices, 1)
	assert.Empty(t, req.Weights)
	assert.Empty(t, req.Geometry)
}

func TestAssembleRejectsNonLineString(t *testing.T) {
	snap := builder.Snapshot{
		Stops:       []builder.Stop{{ID: "a"}, {ID: "b"}},
		Vertices:    []models.Vertex{{ID: 1}, {ID: 2}},
		Segments:    []builder.Segment{{Geometry: geo.LineString{Type: "Point"}}},
		RouteTypeID: uintPtr(1),
	}

	_, err := Assemble(snap, "")
	assert.True(t, errors.Is(err, geo.ErrNotLineString))
}

func TestAssembleRequiresStops(t *testing.T) {
	_, err := Assemble(builder.Snapshot{RouteTypeID: uintPtr(1)}, "")
	assert.True(t, errors.Is(err, ErrEmptyRoute))
}

func TestSubmitWithoutRouteType(t *testing.T) {
	creator := &recordingCreator{}
	s := twoStopSession(t)

	_, err := NewSubmitter(creator, nil).Submit(context.Background(), s, "x")

	assert.True(t, errors.Is(err, ErrRouteTypeNotSelected))
	assert.Empty(t, creator.calls)
	assert.Len(t, s.Snapshot().Stops, 2)
}

func TestSubmitSuccessClearsSession(t *testing.T) {
	creator := &recordingCreator{}
	s := twoStopSession(t)
	s.SelectRouteType(2)

	req, err := NewSubmitter(creator, nil).Submit(context.Background(), s, "Airport express")

	require.NoError(t, err)
	require.Len(t, creator.calls, 1)
	assert.Equal(t, req, creator.calls[0])
	assert.Equal(t, []float64{10}, req.Weights)
	assert.Equal(t, []string{"LINESTRING(1 1, 2 2)"}, req.Geometry)
	assert.Equal(t, uint(2), req.BusTypeID)

	snap := s.Snapshot()
	assert.Empty(t, snap.Stops)
	assert.Nil(t, snap.RouteTypeID)
}

func TestSubmitFailureKeepsSession(t *testing.T) {
	boom := errors.New("502 bad gateway")
	creator := &recordingCreator{err: boom}
	s := twoStopSession(t)
	s.SelectRouteType(2)
	before := s.Snapshot()

	_, err := NewSubmitter(creator, nil).Submit(context.Background(), s, "x")

	assert.True(t, errors.Is(err, boom))
	assert.Len(t, creator.calls, 1)
	assert.Equal(t, before, s.Snapshot())
}

type editingCreator struct {
	session *builder.Session
	calls   int
}

func (e *editingCreator) CreateRoute(ctx context.Context, _ models.CreateRouteRequest) error {
	e.calls++
	e.session.AddStop(ctx, models.Vertex{ID: 13, Longitude: 50, Latitude: 60})
	return nil
}

func TestSubmitKeepsEditsMadeDuringCreate(t *testing.T) {
	s := twoStopSession(t)
	s.SelectRouteType(2)
	creator := &editingCreator{session: s}

	req, err := NewSubmitter(creator, nil).Submit(context.Background(), s, "x")

	require.NoError(t, err)
	assert.Equal(t, 1, creator.calls)
	assert.Len(t, req.Vertices, 2)

	snap := s.Snapshot()
	assert.Len(t, snap.Stops, 3)
	require.NotNil(t, snap.RouteTypeID)
}
