// Package submit turns a finished build session into a create-bus-route call.
package submit

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"transit_admin/internal/builder"
	"transit_admin/internal/models"
)

// WeightDivisor converts router cost units into the units the route store expects.
const WeightDivisor = 10

var (
	ErrRouteTypeNotSelected = errors.New("route type not selected")
	ErrEmptyRoute           = errors.New("route has no stops")
)

// RouteCreator persists an assembled route.
type RouteCreator interface {
	CreateRoute(ctx context.Context, req models.CreateRouteRequest) error
}

// Session is the part of a build session the submitter needs.
type Session interface {
	Snapshot() builder.Snapshot
	ClearIfVersion(v uint64) bool
}

// Assemble builds the persistence payload from a snapshot.
func Assemble(snap builder.Snapshot, description string) (models.CreateRouteRequest, error) {
	if snap.RouteTypeID == nil {
		return models.CreateRouteRequest{}, ErrRouteTypeNotSelected
	}
	if len(snap.Stops) == 0 {
		return models.CreateRouteRequest{}, ErrEmptyRoute
	}

	req := models.CreateRouteRequest{
		Vertices:    append([]models.Vertex(nil), snap.Vertices...),
		Weights:     make([]float64, len(snap.Segments)),
		Geometry:    make([]string, len(snap.Segments)),
		Description: description,
		BusTypeID:   *snap.RouteTypeID,
	}
	for i, seg := range snap.Segments {
		wkt, err := seg.Geometry.WKT()
		if err != nil {
			return models.CreateRouteRequest{}, fmt.Errorf("segment %d: %w", i, err)
		}
		req.Weights[i] = seg.Weight / WeightDivisor
		req.Geometry[i] = wkt
	}
	return req, nil
}

// Submitter assembles and persists sessions.
type Submitter struct {
	creator RouteCreator
	log     logrus.FieldLogger
}

func NewSubmitter(creator RouteCreator, log logrus.FieldLogger) *Submitter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Submitter{creator: creator, log: log.WithField("component", "submit")}
}

// Submit persists the session's route and clears it on success. On any failure
// the session is left as it was so the operator can retry. If the session was
// edited while the create call was in flight, the route is still saved but the
// newer state is kept.
func (s *Submitter) Submit(ctx context.Context, session Session, description string) (models.CreateRouteRequest, error) {
	snap := session.Snapshot()
	log := s.log.WithField("session_id", snap.SessionID)

	req, err := Assemble(snap, description)
	if err != nil {
		log.WithError(err).Warn("Route rejected before submission")
		return models.CreateRouteRequest{}, err
	}
	if snap.MissingSegments > 0 || snap.PendingSegments > 0 {
		log.WithFields(logrus.Fields{
			"missing": snap.MissingSegments,
			"pending": snap.PendingSegments,
		}).Warn("Submitting route with incomplete segments")
	}

	if err := s.creator.CreateRoute(ctx, req); err != nil {
		log.WithError(err).Error("Failed to create bus route")
		return models.CreateRouteRequest{}, fmt.Errorf("create route: %w", err)
	}

	if !session.ClearIfVersion(snap.Version) {
		log.WithField("version", snap.Version).Warn("Session changed during submission; keeping its state")
	}
	log.WithFields(logrus.Fields{
		"vertices":    len(req.Vertices),
		"segments":    len(req.Weights),
		"bus_type_id": req.BusTypeID,
	}).Info("Bus route submitted")
	return req, nil
}
