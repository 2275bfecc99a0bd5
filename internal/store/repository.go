// Package store is the PostGIS-backed implementation of the route persistence API.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"transit_admin/internal/geo"
	"transit_admin/internal/models"
)

var (
	ErrNoVertex          = errors.New("no vertex near location")
	ErrIncompleteRoute   = errors.New("route needs one weight and one geometry per segment")
	ErrUnknownRouteType  = errors.New("unknown route type")
	ErrRouteTypeConflict = errors.New("route type already exists")
)

// Repository reads and writes routes, route types and graph vertices.
type Repository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewRepository(db *gorm.DB, log logrus.FieldLogger) *Repository {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Repository{db: db, log: log.WithField("component", "store")}
}

// NearestVertex finds the graph vertex closest to the coordinate using the
// PostGIS KNN operator.
func (r *Repository) NearestVertex(ctx context.Context, lat, lon float64) (models.Vertex, error) {
	var v models.Vertex
	err := r.db.WithContext(ctx).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ST_SetSRID(ST_MakePoint(longitude, latitude), 4326) <-> ST_SetSRID(ST_MakePoint(?, ?), 4326)",
			Vars:               []interface{}{lon, lat},
			WithoutParentheses: true,
		}}).
		Limit(1).
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Vertex{}, ErrNoVertex
	}
	if err != nil {
		return models.Vertex{}, fmt.Errorf("nearest vertex: %w", err)
	}
	return v, nil
}

// CreateRoute stores an assembled route.
func (r *Repository) CreateRoute(ctx context.Context, req models.CreateRouteRequest) error {
	_, err := r.SaveRoute(ctx, req)
	return err
}

// SaveRoute stores the route and one edge per segment in a single transaction.
func (r *Repository) SaveRoute(ctx context.Context, req models.CreateRouteRequest) (models.BusRoute, error) {
	route, err := buildRoute(req)
	if err != nil {
		return models.BusRoute{}, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt models.RouteType
		if err := tx.First(&rt, req.BusTypeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrUnknownRouteType, req.BusTypeID)
			}
			return err
		}
		return tx.Create(&route).Error
	})
	if err != nil {
		r.log.WithError(err).WithField("bus_type_id", req.BusTypeID).Error("Save bus route failed")
		return models.BusRoute{}, err
	}

	r.log.WithFields(logrus.Fields{
		"route_id": route.ID,
		"edges":    len(route.Edges),
	}).Info("Bus route saved")
	return route, nil
}

// buildRoute validates the payload and turns each segment into an edge.
func buildRoute(req models.CreateRouteRequest) (models.BusRoute, error) {
	segments := len(req.Vertices) - 1
	if segments < 0 || len(req.Weights) != segments || len(req.Geometry) != segments {
		return models.BusRoute{}, fmt.Errorf("%w: %d vertices, %d weights, %d geometries",
			ErrIncompleteRoute, len(req.Vertices), len(req.Weights), len(req.Geometry))
	}

	route := models.BusRoute{
		Description: req.Description,
		RouteTypeID: req.BusTypeID,
		VertexIDs:   make(pq.Int64Array, len(req.Vertices)),
		Edges:       make([]models.RouteEdge, segments),
	}
	for i, v := range req.Vertices {
		route.VertexIDs[i] = v.ID
	}
	for i := 0; i < segments; i++ {
		wkbGeom, err := geo.WKTToWKB(req.Geometry[i])
		if err != nil {
			return models.BusRoute{}, fmt.Errorf("segment %d geometry: %w", i, err)
		}
		src, dst := req.Vertices[i], req.Vertices[i+1]
		route.Edges[i] = models.RouteEdge{
			Seq:         i + 1,
			Source:      src.ID,
			SourceLat:   src.Latitude,
			SourceLon:   src.Longitude,
			Target:      dst.ID,
			TargetLat:   dst.Latitude,
			TargetLon:   dst.Longitude,
			Cost:        req.Weights[i],
			ReverseCost: req.Weights[i],
			Geometry:    wkbGeom,
		}
	}
	return route, nil
}

// ListRouteEdges returns every stored edge flattened with its route and type,
// ordered by route then edge sequence.
func (r *Repository) ListRouteEdges(ctx context.Context) ([]models.RouteEdgeView, error) {
	var routes []models.BusRoute
	err := r.db.WithContext(ctx).
		Preload("RouteType").
		Preload("Edges", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Order("id").
		Find(&routes).Error
	if err != nil {
		return nil, fmt.Errorf("list bus routes: %w", err)
	}
	return flattenRoutes(routes)
}

func flattenRoutes(routes []models.BusRoute) ([]models.RouteEdgeView, error) {
	views := make([]models.RouteEdgeView, 0, len(routes))
	for _, route := range routes {
		for _, e := range route.Edges {
			g, err := geo.WKBToGeoJSON(e.Geometry)
			if err != nil {
				return nil, fmt.Errorf("edge %d geometry: %w", e.ID, err)
			}
			views = append(views, models.RouteEdgeView{
				RouteID:            route.ID,
				RouteDescription:   route.Description,
				BusTypeID:          route.RouteTypeID,
				BusTypeDescription: route.RouteType.Description,
				EdgeID:             e.ID,
				Source:             e.Source,
				SourceLat:          e.SourceLat,
				SourceLon:          e.SourceLon,
				Target:             e.Target,
				TargetLat:          e.TargetLat,
				TargetLon:          e.TargetLon,
				Cost:               e.Cost,
				ReverseCost:        e.ReverseCost,
				Geom:               json.RawMessage(g),
			})
		}
	}
	return views, nil
}

// DeleteRoute removes a route and its edges.
func (r *Repository) DeleteRoute(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Unscoped().Select("Edges").Delete(&models.BusRoute{Model: gorm.Model{ID: id}})
	if res.Error != nil {
		return fmt.Errorf("delete bus route %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListRouteTypes returns the catalog ordered by id.
func (r *Repository) ListRouteTypes(ctx context.Context) ([]models.RouteType, error) {
	var types []models.RouteType
	if err := r.db.WithContext(ctx).Order("id").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("list bus types: %w", err)
	}
	return types, nil
}

// CreateRouteType adds a catalog entry. Descriptions are unique.
func (r *Repository) CreateRouteType(ctx context.Context, description string) (models.RouteType, error) {
	rt := models.RouteType{Description: description}
	err := r.db.WithContext(ctx).Create(&rt).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.RouteType{}, fmt.Errorf("%w: %q", ErrRouteTypeConflict, description)
	}
	if err != nil {
		return models.RouteType{}, fmt.Errorf("create bus type: %w", err)
	}
	return rt, nil
}

// DeleteRouteType removes a catalog entry. Entries still used by a route cannot be removed.
func (r *Repository) DeleteRouteType(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.RouteType{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete bus type %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
