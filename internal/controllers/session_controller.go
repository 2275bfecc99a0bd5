package controllers

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"transit_admin/internal/builder"
	"transit_admin/internal/geo"
	"transit_admin/internal/models"
	"transit_admin/internal/submit"
)

// VertexResolver snaps a clicked coordinate to the road graph.
type VertexResolver interface {
	NearestVertex(ctx context.Context, lat, lon float64) (models.Vertex, error)
}

// RouteTypeCatalog lists the route types a route can be filed under.
type RouteTypeCatalog interface {
	ListRouteTypes(ctx context.Context) ([]models.RouteType, error)
}

// SessionController serves the route drawing workflow.
type SessionController struct {
	sessions  *builder.Registry
	resolver  VertexResolver
	catalog   RouteTypeCatalog
	submitter *submit.Submitter
	hub       *SessionHub
}

func NewSessionController(sessions *builder.Registry, resolver VertexResolver, catalog RouteTypeCatalog,
	submitter *submit.Submitter, hub *SessionHub) *SessionController {
	return &SessionController{
		sessions:  sessions,
		resolver:  resolver,
		catalog:   catalog,
		submitter: submitter,
		hub:       hub,
	}
}

type outcomeView struct {
	Requested int      `json:"requested"`
	Routed    int      `json:"routed"`
	Stale     bool     `json:"stale"`
	Errors    []string `json:"errors,omitempty"`
}

func toOutcomeView(out builder.Outcome) outcomeView {
	v := outcomeView{Requested: out.Requested, Routed: out.Routed, Stale: out.Stale}
	for _, f := range out.Failures {
		v.Errors = append(v.Errors, f.Error())
	}
	return v
}

func (sc *SessionController) session(c *gin.Context) (*builder.Session, bool) {
	s, ok := sc.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	}
	return s, ok
}

// CreateSession opens an empty build session.
func (sc *SessionController) CreateSession(c *gin.Context) {
	s := sc.sessions.Create()
	c.JSON(http.StatusCreated, s.Snapshot())
}

// GetSession returns the current snapshot.
func (sc *SessionController) GetSession(c *gin.Context) {
	s, ok := sc.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// DiscardSession cancels a build: the state is cleared and the session forgotten.
func (sc *SessionController) DiscardSession(c *gin.Context) {
	id := c.Param("id")
	if !sc.sessions.Discard(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if sc.hub != nil {
		sc.hub.CloseSession(id)
	}
	c.Status(http.StatusNoContent)
}

// AddStop resolves the clicked point to a vertex and appends it as a stop.
func (sc *SessionController) AddStop(c *gin.Context) {
	s, ok := sc.session(c)
	if !ok {
		return
	}
	var input struct {
		Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
		Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	vertex, err := sc.resolver.NearestVertex(c.Request.Context(), *input.Latitude, *input.Longitude)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": s.ID(),
			"latitude":   *input.Latitude,
			"longitude":  *input.Longitude,
		}).Warn("AddStop: vertex resolution failed, no stop added")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not resolve a road vertex: " + err.Error()})
		return
	}

	stop, out := s.AddStop(c.Request.Context(), vertex)
	c.JSON(http.StatusCreated, gin.H{
		"stop":    stop,
		"routing": toOutcomeView(out),
		"session": s.Snapshot(),
	})
}

// DeleteStop removes a stop and rebuilds the route.
func (sc *SessionController) DeleteStop(c *gin.Context) {
	s, ok := sc.session(c)
	if !ok {
		return
	}
	out, found := s.DeleteStop(c.Request.Context(), c.Param("stopId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "stop not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"routing": toOutcomeView(out),
		"session": s.Snapshot(),
	})
}

// RenameStop sets a stop's display name.
func (sc *SessionController) RenameStop(c *gin.Context) {
	s, ok := sc.session(c)
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if !s.RenameStop(c.Param("stopId"), input.Name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "stop not found"})
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// ClearStops empties the session.
func (sc *SessionController) ClearStops(c *gin.Context) {
	s, ok := sc.session(c)
	if !ok {
		return
	}
	s.ClearAll()
	c.JSON(http.StatusOK, s.Snapshot())
}

// SelectRouteType picks the catalog entry the route will be filed under.
func (sc *SessionController) SelectRouteType(c *gin.Context) {
	s, ok := sc.session(c)
	if !ok {
		return
	}
	var input struct {
		RouteTypeID uint `json:"route_type_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	types, err := sc.catalog.ListRouteTypes(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("SelectRouteType: failed to load route types")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load route types"})
		return
	}
	known := slices.ContainsFunc(types, func(rt models.RouteType) bool { return rt.ID == input.RouteTypeID })
	if !known {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown route type"})
		return
	}

	s.SelectRouteType(input.RouteTypeID)
	c.JSON(http.StatusOK, s.Snapshot())
}

// ClearRouteType forgets the selected route type.
func (sc *SessionController) ClearRouteType(c *gin.Context) {
	s, ok := sc.session(c)
	if !ok {
		return
	}
	s.ClearRouteTypeSelection()
	c.JSON(http.StatusOK, s.Snapshot())
}

// Submit persists the drawn route. The session is cleared only on success.
func (sc *SessionController) Submit(c *gin.Context) {
	s, ok := sc.session(c)
	if !ok {
		return
	}
	var input struct {
		Description string `json:"description"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
	}

	req, err := sc.submitter.Submit(c.Request.Context(), s, input.Description)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "Bus route created", "route": req})
	case errors.Is(err, submit.ErrRouteTypeNotSelected),
		errors.Is(err, submit.ErrEmptyRoute),
		errors.Is(err, geo.ErrNotLineString):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create bus route: " + err.Error()})
	}
}
