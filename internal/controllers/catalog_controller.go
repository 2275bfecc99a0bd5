package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"transit_admin/internal/geo"
	"transit_admin/internal/models"
	"transit_admin/internal/overlay"
	"transit_admin/internal/store"
)

// RouteEdgeSource lists stored route edges.
type RouteEdgeSource interface {
	ListRouteEdges(ctx context.Context) ([]models.RouteEdgeView, error)
}

// RouteStore is the local persistence backend.
type RouteStore interface {
	VertexResolver
	RouteTypeCatalog
	RouteEdgeSource
	SaveRoute(ctx context.Context, req models.CreateRouteRequest) (models.BusRoute, error)
	DeleteRoute(ctx context.Context, id uint) error
	CreateRouteType(ctx context.Context, description string) (models.RouteType, error)
	DeleteRouteType(ctx context.Context, id uint) error
}

// ListRouteTypes serves the route type picker.
// @Router /route-types [get]
func ListRouteTypes(catalog RouteTypeCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		types, err := catalog.ListRouteTypes(c.Request.Context())
		if err != nil {
			logrus.WithError(err).Error("ListRouteTypes: failed to load route types")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load route types"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"route_types": types})
	}
}

// RouteOverlay serves the stored routes grouped for the live map.
// @Router /routes/overlay [get]
func RouteOverlay(edges RouteEdgeSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := edges.ListRouteEdges(c.Request.Context())
		if err != nil {
			logrus.WithError(err).Error("RouteOverlay: failed to load bus routes")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load bus routes"})
			return
		}
		c.JSON(http.StatusOK, overlay.Build(rows))
	}
}

// CatalogController exposes the local store under the persistence API paths.
type CatalogController struct {
	store RouteStore
}

func NewCatalogController(s RouteStore) *CatalogController {
	return &CatalogController{store: s}
}

func queryID(c *gin.Context, key string) (uint, bool) {
	raw := c.Query(key)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing " + key})
		return 0, false
	}
	return uint(id), true
}

// Nearest returns the graph vertex closest to ?lat=&lon=.
func (cc *CatalogController) Nearest(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query parameters are required"})
		return
	}
	v, err := cc.store.NearestVertex(c.Request.Context(), lat, lon)
	if errors.Is(err, store.ErrNoVertex) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logrus.WithError(err).Error("Nearest: vertex lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Vertex lookup failed"})
		return
	}
	c.JSON(http.StatusOK, v)
}

// CreateBusRoute stores a route posted by a dashboard.
func (cc *CatalogController) CreateBusRoute(c *gin.Context) {
	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("CreateBusRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	route, err := cc.store.SaveRoute(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "Bus route created", "route_id": route.ID})
	case errors.Is(err, store.ErrIncompleteRoute), errors.Is(err, geo.ErrNotLineString):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnknownRouteType):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create bus route failed: " + err.Error()})
	}
}

// GetAllBusRoutes lists every stored edge.
func (cc *CatalogController) GetAllBusRoutes(c *gin.Context) {
	rows, err := cc.store.ListRouteEdges(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetAllBusRoutes: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load bus routes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": rows})
}

// DeleteBusRoute removes ?routeId=.
func (cc *CatalogController) DeleteBusRoute(c *gin.Context) {
	id, ok := queryID(c, "routeId")
	if !ok {
		return
	}
	err := cc.store.DeleteRoute(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bus route not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete bus route failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bus route deleted"})
}

// GetAllBusTypes lists the route type catalog.
func (cc *CatalogController) GetAllBusTypes(c *gin.Context) {
	types, err := cc.store.ListRouteTypes(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetAllBusTypes: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load bus types"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"busTypes": types})
}

// CreateBusType adds a route type.
func (cc *CatalogController) CreateBusType(c *gin.Context) {
	var input struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	rt, err := cc.store.CreateRouteType(c.Request.Context(), input.Description)
	if errors.Is(err, store.ErrRouteTypeConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create bus type failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rt)
}

// DeleteBusType removes ?busTypeId=.
func (cc *CatalogController) DeleteBusType(c *gin.Context) {
	id, ok := queryID(c, "busTypeId")
	if !ok {
		return
	}
	err := cc.store.DeleteRouteType(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Bus type deleted"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Bus type not found"})
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		c.JSON(http.StatusConflict, gin.H{"error": "Bus type is still used by a route"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete bus type failed: " + err.Error()})
	}
}
