package routes

import (
	"github.com/gin-gonic/gin"

	"transit_admin/internal/controllers"
)

// CatalogRoutes serves the route type picker and map overlay from whichever
// backend is active, plus the persistence API itself when the store is local.
func CatalogRoutes(r *gin.Engine, d Deps) {
	r.GET("/route-types", controllers.ListRouteTypes(d.Catalog))
	r.GET("/routes/overlay", controllers.RouteOverlay(d.Edges))

	if d.Store == nil {
		return
	}
	cc := controllers.NewCatalogController(d.Store)
	r.GET("/nearest", cc.Nearest)
	r.POST("/create-bus-route", cc.CreateBusRoute)
	r.GET("/get-all-bus-routes", cc.GetAllBusRoutes)
	r.DELETE("/delete-bus-route", cc.DeleteBusRoute)
	r.GET("/get-all-bus-types", cc.GetAllBusTypes)
	r.POST("/create-bus-type", cc.CreateBusType)
	r.DELETE("/delete-bus-type", cc.DeleteBusType)
}
