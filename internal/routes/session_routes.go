package routes

import (
	"github.com/gin-gonic/gin"

	"transit_admin/internal/controllers"
)

func SessionRoutes(r *gin.Engine, d Deps) {
	sc := controllers.NewSessionController(d.Sessions, d.Resolver, d.Catalog, d.Submitter, d.Hub)

	sessions := r.Group("/sessions")
	{
		sessions.POST("", sc.CreateSession)
		sessions.GET("/:id", sc.GetSession)
		sessions.DELETE("/:id", sc.DiscardSession)

		sessions.POST("/:id/stops", sc.AddStop)
		sessions.DELETE("/:id/stops", sc.ClearStops)
		sessions.DELETE("/:id/stops/:stopId", sc.DeleteStop)
		sessions.PATCH("/:id/stops/:stopId", sc.RenameStop)

		sessions.PUT("/:id/route-type", sc.SelectRouteType)
		sessions.DELETE("/:id/route-type", sc.ClearRouteType)

		sessions.POST("/:id/submit", sc.Submit)
	}
}
