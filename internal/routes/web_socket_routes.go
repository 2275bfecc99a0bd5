package routes

import (
	"github.com/gin-gonic/gin"

	"transit_admin/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, d Deps) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/sessions/:id", controllers.HandleSessionWebSocket(d.Sessions, d.Hub))
	}
}
