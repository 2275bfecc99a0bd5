package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"transit_admin/internal/builder"
	"transit_admin/internal/controllers"
	"transit_admin/internal/submit"
)

// Deps are the collaborators the HTTP surface is built from.
// Store is nil when routes are persisted by a remote backend.
type Deps struct {
	Sessions  *builder.Registry
	Hub       *controllers.SessionHub
	Submitter *submit.Submitter
	Resolver  controllers.VertexResolver
	Catalog   controllers.RouteTypeCatalog
	Edges     controllers.RouteEdgeSource
	Store     controllers.RouteStore
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	// request logs share the rotating file configured for logrus
	r.Use(ginlog.SetLogger(ginlog.WithWriter(logrus.StandardLogger().Out)), gin.Recovery())

	SessionRoutes(r, d)
	CatalogRoutes(r, d)
	WebSocketRoutes(r, d)

	return r
}
