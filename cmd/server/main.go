package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"transit_admin/internal/backend"
	"transit_admin/internal/builder"
	"transit_admin/internal/config"
	"transit_admin/internal/controllers"
	"transit_admin/internal/logger"
	"transit_admin/internal/middleware"
	"transit_admin/internal/routes"
	"transit_admin/internal/routing"
	"transit_admin/internal/store"
	"transit_admin/internal/submit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize structured logging to file
	if err := logger.Setup(logger.Options{File: cfg.Log.File, Level: cfg.Log.Level, Stdout: cfg.Log.Stdout}); err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}

	router := routing.NewMapboxClient(routing.MapboxConfig{
		BaseURL:     cfg.Mapbox.BaseURL,
		AccessToken: cfg.Mapbox.AccessToken,
		Profile:     cfg.Mapbox.Profile,
		Timeout:     cfg.Mapbox.Timeout,
	}, logrus.StandardLogger())

	hub := controllers.NewSessionHub()
	sessions := builder.NewRegistry(router, logrus.StandardLogger(), hub.Publish)

	deps := routes.Deps{Sessions: sessions, Hub: hub}
	var creator submit.RouteCreator
	if cfg.UseLocalStore() {
		db, err := config.InitDB(cfg.DB)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialise database")
		}
		repo := store.NewRepository(db, logrus.StandardLogger())
		deps.Resolver, deps.Catalog, deps.Edges, deps.Store = repo, repo, repo, repo
		creator = repo
		logrus.Info("Persisting routes in the local database")
	} else {
		client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logrus.StandardLogger())
		deps.Resolver, deps.Catalog, deps.Edges = client, client, client
		creator = client
		logrus.WithField("backend_url", cfg.BackendURL).Info("Persisting routes through the remote backend")
	}
	deps.Submitter = submit.NewSubmitter(creator, logrus.StandardLogger())

	r := routes.SetupRouter(deps)

	// Wrap with CORS
	handler := middleware.EnableCORS(r, cfg.AllowedOrigins...)

	addr := "0.0.0.0:" + cfg.Port
	logrus.WithField("addr", addr).Info("Server running")
	if err := http.ListenAndServe(addr, handler); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}
