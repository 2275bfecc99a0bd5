package routing

import (
	"context"
	"errors"

	"transit_admin/internal/geo"
)

// ErrNoRoute is returned when the provider answers but has no route between the waypoints.
var ErrNoRoute = errors.New("no route found")

// Route is the path the provider computed between ordered waypoints.
// Weight is in provider cost units.
type Route struct {
	Weight   float64        `json:"weight"`
	Duration float64        `json:"duration"`
	Distance float64        `json:"distance"`
	Geometry geo.LineString `json:"geometry"`
}

// Router computes a path through ordered waypoints.
type Router interface {
	Route(ctx context.Context, waypoints []geo.Location) (Route, error)
}

// RouterFunc adapts a plain function to Router.
type RouterFunc func(ctx context.Context, waypoints []geo.Location) (Route, error)

// Route calls f.
func (f RouterFunc) Route(ctx context.Context, waypoints []geo.Location) (Route, error) {
	return f(ctx, waypoints)
}
