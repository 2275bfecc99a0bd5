// Package overlay shapes stored route edges for the live map.
package overlay

import (
	"encoding/json"

	"transit_admin/internal/geo"
	"transit_admin/internal/models"
)

// Palette is cycled by route position; colours stay distinct on the base map.
var Palette = []string{
	"#FF5733",
	"#33A8FF",
	"#4CAF50",
	"#9C27B0",
	"#FFC107",
	"#E91E63",
	"#3F51B5",
	"#00BCD4",
	"#FF9800",
	"#8BC34A",
	"#673AB7",
	"#2196F3",
}

// ColorFor returns the palette colour for the i-th route.
func ColorFor(i int) string {
	return Palette[i%len(Palette)]
}

// Stop is a distinct edge endpoint of a stored route.
type Stop struct {
	RouteID  uint         `json:"route_id"`
	Location geo.Location `json:"location"`
	Index    int          `json:"index"`
}

// Route is one stored route with its edges in stored order.
type Route struct {
	RouteID            uint                   `json:"route_id"`
	Description        string                 `json:"description"`
	BusTypeID          uint                   `json:"bus_type_id"`
	BusTypeDescription string                 `json:"bus_type_description"`
	Color              string                 `json:"color"`
	Edges              []models.RouteEdgeView `json:"edges"`
	Geometries         []json.RawMessage      `json:"geometries"`
	Stops              []Stop                 `json:"stops"`
}

// TypeGroup lists the routes of one route type, in first-seen order.
type TypeGroup struct {
	BusTypeID   uint   `json:"bus_type_id"`
	Description string `json:"description"`
	RouteIDs    []uint `json:"route_ids"`
}

// Overlay is everything the live map draws.
type Overlay struct {
	Routes []Route     `json:"routes"`
	Types  []TypeGroup `json:"types"`
}

// Build groups edge rows by route and by route type, keeping the order in
// which each route and type first appears.
func Build(edges []models.RouteEdgeView) Overlay {
	out := Overlay{Routes: []Route{}, Types: []TypeGroup{}}
	routeAt := map[uint]int{}
	typeAt := map[uint]int{}

	for _, e := range edges {
		i, ok := routeAt[e.RouteID]
		if !ok {
			i = len(out.Routes)
			routeAt[e.RouteID] = i
			out.Routes = append(out.Routes, Route{
				RouteID:            e.RouteID,
				Description:        e.RouteDescription,
				BusTypeID:          e.BusTypeID,
				BusTypeDescription: e.BusTypeDescription,
				Color:              ColorFor(i),
			})

			t, ok := typeAt[e.BusTypeID]
			if !ok {
				t = len(out.Types)
				typeAt[e.BusTypeID] = t
				out.Types = append(out.Types, TypeGroup{BusTypeID: e.BusTypeID, Description: e.BusTypeDescription})
			}
			out.Types[t].RouteIDs = append(out.Types[t].RouteIDs, e.RouteID)
		}

		r := &out.Routes[i]
		r.Edges = append(r.Edges, e)
		if len(e.Geom) > 0 {
			r.Geometries = append(r.Geometries, e.Geom)
		}
	}

	for i := range out.Routes {
		out.Routes[i].Stops = deriveStops(out.Routes[i].RouteID, out.Routes[i].Edges)
	}
	return out
}

// deriveStops collects each distinct source and target location in edge order.
func deriveStops(routeID uint, edges []models.RouteEdgeView) []Stop {
	seen := map[geo.Location]bool{}
	stops := []Stop{}
	add := func(loc geo.Location) {
		if seen[loc] {
			return
		}
		seen[loc] = true
		stops = append(stops, Stop{RouteID: routeID, Location: loc, Index: len(stops) + 1})
	}
	for _, e := range edges {
		add(geo.Location{Longitude: e.SourceLon, Latitude: e.SourceLat})
		add(geo.Location{Longitude: e.TargetLon, Latitude: e.TargetLat})
	}
	return stops
}
