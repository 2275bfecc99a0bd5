package models

import "encoding/json"

// CreateRouteRequest is the body of POST /create-bus-route.
// Weights and Geometry are per segment; Geometry holds WKT LINESTRINGs.
type CreateRouteRequest struct {
	Vertices    []Vertex  `json:"vertices" binding:"required,min=1"`
	Weights     []float64 `json:"weights"`
	Geometry    []string  `json:"geometry"`
	Description string    `json:"description"`
	BusTypeID   uint      `json:"busTypeId" binding:"required"`
}

// RouteEdgeView is one row of GET /get-all-bus-routes: an edge flattened with
// its route and route type. Geom is a GeoJSON LineString.
type RouteEdgeView struct {
	RouteID            uint            `json:"route_id"`
	RouteDescription   string          `json:"route_description"`
	BusTypeID          uint            `json:"bus_type_id"`
	BusTypeDescription string          `json:"bus_type_description"`
	EdgeID             uint            `json:"edge_id"`
	Source             int64           `json:"source"`
	SourceLat          float64         `json:"source_lat"`
	SourceLon          float64         `json:"source_lon"`
	Target             int64           `json:"target"`
	TargetLat          float64         `json:"target_lat"`
	TargetLon          float64         `json:"target_lon"`
	Cost               float64         `json:"cost"`
	ReverseCost        float64         `json:"reverse_cost"`
	Geom               json.RawMessage `json:"geom,omitempty"`
}
