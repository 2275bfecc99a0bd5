package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// BusRoute is a persisted route: an ordered vertex walk split into edges.
type BusRoute struct {
	gorm.Model

	Description string        `json:"description"`
	RouteTypeID uint          `json:"bus_type_id" gorm:"index"`
	RouteType   RouteType     `json:"-" gorm:"foreignKey:RouteTypeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	VertexIDs   pq.Int64Array `json:"vertex_ids" gorm:"type:bigint[]"`

	Edges []RouteEdge `json:"edges,omitempty" gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// RouteEdge joins two consecutive vertices of a route.
// Geometry is stored as WKB, the same way LINESTRINGs are kept elsewhere.
type RouteEdge struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	RouteID     uint    `json:"route_id" gorm:"index"`
	Seq         int     `json:"seq"`
	Source      int64   `json:"source"`
	SourceLat   float64 `json:"source_lat"`
	SourceLon   float64 `json:"source_lon"`
	Target      int64   `json:"target"`
	TargetLat   float64 `json:"target_lat"`
	TargetLon   float64 `json:"target_lon"`
	Cost        float64 `json:"cost"`
	ReverseCost float64 `json:"reverse_cost"`
	Geometry    []byte  `json:"-" gorm:"type:bytea"`
}
