package models

// Vertex is a routable node of the road graph, as imported from OSM.
// Geom is only populated when the resolver returns it; it is not a column.
type Vertex struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	OsmID     int64      `json:"osm_id" gorm:"column:osm_id;index"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Geom      *PointGeom `json:"geom,omitempty" gorm:"-"`
}

// TableName keeps the graph table name independent of gorm pluralisation.
func (Vertex) TableName() string {
	return "vertices"
}

// PointGeom is the GeoJSON point (with CRS) attached to a vertex.
type PointGeom struct {
	Type string `json:"type"`
	CRS  struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
	Coordinates [2]float64 `json:"coordinates"`
}
