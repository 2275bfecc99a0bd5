package models

// RouteType is a catalog entry a new route must belong to (e.g. "Express", "Feeder").
type RouteType struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Description string `json:"description" gorm:"uniqueIndex;not null" binding:"required"`
}
