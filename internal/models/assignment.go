package models

import (
	"time"
)

type AssignmentStatus string

const (
	AssignmentStatusDraft     AssignmentStatus = "DRAFT"     // Черновик
	AssignmentStatusConfirmed AssignmentStatus = "CONFIRMED" // Подтверждено, поездка материализована
	AssignmentStatusCancelled AssignmentStatus = "CANCELLED" // Отменено
)

// RouteAssignment — назначение машины и водителя на маршрут на конкретную дату.
// Инвариант: не более одной сгенерированной поездки; она создается ровно один раз,
// при первом переходе в CONFIRMED.
type RouteAssignment struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	MunicipalityID  uint             `json:"municipality_id" gorm:"not null;index"`
	RouteID         uint             `json:"route_id" gorm:"not null;index"`
	VehicleID       uint             `json:"vehicle_id" gorm:"not null;index"`
	DriverID        uint             `json:"driver_id" gorm:"not null;index"`
	Date            time.Time        `json:"date" gorm:"not null"`
	Status          AssignmentStatus `json:"status" gorm:"type:varchar(20);default:'DRAFT'"`
	GeneratedTripID *uint            `json:"generated_trip_id,omitempty" gorm:"default:null"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	Route   Route   `json:"-" gorm:"foreignKey:RouteID"`
	Vehicle Vehicle `json:"-" gorm:"foreignKey:VehicleID"`
	Driver  Driver  `json:"-" gorm:"foreignKey:DriverID"`
}
