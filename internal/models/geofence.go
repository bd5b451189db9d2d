package models

import (
	"time"
)

// Geofence — фиксированная геозона водителя: центр и радиус.
// AlertActive хранит состояние гистерезиса, это не журнал событий.
type Geofence struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	MunicipalityID uint       `json:"municipality_id" gorm:"not null;index"`
	DriverID       uint       `json:"driver_id" gorm:"not null;uniqueIndex"`
	CenterLat      float64    `json:"center_lat" gorm:"not null"`
	CenterLng      float64    `json:"center_lng" gorm:"not null"`
	RadiusKm       float64    `json:"radius_km" gorm:"not null"`
	Active         bool       `json:"active"`
	AlertActive    bool       `json:"alert_active" gorm:"default:false"`
	LastAlertedAt  *time.Time `json:"last_alerted_at,omitempty" gorm:"default:null"`
	LastClearedAt  *time.Time `json:"last_cleared_at,omitempty" gorm:"default:null"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Driver Driver `json:"-" gorm:"foreignKey:DriverID"`
}
