package models

import (
	"time"
)

// Tire — шина с накопленным пробегом. AccumulatedKm растет с каждой
// завершенной поездкой машины, на которой шина установлена.
type Tire struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	MunicipalityID uint      `json:"municipality_id" gorm:"not null;index"`
	Serial         string    `json:"serial" gorm:"not null;type:varchar(50)"`
	Brand          string    `json:"brand" gorm:"type:varchar(100)"`
	RatedLifeKm    float64   `json:"rated_life_km" gorm:"not null"`
	AccumulatedKm  float64   `json:"accumulated_km" gorm:"default:0"`
	KmSinceRetread float64   `json:"km_since_retread" gorm:"default:0"`
	RetreadCount   int       `json:"retread_count" gorm:"default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// VehicleTire — установка шины на машину. Пока RemovedAt не заполнен,
// позиция на машине должна быть уникальной.
type VehicleTire struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	VehicleID   uint       `json:"vehicle_id" gorm:"not null;index"`
	TireID      uint       `json:"tire_id" gorm:"not null;index"`
	Position    string     `json:"position" gorm:"type:varchar(20);not null"` // FL, FR, RL, RR, SPARE
	InstalledAt time.Time  `json:"installed_at"`
	RemovedAt   *time.Time `json:"removed_at,omitempty" gorm:"default:null"`

	Vehicle Vehicle `json:"-" gorm:"foreignKey:VehicleID"`
	Tire    Tire    `json:"-" gorm:"foreignKey:TireID"`
}
