package models

import (
	"time"
)

type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "AVAILABLE"   // Доступен для поездок
	VehicleStatusInUse       VehicleStatus = "IN_USE"      // Занят в поездке
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE" // На обслуживании
	VehicleStatusInactive    VehicleStatus = "INACTIVE"    // Выведен из эксплуатации
)

type Vehicle struct {
	ID                 uint          `json:"id" gorm:"primaryKey"`
	MunicipalityID     uint          `json:"municipality_id" gorm:"not null;index"`
	Plate              string        `json:"plate" gorm:"not null;type:varchar(10)"`
	Model              string        `json:"model" gorm:"not null;type:varchar(255)"`
	Year               int           `json:"year"`
	Capacity           int           `json:"capacity" gorm:"not null"`
	InitialOdometer    float64       `json:"initial_odometer" gorm:"default:0"`
	CurrentOdometer    float64       `json:"current_odometer" gorm:"default:0"`
	MonthlyDistanceCap *float64      `json:"monthly_distance_cap,omitempty" gorm:"default:null"`
	Status             VehicleStatus `json:"status" gorm:"type:varchar(20);default:'AVAILABLE'"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type VehicleResponse struct {
	ID                 uint          `json:"id"`
	Plate              string        `json:"plate"`
	Model              string        `json:"model"`
	Year               int           `json:"year"`
	Capacity           int           `json:"capacity"`
	CurrentOdometer    float64       `json:"current_odometer"`
	MonthlyDistanceCap *float64      `json:"monthly_distance_cap,omitempty"`
	Status             VehicleStatus `json:"status"`
}
