package models

import (
	"time"
)

// MonthlyOdometer — накопленный пробег машины за календарный месяц.
// Не более одной строки на ключ (vehicle, year, month); значение только растет.
type MonthlyOdometer struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	VehicleID     uint      `json:"vehicle_id" gorm:"not null;uniqueIndex:idx_vehicle_year_month"`
	Year          int       `json:"year" gorm:"not null;uniqueIndex:idx_vehicle_year_month"`
	Month         int       `json:"month" gorm:"not null;uniqueIndex:idx_vehicle_year_month"`
	AccumulatedKm float64   `json:"accumulated_km" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
