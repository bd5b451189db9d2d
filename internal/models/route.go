package models

import (
	"time"
)

// Route — регулярный маршрут с упорядоченным списком остановок.
type Route struct {
	ID                 uint        `json:"id" gorm:"primaryKey"`
	MunicipalityID     uint        `json:"municipality_id" gorm:"not null;index"`
	Name               string      `json:"name" gorm:"not null;type:varchar(255)"`
	Capacity           int         `json:"capacity" gorm:"default:0"`
	DepartureTime      string      `json:"departure_time" gorm:"type:varchar(5);default:'07:00'"` // Формат HH:MM
	EstimatedDuration  int         `json:"estimated_duration" gorm:"default:0"`                   // Минуты; 0 — оценивается оптимизатором
	Active             bool        `json:"active"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`

	Stops []RouteStop `json:"stops" gorm:"foreignKey:RouteID"`
}

// RouteStop — остановка маршрута. Координаты опциональны:
// остановки без координат не участвуют в оптимизации и геометрии.
type RouteStop struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	RouteID   uint     `json:"route_id" gorm:"not null;index"`
	Name      string   `json:"name" gorm:"not null;type:varchar(255)"`
	OrderNum  int      `json:"order_num" gorm:"not null"`
	Latitude  *float64 `json:"latitude,omitempty" gorm:"default:null"`
	Longitude *float64 `json:"longitude,omitempty" gorm:"default:null"`
	StopTime  string   `json:"stop_time,omitempty" gorm:"type:varchar(5);default:''"` // Формат HH:MM
}

// HasCoordinates сообщает, заданы ли координаты остановки.
func (s *RouteStop) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}
