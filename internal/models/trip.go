package models

import (
	"time"
)

type TripStatus string

const (
	TripStatusPlanned    TripStatus = "PLANNED"     // Запланирована
	TripStatusInProgress TripStatus = "IN_PROGRESS" // Выполняется
	TripStatusCompleted  TripStatus = "COMPLETED"   // Завершена
	TripStatusCancelled  TripStatus = "CANCELLED"   // Отменена
)

type TripCategory string

const (
	TripCategoryPassenger TripCategory = "PASSENGER" // Перевозка пассажиров
	TripCategoryObject    TripCategory = "OBJECT"    // Перевозка грузов
	TripCategoryMixed     TripCategory = "MIXED"     // Смешанная перевозка
)

// Trip — центральная сущность планирования: окно времени, ресурсы и одометр.
// В проверках конфликтов участвуют только статусы PLANNED и IN_PROGRESS.
type Trip struct {
	ID                 uint         `json:"id" gorm:"primaryKey"`
	MunicipalityID     uint         `json:"municipality_id" gorm:"not null;index"`
	VehicleID          uint         `json:"vehicle_id" gorm:"not null;index"`
	DriverID           uint         `json:"driver_id" gorm:"not null;index"`
	ContractID         *uint        `json:"contract_id,omitempty" gorm:"default:null"`
	RentalPeriodID     *uint        `json:"rental_period_id,omitempty" gorm:"default:null"`
	RouteID            *uint        `json:"route_id,omitempty" gorm:"default:null"`
	Category           TripCategory `json:"category" gorm:"type:varchar(20);default:'PASSENGER'"`
	Status             TripStatus   `json:"status" gorm:"type:varchar(20);default:'PLANNED';index"`
	Origin             string       `json:"origin" gorm:"type:varchar(255)"`
	Destination        string       `json:"destination" gorm:"type:varchar(255)"`
	DepartureTime      time.Time    `json:"departure_time" gorm:"not null"`
	ExpectedReturn     time.Time    `json:"expected_return" gorm:"not null"`
	ActualReturn       *time.Time   `json:"actual_return,omitempty" gorm:"default:null"`
	OdometerStart      *float64     `json:"odometer_start,omitempty" gorm:"default:null"`
	OdometerEnd        *float64     `json:"odometer_end,omitempty" gorm:"default:null"`
	PassengerCount     int          `json:"passenger_count" gorm:"default:0"`
	CargoDescription   string       `json:"cargo_description" gorm:"type:text;default:''"`
	CargoSize          string       `json:"cargo_size" gorm:"type:varchar(50);default:''"`
	CargoPurpose       string       `json:"cargo_purpose" gorm:"type:varchar(255);default:''"`
	CargoQuantity      int          `json:"cargo_quantity" gorm:"default:0"`
	CancellationReason string       `json:"cancellation_reason,omitempty" gorm:"default:''"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`

	Vehicle Vehicle `json:"-" gorm:"foreignKey:VehicleID"`
	Driver  Driver  `json:"-" gorm:"foreignKey:DriverID"`
}

// IsTerminal сообщает, находится ли поездка в конечном состоянии.
func (t *Trip) IsTerminal() bool {
	return t.Status == TripStatusCompleted || t.Status == TripStatusCancelled
}

type TripResponse struct {
	ID             uint         `json:"id"`
	VehicleID      uint         `json:"vehicle_id"`
	DriverID       uint         `json:"driver_id"`
	RouteID        *uint        `json:"route_id,omitempty"`
	Category       TripCategory `json:"category"`
	Status         TripStatus   `json:"status"`
	Origin         string       `json:"origin"`
	Destination    string       `json:"destination"`
	DepartureTime  time.Time    `json:"departure_time"`
	ExpectedReturn time.Time    `json:"expected_return"`
	ActualReturn   *time.Time   `json:"actual_return,omitempty"`
	OdometerStart  *float64     `json:"odometer_start,omitempty"`
	OdometerEnd    *float64     `json:"odometer_end,omitempty"`
	PassengerCount int          `json:"passenger_count"`
	VehiclePlate   string       `json:"vehicle_plate,omitempty"`
	DriverName     string       `json:"driver_name,omitempty"`
}
