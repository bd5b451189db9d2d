package models

import (
	"time"
)

type BillingModel string

const (
	BillingModelFixed         BillingModel = "FIXED"           // Фиксированная сумма за период
	BillingModelPerKm         BillingModel = "PER_KM"          // Оплата за километр
	BillingModelPerDay        BillingModel = "PER_DAY"         // Оплата за сутки
	BillingModelMonthlyWithKm BillingModel = "MONTHLY_WITH_KM" // Месячная ставка с учетом пробега
)

type Contract struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	MunicipalityID uint         `json:"municipality_id" gorm:"not null;index"`
	Supplier       string       `json:"supplier" gorm:"not null;type:varchar(255)"`
	Number         string       `json:"number" gorm:"type:varchar(50)"`
	BillingModel   BillingModel `json:"billing_model" gorm:"type:varchar(20);not null"`
	BaseValue      float64      `json:"base_value" gorm:"default:0"`
	KmExtraRate    *float64     `json:"km_extra_rate,omitempty" gorm:"default:null"` // Ставка за км сверх лимита
	StartDate      time.Time    `json:"start_date"`
	EndDate        *time.Time   `json:"end_date,omitempty" gorm:"default:null"`
	Active         bool         `json:"active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	Vehicles []ContractVehicle `json:"-" gorm:"foreignKey:ContractID"`
}

// ContractVehicle — привязка машины к контракту. CustomRate, если задан,
// переопределяет ставку контракта для этой машины в указанном диапазоне дат.
type ContractVehicle struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	ContractID uint       `json:"contract_id" gorm:"not null;index"`
	VehicleID  uint       `json:"vehicle_id" gorm:"not null;index"`
	CustomRate *float64   `json:"custom_rate,omitempty" gorm:"default:null"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" gorm:"default:null"`
	CreatedAt  time.Time  `json:"created_at"`

	Contract Contract `json:"-" gorm:"foreignKey:ContractID"`
	Vehicle  Vehicle  `json:"-" gorm:"foreignKey:VehicleID"`
}

// CoversDate сообщает, действует ли привязка на указанную дату.
func (cv *ContractVehicle) CoversDate(d time.Time) bool {
	if d.Before(cv.StartDate) {
		return false
	}
	if cv.EndDate != nil && d.After(*cv.EndDate) {
		return false
	}
	return true
}
