package models

import (
	"time"
)

type RentalPeriodStatus string

const (
	RentalPeriodStatusOpen     RentalPeriodStatus = "OPEN"     // Период открыт
	RentalPeriodStatusClosed   RentalPeriodStatus = "CLOSED"   // Закрыт, сумма рассчитана
	RentalPeriodStatusInvoiced RentalPeriodStatus = "INVOICED" // Выставлен счет
)

// RentalPeriod — период аренды машины по контракту. Закрытие рассчитывает
// пробег и сумму ровно один раз и автоматически не отменяется.
type RentalPeriod struct {
	ID             uint               `json:"id" gorm:"primaryKey"`
	MunicipalityID uint               `json:"municipality_id" gorm:"not null;index"`
	ContractID     uint               `json:"contract_id" gorm:"not null;index"`
	VehicleID      uint               `json:"vehicle_id" gorm:"not null;index"`
	StartTime      time.Time          `json:"start_time" gorm:"not null"`
	EndTime        *time.Time         `json:"end_time,omitempty" gorm:"default:null"`
	OdometerStart  *float64           `json:"odometer_start,omitempty" gorm:"default:null"`
	OdometerEnd    *float64           `json:"odometer_end,omitempty" gorm:"default:null"`
	BilledDistance *float64           `json:"billed_distance,omitempty" gorm:"default:null"`
	BilledAmount   *float64           `json:"billed_amount,omitempty" gorm:"default:null"`
	Status         RentalPeriodStatus `json:"status" gorm:"type:varchar(20);default:'OPEN'"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	Contract Contract `json:"-" gorm:"foreignKey:ContractID"`
	Vehicle  Vehicle  `json:"-" gorm:"foreignKey:VehicleID"`
}
