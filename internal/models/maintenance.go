package models

import (
	"time"
)

type MaintenanceType string

const (
	MaintenanceTypePreventive MaintenanceType = "PREVENTIVE" // Плановое ТО
	MaintenanceTypeCorrective MaintenanceType = "CORRECTIVE" // Внеплановый ремонт
	MaintenanceTypeTire       MaintenanceType = "TIRE"       // Шиномонтаж
)

type ServiceOrderStatus string

const (
	ServiceOrderStatusOpen         ServiceOrderStatus = "OPEN"
	ServiceOrderStatusInProgress   ServiceOrderStatus = "IN_PROGRESS"
	ServiceOrderStatusWaitingParts ServiceOrderStatus = "WAITING_PARTS"
	ServiceOrderStatusDone         ServiceOrderStatus = "DONE"
	ServiceOrderStatusCancelled    ServiceOrderStatus = "CANCELLED"
)

// NonTerminalServiceOrderStatuses — статусы, при которых заявка считается
// открытой для защиты от дублирования.
var NonTerminalServiceOrderStatuses = []ServiceOrderStatus{
	ServiceOrderStatusOpen,
	ServiceOrderStatusInProgress,
	ServiceOrderStatusWaitingParts,
}

// MaintenancePlan — план обслуживания машины: триггер по пробегу и/или по времени.
type MaintenancePlan struct {
	ID                  uint            `json:"id" gorm:"primaryKey"`
	MunicipalityID      uint            `json:"municipality_id" gorm:"not null;index"`
	VehicleID           uint            `json:"vehicle_id" gorm:"not null;index"`
	Type                MaintenanceType `json:"type" gorm:"type:varchar(20);default:'PREVENTIVE'"`
	Description         string          `json:"description" gorm:"type:varchar(255)"`
	KmInterval          *float64        `json:"km_interval,omitempty" gorm:"default:null"`
	DayInterval         *int            `json:"day_interval,omitempty" gorm:"default:null"`
	LastServiceOdometer *float64        `json:"last_service_odometer,omitempty" gorm:"default:null"`
	LastServiceDate     *time.Time      `json:"last_service_date,omitempty" gorm:"default:null"`
	Active              bool            `json:"active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`

	Vehicle Vehicle `json:"-" gorm:"foreignKey:VehicleID"`
}

// ServiceOrder — заявка на обслуживание, открываемая каскадом или вручную.
type ServiceOrder struct {
	ID             uint               `json:"id" gorm:"primaryKey"`
	MunicipalityID uint               `json:"municipality_id" gorm:"not null;index"`
	VehicleID      uint               `json:"vehicle_id" gorm:"not null;index"`
	Type           MaintenanceType    `json:"type" gorm:"type:varchar(20);not null"`
	Status         ServiceOrderStatus `json:"status" gorm:"type:varchar(20);default:'OPEN';index"`
	Description    string             `json:"description" gorm:"type:text"`
	OpenedAt       time.Time          `json:"opened_at"`
	ClosedAt       *time.Time         `json:"closed_at,omitempty" gorm:"default:null"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	Vehicle Vehicle `json:"-" gorm:"foreignKey:VehicleID"`
}
