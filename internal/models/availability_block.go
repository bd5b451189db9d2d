package models

import (
	"time"
)

type BlockType string

const (
	BlockTypeVacation  BlockType = "VACATION"   // Отпуск
	BlockTypeSickLeave BlockType = "SICK_LEAVE" // Больничный
	BlockTypeDayOff    BlockType = "DAY_OFF"    // Выходной
	BlockTypeTraining  BlockType = "TRAINING"   // Обучение
	BlockTypeAdmin     BlockType = "ADMIN"      // Административная блокировка
)

type BlockStatus string

const (
	BlockStatusActive    BlockStatus = "ACTIVE"
	BlockStatusCancelled BlockStatus = "CANCELLED"
)

// AvailabilityBlock — период недоступности водителя.
// Отмена всегда логическая (смена статуса), записи не удаляются.
type AvailabilityBlock struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	MunicipalityID uint        `json:"municipality_id" gorm:"not null;index"`
	DriverID       uint        `json:"driver_id" gorm:"not null;index"`
	Type           BlockType   `json:"type" gorm:"type:varchar(20);not null"`
	Status         BlockStatus `json:"status" gorm:"type:varchar(20);default:'ACTIVE'"`
	StartTime      time.Time   `json:"start_time" gorm:"not null"`
	EndTime        time.Time   `json:"end_time" gorm:"not null"`
	Reason         string      `json:"reason" gorm:"type:text;default:''"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	Driver Driver `json:"-" gorm:"foreignKey:DriverID"`
}
