package models

import (
	"time"
)

// Notification — запись об уведомлении. Ошибка доставки фиксируется в Error
// и не откатывает породившее уведомление изменение состояния.
type Notification struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Key            string     `json:"key" gorm:"type:varchar(36);uniqueIndex"` // UUID идемпотентности
	MunicipalityID uint       `json:"municipality_id" gorm:"not null;index"`
	UserID         *uint      `json:"user_id,omitempty" gorm:"default:null"`
	DriverID       *uint      `json:"driver_id,omitempty" gorm:"default:null"`
	Kind           string     `json:"kind" gorm:"type:varchar(50);not null"`
	Title          string     `json:"title" gorm:"type:varchar(255)"`
	Body           string     `json:"body" gorm:"type:text"`
	Sent           bool       `json:"sent" gorm:"default:false"`
	SentAt         *time.Time `json:"sent_at,omitempty" gorm:"default:null"`
	Error          string     `json:"error,omitempty" gorm:"type:text;default:''"`
	CreatedAt      time.Time  `json:"created_at"`
}
