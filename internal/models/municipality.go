package models

import (
	"time"
)

// Municipality — муниципалитет (тенант). Все сущности принадлежат ровно одному.
type Municipality struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;type:varchar(255)"`
	StateCode string    `json:"state_code" gorm:"type:varchar(2)"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
