package models

import (
	"time"
)

type Driver struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	MunicipalityID uint       `json:"municipality_id" gorm:"not null;index"`
	FirstName      string     `json:"firstName" gorm:"column:first_name;not null;type:varchar(255)"`
	LastName       string     `json:"lastName" gorm:"column:last_name;not null;type:varchar(255)"`
	Phone          string     `json:"phone" gorm:"type:varchar(20)"`
	CNHNumber      string     `json:"cnh_number" gorm:"column:cnh_number;type:varchar(20)"`
	CNHCategory    string     `json:"cnh_category" gorm:"column:cnh_category;type:varchar(5)"`
	CNHExpiry      *time.Time `json:"cnh_expiry,omitempty" gorm:"column:cnh_expiry;default:null"`
	Active         bool       `json:"active"`
	FreeTrips      bool       `json:"free_trips" gorm:"default:false"` // Право завершать поездки без одометра
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (d *Driver) FullName() string {
	return d.FirstName + " " + d.LastName
}
