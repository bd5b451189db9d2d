package models

import (
	"time"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"   // Администратор системы
	UserRoleManager UserRole = "manager" // Диспетчер автопарка
	UserRoleDriver  UserRole = "driver"  // Водитель
)

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MunicipalityID uint      `json:"municipality_id" gorm:"not null;index"`
	FirstName      string    `json:"firstName" gorm:"column:first_name;not null;type:varchar(255)"`
	LastName       string    `json:"lastName" gorm:"column:last_name;not null;type:varchar(255)"`
	Email          string    `json:"email" gorm:"unique;not null;type:varchar(255)"`
	PasswordHash   string    `json:"-" gorm:"column:password_hash;not null;type:text"`
	Role           UserRole  `json:"role" gorm:"type:varchar(20);default:'manager'"`
	DriverID       *uint     `json:"driver_id,omitempty" gorm:"default:null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Driver *Driver `json:"-" gorm:"foreignKey:DriverID"`
}

type UserResponse struct {
	ID             uint      `json:"id"`
	MunicipalityID uint      `json:"municipality_id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Role           UserRole  `json:"role"`
	DriverID       *uint     `json:"driver_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
