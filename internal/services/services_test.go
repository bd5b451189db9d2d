package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"frota-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// newTestDB поднимает изолированную in-memory базу на тест.
// Имя уникально, иначе shared cache склеит базы разных тестов.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:frota_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Municipality{},
		&models.Vehicle{},
		&models.Driver{},
		&models.AvailabilityBlock{},
		&models.Route{},
		&models.RouteStop{},
		&models.RouteAssignment{},
		&models.Trip{},
		&models.Contract{},
		&models.ContractVehicle{},
		&models.RentalPeriod{},
		&models.MaintenancePlan{},
		&models.ServiceOrder{},
		&models.Tire{},
		&models.VehicleTire{},
		&models.MonthlyOdometer{},
		&models.Geofence{},
		&models.Notification{},
	))
	return db
}

func seedVehicle(t *testing.T, db *gorm.DB, odometer float64) *models.Vehicle {
	t.Helper()
	v := &models.Vehicle{
		MunicipalityID:  1,
		Plate:           "ABC1234",
		Model:           "Sprinter",
		Year:            2021,
		Capacity:        4,
		InitialOdometer: odometer,
		CurrentOdometer: odometer,
		Status:          models.VehicleStatusAvailable,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}

func seedDriver(t *testing.T, db *gorm.DB) *models.Driver {
	t.Helper()
	d := &models.Driver{
		MunicipalityID: 1,
		FirstName:      "Carlos",
		LastName:       "Silva",
		CNHNumber:      "12345678900",
		CNHCategory:    "D",
		Active:         true,
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

// dayAt — фиксированный день теста с заданным часом.
func dayAt(hour int) time.Time {
	return time.Date(2024, 3, 15, hour, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}
