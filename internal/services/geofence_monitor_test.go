package services

import (
	"context"
	"testing"
	"time"

	"frota-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestMonitor(db *gorm.DB) *GeofenceMonitor {
	return &GeofenceMonitor{
		db:          db,
		notifier:    NewNotificationService(db),
		cooldown:    newMemoryCooldown(),
		thresholdKm: 2.0,
		cooldownTTL: 15 * time.Minute,
	}
}

func TestGeofenceHysteresis(t *testing.T) {
	db := newTestDB(t)
	monitor := newTestMonitor(db)
	driver := seedDriver(t, db)

	fence := models.Geofence{
		MunicipalityID: 1,
		DriverID:       driver.ID,
		CenterLat:      -23.55,
		CenterLng:      -46.63,
		RadiusKm:       1.0,
		Active:         true,
	}
	require.NoError(t, db.Create(&fence).Error)

	ctx := context.Background()
	inside := Position{Latitude: -23.55, Longitude: -46.63}
	outside := Position{Latitude: -23.65, Longitude: -46.63} // ~11 км от центра

	// Пинг внутри зоны ничего не меняет
	state, err := monitor.Evaluate(ctx, driver.ID, inside, dayAt(10))
	require.NoError(t, err)
	assert.Equal(t, "geofence", state.Mode)
	assert.False(t, state.Alerted)
	assert.False(t, state.Raised)

	// Первый выход за границу поднимает тревогу
	state, err = monitor.Evaluate(ctx, driver.ID, outside, dayAt(11))
	require.NoError(t, err)
	assert.True(t, state.Alerted)
	assert.True(t, state.Raised)

	var fresh models.Geofence
	require.NoError(t, db.First(&fresh, fence.ID).Error)
	assert.True(t, fresh.AlertActive)
	require.NotNil(t, fresh.LastAlertedAt)

	// Повторные пинги за границей тревогу не дублируют
	state, err = monitor.Evaluate(ctx, driver.ID, outside, dayAt(12))
	require.NoError(t, err)
	assert.True(t, state.Alerted)
	assert.False(t, state.Raised)

	var notifications int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("kind = ?", "geofence_exit").Count(&notifications).Error)
	assert.EqualValues(t, 1, notifications)

	// Возврат внутрь снимает тревогу ровно один раз
	state, err = monitor.Evaluate(ctx, driver.ID, inside, dayAt(13))
	require.NoError(t, err)
	assert.False(t, state.Alerted)
	assert.True(t, state.Cleared)

	state, err = monitor.Evaluate(ctx, driver.ID, inside, dayAt(14))
	require.NoError(t, err)
	assert.False(t, state.Cleared)

	require.NoError(t, db.First(&fresh, fence.ID).Error)
	assert.False(t, fresh.AlertActive)
	require.NotNil(t, fresh.LastClearedAt)
}

func TestGeofenceStaleFlagNotDoubleNotified(t *testing.T) {
	db := newTestDB(t)
	monitor := newTestMonitor(db)
	driver := seedDriver(t, db)

	fence := models.Geofence{
		MunicipalityID: 1,
		DriverID:       driver.ID,
		CenterLat:      -23.55,
		CenterLng:      -46.63,
		RadiusKm:       1.0,
		Active:         true,
	}
	require.NoError(t, db.Create(&fence).Error)

	// Копия строки прочитана до того, как другой пинг поднял тревогу
	var stale models.Geofence
	require.NoError(t, db.First(&stale, fence.ID).Error)
	require.False(t, stale.AlertActive)
	require.NoError(t, db.Model(&models.Geofence{}).Where("id = ?", fence.ID).
		Update("alert_active", true).Error)

	// Обработчик обязан перечитать флаг и не дублировать уведомление
	state, err := monitor.evaluateFence(&stale, Position{Latitude: -23.65, Longitude: -46.63}, dayAt(10))
	require.NoError(t, err)
	assert.True(t, state.Alerted)
	assert.False(t, state.Raised)

	var notifications int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("kind = ?", "geofence_exit").Count(&notifications).Error)
	assert.Zero(t, notifications)
}

func TestInactiveGeofenceNeverAlerts(t *testing.T) {
	db := newTestDB(t)
	monitor := newTestMonitor(db)
	driver := seedDriver(t, db)

	fence := models.Geofence{
		MunicipalityID: 1,
		DriverID:       driver.ID,
		CenterLat:      -23.55,
		CenterLng:      -46.63,
		RadiusKm:       1.0,
		Active:         false,
	}
	require.NoError(t, db.Create(&fence).Error)

	// Зона должна сохраниться именно выключенной
	var stored models.Geofence
	require.NoError(t, db.First(&stored, fence.ID).Error)
	require.False(t, stored.Active)

	// Пинг далеко за границей неактивной зоны тревоги не поднимает
	state, err := monitor.Evaluate(context.Background(), driver.ID,
		Position{Latitude: -24.55, Longitude: -46.63}, dayAt(10))
	require.NoError(t, err)
	assert.Equal(t, "none", state.Mode)
	assert.False(t, state.Raised)
}

func TestRouteDeviationCooldown(t *testing.T) {
	db := newTestDB(t)
	monitor := newTestMonitor(db)
	vehicle := seedVehicle(t, db, 0)
	driver := seedDriver(t, db)

	route := models.Route{
		MunicipalityID: 1,
		Name:           "Линия 2",
		DepartureTime:  "07:00",
		Active:         true,
		Stops: []models.RouteStop{
			{Name: "A", OrderNum: 1, Latitude: ptr(-23.55), Longitude: ptr(-46.63)},
			{Name: "B", OrderNum: 2, Latitude: ptr(-23.56), Longitude: ptr(-46.64)},
		},
	}
	require.NoError(t, db.Create(&route).Error)

	trip := models.Trip{
		MunicipalityID: 1,
		VehicleID:      vehicle.ID,
		DriverID:       driver.ID,
		RouteID:        &route.ID,
		Status:         models.TripStatusInProgress,
		DepartureTime:  dayAt(7),
		ExpectedReturn: dayAt(12),
	}
	require.NoError(t, db.Create(&trip).Error)

	ctx := context.Background()
	onRoute := Position{Latitude: -23.551, Longitude: -46.631}
	offRoute := Position{Latitude: -23.75, Longitude: -46.63} // ~21 км от остановок

	// Возле остановки отклонения нет
	state, err := monitor.Evaluate(ctx, driver.ID, onRoute, dayAt(8))
	require.NoError(t, err)
	assert.Equal(t, "route_deviation", state.Mode)
	assert.False(t, state.Alerted)

	// Уход дальше порога поднимает тревогу
	state, err = monitor.Evaluate(ctx, driver.ID, offRoute, dayAt(9))
	require.NoError(t, err)
	assert.True(t, state.Alerted)
	assert.True(t, state.Raised)

	// Следующий пинг в окне кулдауна подавляется
	state, err = monitor.Evaluate(ctx, driver.ID, offRoute, dayAt(9))
	require.NoError(t, err)
	assert.True(t, state.Alerted)
	assert.False(t, state.Raised)

	var notifications int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("kind = ?", "route_deviation").Count(&notifications).Error)
	assert.EqualValues(t, 1, notifications)
}

func TestRouteDeviationWithoutTrip(t *testing.T) {
	db := newTestDB(t)
	monitor := newTestMonitor(db)
	driver := seedDriver(t, db)

	// Ни геозоны, ни выполняемой поездки — пинг просто принимается
	state, err := monitor.Evaluate(context.Background(), driver.ID,
		Position{Latitude: -23.55, Longitude: -46.63}, dayAt(10))
	require.NoError(t, err)
	assert.Equal(t, "none", state.Mode)
	assert.False(t, state.Alerted)
}

func TestRouteDeviationIgnoresStopsWithoutCoordinates(t *testing.T) {
	db := newTestDB(t)
	monitor := newTestMonitor(db)
	vehicle := seedVehicle(t, db, 0)
	driver := seedDriver(t, db)

	route := models.Route{
		MunicipalityID: 1,
		Name:           "Линия без координат",
		DepartureTime:  "07:00",
		Active:         true,
		Stops:          []models.RouteStop{{Name: "A", OrderNum: 1}},
	}
	require.NoError(t, db.Create(&route).Error)
	require.NoError(t, db.Create(&models.Trip{
		MunicipalityID: 1,
		VehicleID:      vehicle.ID,
		DriverID:       driver.ID,
		RouteID:        &route.ID,
		Status:         models.TripStatusInProgress,
		DepartureTime:  dayAt(7),
		ExpectedReturn: dayAt(12),
	}).Error)

	state, err := monitor.Evaluate(context.Background(), driver.ID,
		Position{Latitude: -23.55, Longitude: -46.63}, dayAt(8))
	require.NoError(t, err)
	assert.Equal(t, "none", state.Mode)
}

func TestMemoryCooldownExpires(t *testing.T) {
	store := newMemoryCooldown()
	ctx := context.Background()

	assert.True(t, store.Once(ctx, "k", 10*time.Millisecond))
	assert.False(t, store.Once(ctx, "k", 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, store.Once(ctx, "k", 10*time.Millisecond))
}
