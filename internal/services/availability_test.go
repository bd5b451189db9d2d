package services

import (
	"testing"
	"time"

	"frota-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowOverlaps(t *testing.T) {
	w := Window{Start: dayAt(10), End: dayAt(12)}

	cases := []struct {
		name  string
		other Window
		want  bool
	}{
		{"частичное пересечение", Window{Start: dayAt(11), End: dayAt(13)}, true},
		{"полное вложение", Window{Start: dayAt(10), End: dayAt(11)}, true},
		{"одинаковые окна", Window{Start: dayAt(10), End: dayAt(12)}, true},
		{"впритык после", Window{Start: dayAt(12), End: dayAt(14)}, false},
		{"впритык до", Window{Start: dayAt(8), End: dayAt(10)}, false},
		{"без пересечения", Window{Start: dayAt(13), End: dayAt(14)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(w))
		})
	}
}

func TestCheckVehicleConflict(t *testing.T) {
	db := newTestDB(t)
	svc := NewAvailabilityService(db)
	vehicle := seedVehicle(t, db, 0)
	driver := seedDriver(t, db)

	trip := models.Trip{
		MunicipalityID: 1,
		VehicleID:      vehicle.ID,
		DriverID:       driver.ID,
		Status:         models.TripStatusPlanned,
		DepartureTime:  dayAt(10),
		ExpectedReturn: dayAt(12),
	}
	require.NoError(t, db.Create(&trip).Error)

	err := svc.CheckVehicle(vehicle.ID, Window{Start: dayAt(11), End: dayAt(13)}, 0)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ConflictKindVehicle, ce.Kind)
	assert.True(t, ce.Start.Equal(dayAt(10)))
	assert.True(t, ce.End.Equal(dayAt(12)))

	// Окна впритык не конфликтуют
	assert.NoError(t, svc.CheckVehicle(vehicle.ID, Window{Start: dayAt(12), End: dayAt(14)}, 0))

	// Сама редактируемая поездка исключается из проверки
	assert.NoError(t, svc.CheckVehicle(vehicle.ID, Window{Start: dayAt(11), End: dayAt(13)}, trip.ID))

	// Отмененная поездка ресурс не держит
	require.NoError(t, db.Model(&trip).Update("status", models.TripStatusCancelled).Error)
	assert.NoError(t, svc.CheckVehicle(vehicle.ID, Window{Start: dayAt(11), End: dayAt(13)}, 0))
}

func TestCheckDriverBlockConflict(t *testing.T) {
	db := newTestDB(t)
	svc := NewAvailabilityService(db)
	driver := seedDriver(t, db)

	block := models.AvailabilityBlock{
		MunicipalityID: 1,
		DriverID:       driver.ID,
		Type:           models.BlockTypeVacation,
		Status:         models.BlockStatusActive,
		StartTime:      dayAt(0),
		EndTime:        dayAt(23),
	}
	require.NoError(t, db.Create(&block).Error)

	err := svc.CheckDriver(driver.ID, Window{Start: dayAt(10), End: dayAt(12)}, 0)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ConflictKindBlock, ce.Kind)

	// Окно после блокировки свободно
	next := dayAt(23).Add(time.Hour)
	assert.NoError(t, svc.CheckDriver(driver.ID, Window{Start: dayAt(23), End: next}, 0))

	// Отмененная блокировка в проверках не участвует
	require.NoError(t, db.Model(&block).Update("status", models.BlockStatusCancelled).Error)
	assert.NoError(t, svc.CheckDriver(driver.ID, Window{Start: dayAt(10), End: dayAt(12)}, 0))
}

func TestCheckTripOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewAvailabilityService(db)
	vehicle := seedVehicle(t, db, 0)
	driver := seedDriver(t, db)
	other := seedDriver(t, db)

	// Конфликтуют и машина, и водитель — возвращается конфликт машины
	trip := models.Trip{
		MunicipalityID: 1,
		VehicleID:      vehicle.ID,
		DriverID:       driver.ID,
		Status:         models.TripStatusInProgress,
		DepartureTime:  dayAt(10),
		ExpectedReturn: dayAt(12),
	}
	require.NoError(t, db.Create(&trip).Error)

	err := svc.CheckTrip(vehicle.ID, driver.ID, Window{Start: dayAt(11), End: dayAt(13)}, 0)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ConflictKindVehicle, ce.Kind)

	// Свободная машина, занятый водитель — конфликт водителя
	free := seedVehicle(t, db, 0)
	err = svc.CheckTrip(free.ID, driver.ID, Window{Start: dayAt(11), End: dayAt(13)}, 0)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ConflictKindDriver, ce.Kind)

	assert.NoError(t, svc.CheckTrip(free.ID, other.ID, Window{Start: dayAt(11), End: dayAt(13)}, 0))
}

func TestAssignmentWindow(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	route := models.Route{DepartureTime: "07:30", EstimatedDuration: 90}
	a := models.RouteAssignment{Date: date}

	w := AssignmentWindow(&a, &route)
	assert.Equal(t, time.Date(2024, 3, 15, 7, 30, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), w.End)

	// Без оценки длительности окно занимает минимум час
	route.EstimatedDuration = 0
	w = AssignmentWindow(&a, &route)
	assert.Equal(t, time.Hour, w.End.Sub(w.Start))
}

func TestCheckAssignmentConflict(t *testing.T) {
	db := newTestDB(t)
	svc := NewAvailabilityService(db)
	vehicle := seedVehicle(t, db, 0)
	driver := seedDriver(t, db)

	route := models.Route{MunicipalityID: 1, Name: "Линия 1", DepartureTime: "07:00", EstimatedDuration: 60}
	require.NoError(t, db.Create(&route).Error)

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	existing := models.RouteAssignment{
		MunicipalityID: 1,
		RouteID:        route.ID,
		VehicleID:      vehicle.ID,
		DriverID:       driver.ID,
		Date:           date,
		Status:         models.AssignmentStatusDraft,
	}
	require.NoError(t, db.Create(&existing).Error)

	// Тот же водитель на другой машине в то же окно
	otherVehicle := seedVehicle(t, db, 0)
	candidate := models.RouteAssignment{
		MunicipalityID: 1,
		RouteID:        route.ID,
		VehicleID:      otherVehicle.ID,
		DriverID:       driver.ID,
		Date:           date,
		Status:         models.AssignmentStatusDraft,
	}
	err := svc.CheckAssignment(&candidate, &route, false)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ConflictKindAssignment, ce.Kind)

	// На следующий день окно свободно
	candidate.Date = date.AddDate(0, 0, 1)
	assert.NoError(t, svc.CheckAssignment(&candidate, &route, false))

	// Отмененное назначение ресурс не держит
	require.NoError(t, db.Model(&existing).Update("status", models.AssignmentStatusCancelled).Error)
	candidate.Date = date
	assert.NoError(t, svc.CheckAssignment(&candidate, &route, false))
}
