package services

import (
	"testing"
	"time"

	"frota-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedContract(t *testing.T, db *gorm.DB, model models.BillingModel, baseValue float64, kmRate *float64) *models.Contract {
	t.Helper()
	c := &models.Contract{
		MunicipalityID: 1,
		Supplier:       "Локадора Норте",
		Number:         "CT-2024-01",
		BillingModel:   model,
		BaseValue:      baseValue,
		KmExtraRate:    kmRate,
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:         true,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedOpenPeriod(t *testing.T, db *gorm.DB, contract *models.Contract, vehicleID uint, start time.Time, odometerStart *float64) *models.RentalPeriod {
	t.Helper()
	p := &models.RentalPeriod{
		MunicipalityID: 1,
		ContractID:     contract.ID,
		VehicleID:      vehicleID,
		StartTime:      start,
		OdometerStart:  odometerStart,
		Status:         models.RentalPeriodStatusOpen,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestClosePeriodPerKm(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db)
	vehicle := seedVehicle(t, db, 1000)
	contract := seedContract(t, db, models.BillingModelPerKm, 0, ptr(2.50))
	period := seedOpenPeriod(t, db, contract, vehicle.ID,
		time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), ptr(1000.0))

	closed, err := svc.ClosePeriod(period.ID, 1,
		time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC), nil, ptr(1350.0))
	require.NoError(t, err)
	assert.Equal(t, models.RentalPeriodStatusClosed, closed.Status)
	require.NotNil(t, closed.BilledDistance)
	assert.Equal(t, 350.0, *closed.BilledDistance)
	require.NotNil(t, closed.BilledAmount)
	assert.Equal(t, 875.00, *closed.BilledAmount)
}

func TestClosePeriodPerKmRequiresOdometer(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db)
	vehicle := seedVehicle(t, db, 1000)
	contract := seedContract(t, db, models.BillingModelPerKm, 0, ptr(2.50))
	period := seedOpenPeriod(t, db, contract, vehicle.ID,
		time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), nil)

	_, err := svc.ClosePeriod(period.ID, 1,
		time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC), nil, nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	// Период остался открытым и закрывается после передачи показаний
	closed, err := svc.ClosePeriod(period.ID, 1,
		time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC), ptr(1000.0), ptr(1100.0))
	require.NoError(t, err)
	assert.Equal(t, models.RentalPeriodStatusClosed, closed.Status)
}

func TestClosePeriodPerDay(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db)
	vehicle := seedVehicle(t, db, 0)
	contract := seedContract(t, db, models.BillingModelPerDay, 100, nil)
	period := seedOpenPeriod(t, db, contract, vehicle.ID,
		time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), nil)

	// 10.01 - 12.01 включительно: трое суток
	closed, err := svc.ClosePeriod(period.ID, 1,
		time.Date(2024, 1, 12, 18, 0, 0, 0, time.UTC), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, closed.BilledAmount)
	assert.Equal(t, 300.0, *closed.BilledAmount)
	assert.Nil(t, closed.BilledDistance)
}

func TestClosePeriodFixed(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db)
	vehicle := seedVehicle(t, db, 0)
	contract := seedContract(t, db, models.BillingModelFixed, 500, nil)
	period := seedOpenPeriod(t, db, contract, vehicle.ID,
		time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), nil)

	// Фиксированная сумма не зависит ни от пробега, ни от длительности
	closed, err := svc.ClosePeriod(period.ID, 1,
		time.Date(2024, 2, 25, 18, 0, 0, 0, time.UTC), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, closed.BilledAmount)
	assert.Equal(t, 500.0, *closed.BilledAmount)
}

func TestClosePeriodMonthlyWithKm(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db)
	vehicle := seedVehicle(t, db, 0)
	contract := seedContract(t, db, models.BillingModelMonthlyWithKm, 2000, ptr(1.80))
	period := seedOpenPeriod(t, db, contract, vehicle.ID,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ptr(5000.0))

	// Показания обязательны
	_, err := svc.ClosePeriod(period.ID, 1,
		time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC), nil, nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	// Сумма — месячная ставка; пробег фиксируется для отчетности
	closed, err := svc.ClosePeriod(period.ID, 1,
		time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC), nil, ptr(6200.0))
	require.NoError(t, err)
	require.NotNil(t, closed.BilledDistance)
	assert.Equal(t, 1200.0, *closed.BilledDistance)
	require.NotNil(t, closed.BilledAmount)
	assert.Equal(t, 2000.0, *closed.BilledAmount)
}

func TestClosePeriodExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db)
	vehicle := seedVehicle(t, db, 0)
	contract := seedContract(t, db, models.BillingModelFixed, 500, nil)
	period := seedOpenPeriod(t, db, contract, vehicle.ID,
		time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), nil)

	end := time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC)
	_, err := svc.ClosePeriod(period.ID, 1, end, nil, nil)
	require.NoError(t, err)

	_, err = svc.ClosePeriod(period.ID, 1, end.AddDate(0, 0, 5), nil, nil)
	var se *StateError
	require.ErrorAs(t, err, &se)

	// Сумма первого закрытия не пересчитана
	var fresh models.RentalPeriod
	require.NoError(t, db.First(&fresh, period.ID).Error)
	assert.Equal(t, 500.0, *fresh.BilledAmount)
	assert.True(t, fresh.EndTime.Equal(end))
}

func TestClosePeriodCustomRateOverride(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db)
	vehicle := seedVehicle(t, db, 0)
	contract := seedContract(t, db, models.BillingModelPerKm, 0, ptr(2.00))

	// Индивидуальная ставка привязки действует на дату начала периода
	require.NoError(t, db.Create(&models.ContractVehicle{
		ContractID: contract.ID,
		VehicleID:  vehicle.ID,
		CustomRate: ptr(3.00),
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}).Error)

	period := seedOpenPeriod(t, db, contract, vehicle.ID,
		time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), ptr(0.0))
	closed, err := svc.ClosePeriod(period.ID, 1,
		time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC), nil, ptr(100.0))
	require.NoError(t, err)
	assert.Equal(t, 300.0, *closed.BilledAmount)

	// Привязка, истекшая до начала периода, не применяется
	other := seedVehicle(t, db, 0)
	expired := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.ContractVehicle{
		ContractID: contract.ID,
		VehicleID:  other.ID,
		CustomRate: ptr(9.00),
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    &expired,
	}).Error)
	period2 := seedOpenPeriod(t, db, contract, other.ID,
		time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), ptr(0.0))
	closed2, err := svc.ClosePeriod(period2.ID, 1,
		time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC), nil, ptr(100.0))
	require.NoError(t, err)
	assert.Equal(t, 200.0, *closed2.BilledAmount)
}

func TestClosePeriodValidations(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db)
	vehicle := seedVehicle(t, db, 0)
	contract := seedContract(t, db, models.BillingModelPerKm, 0, ptr(2.50))

	t.Run("регресс одометра", func(t *testing.T) {
		period := seedOpenPeriod(t, db, contract, vehicle.ID,
			time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), ptr(1000.0))
		_, err := svc.ClosePeriod(period.ID, 1,
			time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC), nil, ptr(900.0))
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("окончание раньше начала", func(t *testing.T) {
		period := seedOpenPeriod(t, db, contract, vehicle.ID,
			time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), ptr(1000.0))
		_, err := svc.ClosePeriod(period.ID, 1,
			time.Date(2024, 1, 9, 18, 0, 0, 0, time.UTC), nil, ptr(1100.0))
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("чужой тенант", func(t *testing.T) {
		period := seedOpenPeriod(t, db, contract, vehicle.ID,
			time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), ptr(1000.0))
		_, err := svc.ClosePeriod(period.ID, 2,
			time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC), nil, ptr(1100.0))
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestInclusiveDays(t *testing.T) {
	start := time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 12, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, inclusiveDays(start, end))

	sameDay := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, inclusiveDays(sameDay, sameDay.Add(2*time.Hour)))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 875.00, roundMoney(350*2.5))
	assert.Equal(t, 0.35, roundMoney(0.345000001))
	assert.Equal(t, 10.0, roundMoney(9.999))
}
