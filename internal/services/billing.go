package services

import (
	"math"
	"time"

	"frota-backend/internal/models"

	"gorm.io/gorm"
)

// BillingService закрывает периоды аренды и рассчитывает сумму по модели
// оплаты контракта. Закрытие выполняется ровно один раз: повторное
// закрытие отклоняется статусным ограждением.
type BillingService struct {
	db *gorm.DB
}

func NewBillingService(db *gorm.DB) *BillingService {
	return &BillingService{db: db}
}

// ClosePeriod переводит период OPEN -> CLOSED и рассчитывает пробег и сумму.
// Показания одометра обязательны только для моделей, зависящих от пробега
// (PER_KM и MONTHLY_WITH_KM); для остальных пробег фиксируется для отчетности,
// если показания переданы.
func (s *BillingService) ClosePeriod(periodID, municipalityID uint, endTime time.Time, odometerStart, odometerEnd *float64) (*models.RentalPeriod, error) {
	mu := lockResource("rental", periodID)
	defer mu.Unlock()

	var period models.RentalPeriod
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			Where("id = ? AND municipality_id = ?", periodID, municipalityID).
			First(&period).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewValidationError("период аренды не найден")
			}
			return err
		}
		if period.Status != models.RentalPeriodStatusOpen {
			return NewStateError("период аренды уже закрыт (статус %s)", period.Status)
		}
		if !endTime.After(period.StartTime) {
			return NewValidationError("окончание периода должно быть позже начала")
		}

		var contract models.Contract
		if err := tx.First(&contract, period.ContractID).Error; err != nil {
			return err
		}

		if odometerStart != nil {
			period.OdometerStart = odometerStart
		}
		if odometerEnd != nil {
			period.OdometerEnd = odometerEnd
		}

		// Пробег нужен моделям PER_KM и MONTHLY_WITH_KM
		needsDistance := contract.BillingModel == models.BillingModelPerKm ||
			contract.BillingModel == models.BillingModelMonthlyWithKm
		if needsDistance && (period.OdometerStart == nil || period.OdometerEnd == nil) {
			return NewValidationError("для модели %s обязательны начальное и конечное показания одометра", contract.BillingModel)
		}

		var billedDistance *float64
		if period.OdometerStart != nil && period.OdometerEnd != nil {
			if *period.OdometerEnd < *period.OdometerStart {
				return NewValidationError("конечный одометр %.1f меньше начального %.1f",
					*period.OdometerEnd, *period.OdometerStart)
			}
			d := *period.OdometerEnd - *period.OdometerStart
			billedDistance = &d
		}

		rate, err := s.resolveRate(tx, &contract, period.VehicleID, period.StartTime)
		if err != nil {
			return err
		}

		amount := computeAmount(&contract, rate, billedDistance, period.StartTime, endTime)

		period.EndTime = &endTime
		period.BilledDistance = billedDistance
		period.BilledAmount = &amount
		period.Status = models.RentalPeriodStatusClosed
		return tx.Save(&period).Error
	})
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// resolveRate определяет ставку единым порядком для всех моделей оплаты:
// индивидуальная ставка привязки машины, действующая на дату начала периода,
// затем ставка контракта за километр, затем базовая стоимость.
func (s *BillingService) resolveRate(tx *gorm.DB, contract *models.Contract, vehicleID uint, startDate time.Time) (float64, error) {
	var link models.ContractVehicle
	err := tx.Where("contract_id = ? AND vehicle_id = ? AND custom_rate IS NOT NULL", contract.ID, vehicleID).
		Where("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", startDate, startDate).
		Order("start_date DESC").
		First(&link).Error
	if err == nil {
		return *link.CustomRate, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, err
	}

	if contract.KmExtraRate != nil {
		return *contract.KmExtraRate, nil
	}
	return contract.BaseValue, nil
}

// computeAmount считает сумму по модели оплаты контракта.
func computeAmount(contract *models.Contract, rate float64, billedDistance *float64, start, end time.Time) float64 {
	switch contract.BillingModel {
	case models.BillingModelPerKm:
		distance := 0.0
		if billedDistance != nil {
			distance = *billedDistance
		}
		return roundMoney(distance * rate)
	case models.BillingModelPerDay:
		return roundMoney(float64(inclusiveDays(start, end)) * rate)
	default:
		// FIXED и MONTHLY_WITH_KM: базовая стоимость вне зависимости
		// от пробега, пробег остается в записи для отчетности
		return roundMoney(contract.BaseValue)
	}
}

// inclusiveDays считает число календарных суток включительно:
// 10.01 - 12.01 дает 3 дня.
func inclusiveDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	return int(e.Sub(s).Hours()/24) + 1
}

// roundMoney округляет сумму до копеек.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
