package services

import (
	"fmt"
	"time"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OdometerCascade применяет дельту пробега завершенной поездки:
// месячный накопитель, износ шин, триггеры планов обслуживания.
// Каскад каждой машины независим: сбой на одной машине не затрагивает другие.
type OdometerCascade struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewOdometerCascade(db *gorm.DB, notifier *NotificationService) *OdometerCascade {
	return &OdometerCascade{db: db, notifier: notifier}
}

// Apply выполняет каскад внутри переданной транзакции и возвращает
// накопленный пробег машины за месяц после прибавления дельты.
// Дельта не может быть отрицательной; накопитель никогда не уменьшается.
func (c *OdometerCascade) Apply(tx *gorm.DB, vehicle *models.Vehicle, deltaKm float64, year int, month int) (float64, error) {
	if deltaKm < 0 {
		return 0, NewValidationError("отрицательная дельта пробега: %.1f", deltaKm)
	}

	monthTotal, err := c.bumpMonthly(tx, vehicle.ID, deltaKm, year, month)
	if err != nil {
		return 0, err
	}

	if err := c.wearTires(tx, vehicle, deltaKm); err != nil {
		return 0, err
	}

	if err := c.checkPlans(tx, vehicle); err != nil {
		return 0, err
	}

	return monthTotal, nil
}

// bumpMonthly инкрементирует строку (машина, год, месяц) атомарным upsert.
func (c *OdometerCascade) bumpMonthly(tx *gorm.DB, vehicleID uint, deltaKm float64, year, month int) (float64, error) {
	row := models.MonthlyOdometer{
		VehicleID:     vehicleID,
		Year:          year,
		Month:         month,
		AccumulatedKm: deltaKm,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "vehicle_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"accumulated_km": gorm.Expr("accumulated_km + ?", deltaKm),
			"updated_at":     time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, err
	}

	var current models.MonthlyOdometer
	if err := tx.Where("vehicle_id = ? AND year = ? AND month = ?", vehicleID, year, month).
		First(&current).Error; err != nil {
		return 0, err
	}
	return current.AccumulatedKm, nil
}

// wearTires добавляет дельту всем установленным шинам и открывает заявку
// на шиномонтаж при достижении ресурса.
func (c *OdometerCascade) wearTires(tx *gorm.DB, vehicle *models.Vehicle, deltaKm float64) error {
	var installed []models.VehicleTire
	if err := tx.Where("vehicle_id = ? AND removed_at IS NULL", vehicle.ID).Find(&installed).Error; err != nil {
		return err
	}

	for _, vt := range installed {
		var tire models.Tire
		if err := tx.First(&tire, vt.TireID).Error; err != nil {
			return err
		}

		tire.AccumulatedKm += deltaKm
		tire.KmSinceRetread += deltaKm
		if err := tx.Model(&tire).Updates(map[string]interface{}{
			"accumulated_km":   tire.AccumulatedKm,
			"km_since_retread": tire.KmSinceRetread,
		}).Error; err != nil {
			return err
		}

		if tire.AccumulatedKm >= tire.RatedLifeKm {
			desc := fmt.Sprintf("Шина %s (позиция %s) выработала ресурс: %.0f из %.0f км",
				tire.Serial, vt.Position, tire.AccumulatedKm, tire.RatedLifeKm)
			if err := c.openServiceOrder(tx, vehicle, models.MaintenanceTypeTire, desc); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkPlans проверяет активные планы обслуживания машины:
// триггер по пробегу и триггер по времени.
func (c *OdometerCascade) checkPlans(tx *gorm.DB, vehicle *models.Vehicle) error {
	var plans []models.MaintenancePlan
	if err := tx.Where("vehicle_id = ? AND active = ?", vehicle.ID, true).Find(&plans).Error; err != nil {
		return err
	}

	for _, plan := range plans {
		due := false
		reason := ""

		if plan.KmInterval != nil {
			lastKm := vehicle.InitialOdometer
			if plan.LastServiceOdometer != nil {
				lastKm = *plan.LastServiceOdometer
			}
			if vehicle.CurrentOdometer-lastKm >= *plan.KmInterval {
				due = true
				reason = fmt.Sprintf("пробег с последнего ТО %.0f км при интервале %.0f км",
					vehicle.CurrentOdometer-lastKm, *plan.KmInterval)
			}
		}

		if !due && plan.DayInterval != nil {
			// Отсутствие даты последнего ТО тоже считается срабатыванием триггера
			if plan.LastServiceDate == nil {
				due = true
				reason = "дата последнего ТО не зафиксирована"
			} else if int(time.Since(*plan.LastServiceDate).Hours()/24) >= *plan.DayInterval {
				due = true
				reason = fmt.Sprintf("прошло более %d дней с последнего ТО", *plan.DayInterval)
			}
		}

		if due {
			desc := fmt.Sprintf("План «%s»: %s", plan.Description, reason)
			if err := c.openServiceOrder(tx, vehicle, models.MaintenanceTypePreventive, desc); err != nil {
				return err
			}
		}
	}
	return nil
}

// openServiceOrder открывает заявку, если по машине нет открытой заявки
// того же типа. Это защита от дублирования, а не очередь.
func (c *OdometerCascade) openServiceOrder(tx *gorm.DB, vehicle *models.Vehicle, orderType models.MaintenanceType, description string) error {
	var count int64
	err := tx.Model(&models.ServiceOrder{}).
		Where("vehicle_id = ? AND type = ? AND status IN ?",
			vehicle.ID, orderType, models.NonTerminalServiceOrderStatuses).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	order := models.ServiceOrder{
		MunicipalityID: vehicle.MunicipalityID,
		VehicleID:      vehicle.ID,
		Type:           orderType,
		Status:         models.ServiceOrderStatusOpen,
		Description:    description,
		OpenedAt:       time.Now(),
	}
	if err := tx.Create(&order).Error; err != nil {
		return err
	}

	middleware.ServiceOrdersOpenedTotal.WithLabelValues(string(orderType)).Inc()

	if c.notifier != nil {
		c.notifier.Notify(vehicle.MunicipalityID, nil, nil, "service_order",
			"Открыта заявка на обслуживание",
			fmt.Sprintf("Машина %s: %s", vehicle.Plate, description))
	}
	return nil
}
