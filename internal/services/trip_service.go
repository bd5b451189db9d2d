package services

import (
	"fmt"
	"time"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"

	"gorm.io/gorm"
)

// allowedTransitions — допустимые переходы жизненного цикла поездки.
// COMPLETED и CANCELLED — терминальные состояния.
var allowedTransitions = map[models.TripStatus][]models.TripStatus{
	models.TripStatusPlanned:    {models.TripStatusInProgress, models.TripStatusCancelled},
	models.TripStatusInProgress: {models.TripStatusCompleted, models.TripStatusCancelled},
	models.TripStatusCompleted:  {},
	models.TripStatusCancelled:  {},
}

// CanTransition проверяет, допустим ли переход from -> to.
func CanTransition(from, to models.TripStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TripService управляет жизненным циклом поездки: валидация создания,
// переходы статусов и каскад одометра при завершении.
type TripService struct {
	db           *gorm.DB
	availability *AvailabilityService
	cascade      *OdometerCascade
	optimizer    *RouteOptimizer
	notifier     *NotificationService
}

func NewTripService(db *gorm.DB, availability *AvailabilityService, cascade *OdometerCascade, notifier *NotificationService) *TripService {
	return &TripService{
		db:           db,
		availability: availability,
		cascade:      cascade,
		optimizer:    NewRouteOptimizer(),
		notifier:     notifier,
	}
}

// TripCreateInput — входные данные для создания поездки.
type TripCreateInput struct {
	MunicipalityID   uint
	VehicleID        uint
	DriverID         uint
	ContractID       *uint
	RentalPeriodID   *uint
	RouteID          *uint
	Category         models.TripCategory
	Origin           string
	Destination      string
	DepartureTime    time.Time
	ExpectedReturn   time.Time
	PassengerCount   int
	CargoDescription string
	CargoSize        string
	CargoPurpose     string
	CargoQuantity    int
}

// Create валидирует запрос, проверяет доступность ресурсов и создает поездку.
// Проверка и вставка сериализуются по машине и водителю, чтобы два
// конкурентных запроса на одно окно не прошли проверку одновременно.
func (s *TripService) Create(in TripCreateInput) (*models.Trip, error) {
	if !in.ExpectedReturn.After(in.DepartureTime) {
		return nil, NewValidationError("ожидаемое возвращение должно быть строго позже отправления")
	}

	var vehicle models.Vehicle
	if err := s.db.Where("id = ? AND municipality_id = ?", in.VehicleID, in.MunicipalityID).
		First(&vehicle).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("машина не найдена")
		}
		return nil, err
	}
	if vehicle.Status == models.VehicleStatusMaintenance || vehicle.Status == models.VehicleStatusInactive {
		return nil, NewValidationError("машина недоступна: статус %s", vehicle.Status)
	}

	var driver models.Driver
	if err := s.db.Where("id = ? AND municipality_id = ?", in.DriverID, in.MunicipalityID).
		First(&driver).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("водитель не найден")
		}
		return nil, err
	}
	if !driver.Active {
		return nil, NewValidationError("водитель неактивен")
	}
	if vehicle.MunicipalityID != driver.MunicipalityID {
		return nil, NewValidationError("машина и водитель принадлежат разным муниципалитетам")
	}

	if err := validateCargo(&in); err != nil {
		return nil, err
	}
	if in.PassengerCount > vehicle.Capacity {
		return nil, NewValidationError("количество пассажиров %d превышает вместимость %d",
			in.PassengerCount, vehicle.Capacity)
	}

	window := Window{Start: in.DepartureTime, End: in.ExpectedReturn}

	unlock := lockVehicleDriver(in.VehicleID, in.DriverID)
	defer unlock()

	if err := s.availability.CheckTrip(in.VehicleID, in.DriverID, window, 0); err != nil {
		if ce, ok := err.(*ConflictError); ok {
			middleware.SchedulingConflictsTotal.WithLabelValues(string(ce.Kind)).Inc()
		}
		return nil, err
	}

	trip := &models.Trip{
		MunicipalityID:   in.MunicipalityID,
		VehicleID:        in.VehicleID,
		DriverID:         in.DriverID,
		ContractID:       in.ContractID,
		RentalPeriodID:   in.RentalPeriodID,
		RouteID:          in.RouteID,
		Category:         in.Category,
		Status:           models.TripStatusPlanned,
		Origin:           in.Origin,
		Destination:      in.Destination,
		DepartureTime:    in.DepartureTime,
		ExpectedReturn:   in.ExpectedReturn,
		PassengerCount:   in.PassengerCount,
		CargoDescription: in.CargoDescription,
		CargoSize:        in.CargoSize,
		CargoPurpose:     in.CargoPurpose,
		CargoQuantity:    in.CargoQuantity,
	}
	if err := s.db.Create(trip).Error; err != nil {
		return nil, err
	}

	middleware.TripsCreatedTotal.Inc()
	return trip, nil
}

// validateCargo проверяет поля груза в зависимости от категории.
// Для чисто грузовой поездки пассажирские поля принудительно обнуляются.
func validateCargo(in *TripCreateInput) error {
	switch in.Category {
	case models.TripCategoryObject, models.TripCategoryMixed:
		if in.CargoDescription == "" || in.CargoSize == "" || in.CargoPurpose == "" || in.CargoQuantity <= 0 {
			return NewValidationError("для грузовой поездки обязательны описание, габариты, назначение и количество груза")
		}
		if in.Category == models.TripCategoryObject {
			in.PassengerCount = 0
		}
	case models.TripCategoryPassenger:
		// Пассажирская поездка не требует полей груза
	default:
		return NewValidationError("неизвестная категория поездки: %s", in.Category)
	}
	return nil
}

// Reschedule переносит запланированную поездку на новое окно,
// исключая саму поездку из проверки конфликтов.
func (s *TripService) Reschedule(tripID, municipalityID uint, departure, expectedReturn time.Time) (*models.Trip, error) {
	if !expectedReturn.After(departure) {
		return nil, NewValidationError("ожидаемое возвращение должно быть строго позже отправления")
	}

	trip, err := s.getTrip(tripID, municipalityID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripStatusPlanned {
		return nil, NewStateError("перенести можно только запланированную поездку")
	}

	unlock := lockVehicleDriver(trip.VehicleID, trip.DriverID)
	defer unlock()

	window := Window{Start: departure, End: expectedReturn}
	if err := s.availability.CheckTrip(trip.VehicleID, trip.DriverID, window, trip.ID); err != nil {
		if ce, ok := err.(*ConflictError); ok {
			middleware.SchedulingConflictsTotal.WithLabelValues(string(ce.Kind)).Inc()
		}
		return nil, err
	}

	trip.DepartureTime = departure
	trip.ExpectedReturn = expectedReturn
	if err := s.db.Save(trip).Error; err != nil {
		return nil, err
	}
	return trip, nil
}

// Start переводит поездку в IN_PROGRESS и фиксирует одометр отправления.
func (s *TripService) Start(tripID, municipalityID uint) (*models.Trip, error) {
	trip, err := s.getTrip(tripID, municipalityID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(trip.Status, models.TripStatusInProgress) {
		return nil, NewStateError("недопустимый переход %s -> %s", trip.Status, models.TripStatusInProgress)
	}

	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, trip.VehicleID).Error; err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		trip.Status = models.TripStatusInProgress
		if trip.OdometerStart == nil {
			start := vehicle.CurrentOdometer
			trip.OdometerStart = &start
		}
		if err := tx.Save(trip).Error; err != nil {
			return err
		}
		return tx.Model(&models.Vehicle{}).Where("id = ?", vehicle.ID).
			Update("status", models.VehicleStatusInUse).Error
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// Complete завершает поездку с показанием одометра и запускает каскад:
// одометр машины, месячный накопитель, износ шин, планы ТО.
// Повторное завершение отклоняется (терминальный статус).
func (s *TripService) Complete(tripID, municipalityID uint, odometerEnd float64, actualReturn time.Time) (*models.Trip, error) {
	probe, err := s.getTrip(tripID, municipalityID)
	if err != nil {
		return nil, err
	}

	// Сериализация по машине: два конкурентных завершения не должны
	// гоняться на обновлении одометра и месячного накопителя
	mu := lockResource("vehicle", probe.VehicleID)
	defer mu.Unlock()

	var trip models.Trip
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			Where("id = ? AND municipality_id = ?", tripID, municipalityID).
			First(&trip).Error; err != nil {
			return err
		}
		if trip.IsTerminal() {
			return NewStateError("поездка уже в терминальном статусе %s", trip.Status)
		}
		if !CanTransition(trip.Status, models.TripStatusCompleted) {
			return NewStateError("недопустимый переход %s -> %s", trip.Status, models.TripStatusCompleted)
		}
		if actualReturn.Before(trip.DepartureTime) {
			return NewValidationError("фактическое возвращение раньше отправления")
		}

		var vehicle models.Vehicle
		if err := forUpdate(tx).
			First(&vehicle, trip.VehicleID).Error; err != nil {
			return err
		}

		start := vehicle.CurrentOdometer
		if trip.OdometerStart != nil {
			start = *trip.OdometerStart
		}
		if odometerEnd < start {
			return NewValidationError("одометр завершения %.1f меньше одометра отправления %.1f", odometerEnd, start)
		}
		distance := odometerEnd - start

		trip.Status = models.TripStatusCompleted
		trip.OdometerStart = &start
		trip.OdometerEnd = &odometerEnd
		trip.ActualReturn = &actualReturn
		if err := tx.Save(&trip).Error; err != nil {
			return err
		}

		vehicle.CurrentOdometer = odometerEnd
		if vehicle.Status == models.VehicleStatusInUse {
			vehicle.Status = models.VehicleStatusAvailable
		}

		// Месяц каскада определяется отправлением поездки в местном времени
		dep := trip.DepartureTime.Local()
		monthTotal, err := s.cascade.Apply(tx, &vehicle, distance, dep.Year(), int(dep.Month()))
		if err != nil {
			return err
		}

		// Превышение месячного лимита — мягкий сигнал: машина помечается
		// MAINTENANCE, уже идущие поездки не прерываются
		if vehicle.MonthlyDistanceCap != nil && monthTotal > *vehicle.MonthlyDistanceCap {
			vehicle.Status = models.VehicleStatusMaintenance
			if s.notifier != nil {
				s.notifier.Notify(vehicle.MunicipalityID, nil, nil, "monthly_cap",
					"Превышен месячный лимит пробега",
					fmt.Sprintf("Машина %s: %.0f км при лимите %.0f км",
						vehicle.Plate, monthTotal, *vehicle.MonthlyDistanceCap))
			}
		}

		return tx.Save(&vehicle).Error
	})
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// SelfComplete — завершение поездки самим водителем без ввода одометра.
// Доступно только водителям с флагом FreeTrips; требование "одометр
// завершения не меньше одометра отправления" здесь снимается,
// каскад пробега не выполняется.
func (s *TripService) SelfComplete(tripID, driverID uint, actualReturn time.Time) (*models.Trip, error) {
	var driver models.Driver
	if err := s.db.First(&driver, driverID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("водитель не найден")
		}
		return nil, err
	}
	if !driver.FreeTrips {
		return nil, NewValidationError("водителю не разрешено завершение поездки без одометра")
	}

	var trip models.Trip
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			Where("id = ? AND driver_id = ?", tripID, driverID).
			First(&trip).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewValidationError("поездка не найдена")
			}
			return err
		}
		if trip.IsTerminal() {
			return NewStateError("поездка уже в терминальном статусе %s", trip.Status)
		}
		if !CanTransition(trip.Status, models.TripStatusCompleted) {
			return NewStateError("недопустимый переход %s -> %s", trip.Status, models.TripStatusCompleted)
		}

		trip.Status = models.TripStatusCompleted
		trip.ActualReturn = &actualReturn
		if err := tx.Save(&trip).Error; err != nil {
			return err
		}
		return tx.Model(&models.Vehicle{}).
			Where("id = ? AND status = ?", trip.VehicleID, models.VehicleStatusInUse).
			Update("status", models.VehicleStatusAvailable).Error
	})
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// Cancel отменяет поездку из PLANNED или IN_PROGRESS.
// Отмена убирает поездку из будущих проверок конфликтов,
// но не пересматривает прошлые решения.
func (s *TripService) Cancel(tripID, municipalityID uint, reason string) (*models.Trip, error) {
	trip, err := s.getTrip(tripID, municipalityID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(trip.Status, models.TripStatusCancelled) {
		return nil, NewStateError("недопустимый переход %s -> %s", trip.Status, models.TripStatusCancelled)
	}

	wasInProgress := trip.Status == models.TripStatusInProgress
	err = s.db.Transaction(func(tx *gorm.DB) error {
		trip.Status = models.TripStatusCancelled
		trip.CancellationReason = reason
		if err := tx.Save(trip).Error; err != nil {
			return err
		}
		if wasInProgress {
			return tx.Model(&models.Vehicle{}).
				Where("id = ? AND status = ?", trip.VehicleID, models.VehicleStatusInUse).
				Update("status", models.VehicleStatusAvailable).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// ConfirmAssignment подтверждает назначение и материализует поездку
// ровно один раз — при первом переходе в CONFIRMED. Повторное
// подтверждение отклоняется статусным ограждением.
func (s *TripService) ConfirmAssignment(assignmentID, municipalityID uint) (*models.RouteAssignment, *models.Trip, error) {
	mu := lockResource("assignment", assignmentID)
	defer mu.Unlock()

	// Предварительное чтение ради идентификаторов ресурсов: проверка
	// доступности и вставка поездки сериализуются с созданием поездок
	// на тех же машине и водителе
	var head models.RouteAssignment
	if err := s.db.Where("id = ? AND municipality_id = ?", assignmentID, municipalityID).
		First(&head).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, NewValidationError("назначение не найдено")
		}
		return nil, nil, err
	}
	unlock := lockVehicleDriver(head.VehicleID, head.DriverID)
	defer unlock()

	var assignment models.RouteAssignment
	var trip models.Trip
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			Where("id = ? AND municipality_id = ?", assignmentID, municipalityID).
			First(&assignment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewValidationError("назначение не найдено")
			}
			return err
		}
		if assignment.Status != models.AssignmentStatusDraft {
			return NewStateError("подтвердить можно только черновик, текущий статус %s", assignment.Status)
		}

		var route models.Route
		if err := tx.Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num")
		}).First(&route, assignment.RouteID).Error; err != nil {
			return err
		}

		if err := s.availability.CheckAssignment(&assignment, &route, true); err != nil {
			if ce, ok := err.(*ConflictError); ok {
				middleware.SchedulingConflictsTotal.WithLabelValues(string(ce.Kind)).Inc()
			}
			return err
		}

		window := AssignmentWindow(&assignment, &route)
		optimized := s.optimizer.OptimizeStops(route.Stops)
		if route.EstimatedDuration <= 0 && optimized.DurationMinutes > 0 {
			window.End = window.Start.Add(time.Duration(optimized.DurationMinutes) * time.Minute)
		}

		origin, destination := route.Name, route.Name
		if len(optimized.Stops) > 0 {
			origin = optimized.Stops[0].Name
			destination = optimized.Stops[len(optimized.Stops)-1].Name
		}

		routeID := route.ID
		trip = models.Trip{
			MunicipalityID: assignment.MunicipalityID,
			VehicleID:      assignment.VehicleID,
			DriverID:       assignment.DriverID,
			RouteID:        &routeID,
			Category:       models.TripCategoryPassenger,
			Status:         models.TripStatusPlanned,
			Origin:         origin,
			Destination:    destination,
			DepartureTime:  window.Start,
			ExpectedReturn: window.End,
			PassengerCount: route.Capacity,
		}
		if err := tx.Create(&trip).Error; err != nil {
			return err
		}

		assignment.Status = models.AssignmentStatusConfirmed
		assignment.GeneratedTripID = &trip.ID
		return tx.Save(&assignment).Error
	})
	if err != nil {
		return nil, nil, err
	}

	middleware.TripsCreatedTotal.Inc()
	return &assignment, &trip, nil
}

func (s *TripService) getTrip(tripID, municipalityID uint) (*models.Trip, error) {
	var trip models.Trip
	if err := s.db.Where("id = ? AND municipality_id = ?", tripID, municipalityID).
		First(&trip).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("поездка не найдена")
		}
		return nil, err
	}
	return &trip, nil
}
