package services

import (
	"fmt"
	"time"

	"frota-backend/internal/models"

	"gorm.io/gorm"
)

// Window — полуоткрытый интервал времени [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps проверяет пересечение полуоткрытых интервалов:
// [s1,e1) пересекается с [s2,e2) тогда и только тогда, когда s1 < e2 и s2 < e1.
// Окна "впритык" (конец одного равен началу другого) НЕ конфликтуют.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// AvailabilityService проверяет занятость машин и водителей по трем
// независимым источникам: другие поездки, блокировки недоступности
// и назначения на маршруты. Только чтение, без побочных эффектов.
type AvailabilityService struct {
	db *gorm.DB
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{db: db}
}

// schedulingStatuses — статусы поездок, участвующих в проверке конфликтов.
var schedulingStatuses = []models.TripStatus{
	models.TripStatusPlanned,
	models.TripStatusInProgress,
}

// CheckVehicle ищет пересекающиеся поездки той же машины.
// excludeTripID исключает саму редактируемую поездку (0 — без исключения).
func (s *AvailabilityService) CheckVehicle(vehicleID uint, w Window, excludeTripID uint) error {
	var trip models.Trip
	err := s.db.
		Where("vehicle_id = ? AND status IN ? AND id <> ?", vehicleID, schedulingStatuses, excludeTripID).
		Where("departure_time < ? AND expected_return > ?", w.End, w.Start).
		Order("departure_time").
		First(&trip).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	return &ConflictError{
		Kind:    ConflictKindVehicle,
		Message: fmt.Sprintf("машина занята поездкой #%d", trip.ID),
		Start:   trip.DepartureTime,
		End:     trip.ExpectedReturn,
	}
}

// CheckDriver ищет пересекающиеся поездки и активные блокировки водителя.
func (s *AvailabilityService) CheckDriver(driverID uint, w Window, excludeTripID uint) error {
	var trip models.Trip
	err := s.db.
		Where("driver_id = ? AND status IN ? AND id <> ?", driverID, schedulingStatuses, excludeTripID).
		Where("departure_time < ? AND expected_return > ?", w.End, w.Start).
		Order("departure_time").
		First(&trip).Error
	if err == nil {
		return &ConflictError{
			Kind:    ConflictKindDriver,
			Message: fmt.Sprintf("водитель занят поездкой #%d", trip.ID),
			Start:   trip.DepartureTime,
			End:     trip.ExpectedReturn,
		}
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	var block models.AvailabilityBlock
	err = s.db.
		Where("driver_id = ? AND status = ?", driverID, models.BlockStatusActive).
		Where("start_time < ? AND end_time > ?", w.End, w.Start).
		Order("start_time").
		First(&block).Error
	if err == nil {
		return &ConflictError{
			Kind:    ConflictKindBlock,
			Message: fmt.Sprintf("водитель недоступен: %s", block.Type),
			Start:   block.StartTime,
			End:     block.EndTime,
		}
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return nil
}

// CheckTrip проверяет машину и водителя для окна поездки.
// Порядок проверок фиксирован: сначала машина, затем водитель.
func (s *AvailabilityService) CheckTrip(vehicleID, driverID uint, w Window, excludeTripID uint) error {
	if err := s.CheckVehicle(vehicleID, w, excludeTripID); err != nil {
		return err
	}
	return s.CheckDriver(driverID, w, excludeTripID)
}

// AssignmentWindow вычисляет окно назначения: дата плюс время отправления
// маршрута, длительность — оценка маршрута (минимум один час).
func AssignmentWindow(a *models.RouteAssignment, route *models.Route) Window {
	start := combineDateTime(a.Date, route.DepartureTime)
	duration := time.Duration(route.EstimatedDuration) * time.Minute
	if duration <= 0 {
		duration = time.Hour
	}
	return Window{Start: start, End: start.Add(duration)}
}

// combineDateTime совмещает дату и время "HH:MM" в местной зоне.
func combineDateTime(date time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		t = time.Date(0, 1, 1, 7, 0, 0, 0, time.UTC)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

// CheckAssignment проверяет назначение против других назначений DRAFT/CONFIRMED
// с той же машиной или водителем на пересекающееся окно, а при подтверждении —
// дополнительно против поездок, как при создании поездки.
func (s *AvailabilityService) CheckAssignment(a *models.RouteAssignment, route *models.Route, confirming bool) error {
	w := AssignmentWindow(a, route)

	var others []models.RouteAssignment
	err := s.db.Preload("Route").
		Where("id <> ? AND status IN ?", a.ID, []models.AssignmentStatus{models.AssignmentStatusDraft, models.AssignmentStatusConfirmed}).
		Where("vehicle_id = ? OR driver_id = ?", a.VehicleID, a.DriverID).
		Find(&others).Error
	if err != nil {
		return err
	}
	for i := range others {
		ow := AssignmentWindow(&others[i], &others[i].Route)
		if w.Overlaps(ow) {
			return &ConflictError{
				Kind:    ConflictKindAssignment,
				Message: fmt.Sprintf("ресурс уже назначен на маршрут (назначение #%d)", others[i].ID),
				Start:   ow.Start,
				End:     ow.End,
			}
		}
	}

	if confirming {
		return s.CheckTrip(a.VehicleID, a.DriverID, w, 0)
	}
	return nil
}
