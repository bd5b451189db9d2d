package handlers

import (
	"net/http"
	"time"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"
	"frota-backend/internal/services"
	"frota-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TripCreate создает поездку: валидация и проверка доступности ресурсов
// выполняются сервисом до любой записи
func TripCreate(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			VehicleID        uint                `json:"vehicle_id" binding:"required"`
			DriverID         uint                `json:"driver_id" binding:"required"`
			ContractID       *uint               `json:"contract_id"`
			RentalPeriodID   *uint               `json:"rental_period_id"`
			Category         models.TripCategory `json:"category"`
			Origin           string              `json:"origin"`
			Destination      string              `json:"destination"`
			DepartureTime    time.Time           `json:"departure_time" binding:"required"`
			ExpectedReturn   time.Time           `json:"expected_return" binding:"required"`
			PassengerCount   int                 `json:"passenger_count"`
			CargoDescription string              `json:"cargo_description"`
			CargoSize        string              `json:"cargo_size"`
			CargoPurpose     string              `json:"cargo_purpose"`
			CargoQuantity    int                 `json:"cargo_quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if req.Category == "" {
			req.Category = models.TripCategoryPassenger
		}

		trip, err := trips.Create(services.TripCreateInput{
			MunicipalityID:   middleware.MunicipalityID(c),
			VehicleID:        req.VehicleID,
			DriverID:         req.DriverID,
			ContractID:       req.ContractID,
			RentalPeriodID:   req.RentalPeriodID,
			Category:         req.Category,
			Origin:           req.Origin,
			Destination:      req.Destination,
			DepartureTime:    req.DepartureTime,
			ExpectedReturn:   req.ExpectedReturn,
			PassengerCount:   req.PassengerCount,
			CargoDescription: req.CargoDescription,
			CargoSize:        req.CargoSize,
			CargoPurpose:     req.CargoPurpose,
			CargoQuantity:    req.CargoQuantity,
		})
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, trip)
	}
}

// TripList возвращает поездки тенанта, опционально по статусу
func TripList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Vehicle").Preload("Driver").
			Where("municipality_id = ?", middleware.MunicipalityID(c))
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var trips []models.Trip
		if err := query.Order("departure_time DESC").Find(&trips).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении поездок"})
			return
		}

		response := make([]models.TripResponse, 0, len(trips))
		for _, t := range trips {
			response = append(response, tripToResponse(&t))
		}
		c.JSON(http.StatusOK, response)
	}
}

// TripGetByID возвращает поездку тенанта
func TripGetByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var trip models.Trip
		err := db.Preload("Vehicle").Preload("Driver").
			Where("id = ? AND municipality_id = ?", id, middleware.MunicipalityID(c)).
			First(&trip).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Поездка не найдена"})
			return
		}
		c.JSON(http.StatusOK, tripToResponse(&trip))
	}
}

// TripStart переводит поездку в IN_PROGRESS
func TripStart(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		trip, err := trips.Start(id, middleware.MunicipalityID(c))
		if err != nil {
			respondServiceError(c, err)
			return
		}

		notifyTripStatus(c, trip)
		c.JSON(http.StatusOK, trip)
	}
}

// TripComplete завершает поездку с показанием одометра и запускает каскад
func TripComplete(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			OdometerEnd  *float64   `json:"odometer_end" binding:"required"`
			ActualReturn *time.Time `json:"actual_return"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		actualReturn := time.Now()
		if req.ActualReturn != nil {
			actualReturn = *req.ActualReturn
		}

		trip, err := trips.Complete(id, middleware.MunicipalityID(c), *req.OdometerEnd, actualReturn)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		notifyTripStatus(c, trip)
		c.JSON(http.StatusOK, trip)
	}
}

// TripSelfComplete — завершение поездки самим водителем без одометра
func TripSelfComplete(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		val, _ := c.Get("driver_id")
		driverID, _ := val.(uint)
		if driverID == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "Доступно только водителям"})
			return
		}

		trip, err := trips.SelfComplete(id, driverID, time.Now())
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, trip)
	}
}

// TripCancel отменяет поездку
func TripCancel(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			Reason string `json:"reason"`
		}
		c.ShouldBindJSON(&req)

		trip, err := trips.Cancel(id, middleware.MunicipalityID(c), req.Reason)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		notifyTripStatus(c, trip)
		c.JSON(http.StatusOK, trip)
	}
}

// TripReschedule переносит запланированную поездку на новое окно
func TripReschedule(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			DepartureTime  time.Time `json:"departure_time" binding:"required"`
			ExpectedReturn time.Time `json:"expected_return" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		trip, err := trips.Reschedule(id, middleware.MunicipalityID(c), req.DepartureTime, req.ExpectedReturn)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, trip)
	}
}

// CheckAvailability — явная проверка доступности ресурса на окно,
// без каких-либо побочных эффектов
func CheckAvailability(availability *services.AvailabilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ResourceKind string    `json:"resource_kind" binding:"required"` // vehicle или driver
			ResourceID   uint      `json:"resource_id" binding:"required"`
			Start        time.Time `json:"start" binding:"required"`
			End          time.Time `json:"end" binding:"required"`
			ExcludeID    uint      `json:"exclude_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		window := services.Window{Start: req.Start, End: req.End}
		var err error
		switch req.ResourceKind {
		case "vehicle":
			err = availability.CheckVehicle(req.ResourceID, window, req.ExcludeID)
		case "driver":
			err = availability.CheckDriver(req.ResourceID, window, req.ExcludeID)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный вид ресурса"})
			return
		}
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"available": true})
	}
}

func tripToResponse(t *models.Trip) models.TripResponse {
	return models.TripResponse{
		ID:             t.ID,
		VehicleID:      t.VehicleID,
		DriverID:       t.DriverID,
		RouteID:        t.RouteID,
		Category:       t.Category,
		Status:         t.Status,
		Origin:         t.Origin,
		Destination:    t.Destination,
		DepartureTime:  t.DepartureTime,
		ExpectedReturn: t.ExpectedReturn,
		ActualReturn:   t.ActualReturn,
		OdometerStart:  t.OdometerStart,
		OdometerEnd:    t.OdometerEnd,
		PassengerCount: t.PassengerCount,
		VehiclePlate:   t.Vehicle.Plate,
		DriverName:     t.Driver.FullName(),
	}
}

// notifyTripStatus отправляет обновление статуса инициатору по WebSocket
func notifyTripStatus(c *gin.Context, trip *models.Trip) {
	if userID, exists := c.Get("user_id"); exists {
		websocket.SendTripStatusUpdate(userID.(uint), trip.ID, string(trip.Status))
	}
}
