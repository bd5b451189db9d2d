package handlers

import (
	"net/http"
	"time"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"
	"frota-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AssignmentCreate создает черновик назначения машины и водителя на маршрут.
// Конфликты с другими назначениями проверяются уже на черновике.
func AssignmentCreate(db *gorm.DB, availability *services.AvailabilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RouteID   uint      `json:"route_id" binding:"required"`
			VehicleID uint      `json:"vehicle_id" binding:"required"`
			DriverID  uint      `json:"driver_id" binding:"required"`
			Date      time.Time `json:"date" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		municipalityID := middleware.MunicipalityID(c)

		var route models.Route
		if err := db.Where("id = ? AND municipality_id = ?", req.RouteID, municipalityID).
			First(&route).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Маршрут не найден"})
			return
		}

		assignment := models.RouteAssignment{
			MunicipalityID: municipalityID,
			RouteID:        req.RouteID,
			VehicleID:      req.VehicleID,
			DriverID:       req.DriverID,
			Date:           req.Date,
			Status:         models.AssignmentStatusDraft,
		}

		if err := availability.CheckAssignment(&assignment, &route, false); err != nil {
			respondServiceError(c, err)
			return
		}

		if err := db.Create(&assignment).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании назначения"})
			return
		}
		c.JSON(http.StatusCreated, assignment)
	}
}

// AssignmentConfirm подтверждает назначение и материализует поездку.
// Поездка создается ровно один раз, при первом подтверждении.
func AssignmentConfirm(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		assignment, trip, err := trips.ConfirmAssignment(id, middleware.MunicipalityID(c))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"assignment": assignment,
			"trip":       trip,
		})
	}
}

// AssignmentCancel отменяет назначение
func AssignmentCancel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		result := db.Model(&models.RouteAssignment{}).
			Where("id = ? AND municipality_id = ? AND status <> ?",
				id, middleware.MunicipalityID(c), models.AssignmentStatusCancelled).
			Update("status", models.AssignmentStatusCancelled)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при отмене назначения"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Назначение не найдено"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": models.AssignmentStatusCancelled})
	}
}

// AssignmentList возвращает назначения тенанта на дату
func AssignmentList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Where("municipality_id = ?", middleware.MunicipalityID(c))
		if date := c.Query("date"); date != "" {
			day, err := time.Parse("2006-01-02", date)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты, ожидается YYYY-MM-DD"})
				return
			}
			query = query.Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1))
		}

		var assignments []models.RouteAssignment
		if err := query.Order("date DESC").Find(&assignments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении назначений"})
			return
		}
		c.JSON(http.StatusOK, assignments)
	}
}
