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

// GeofenceUpsert создает или обновляет геозону водителя.
// У водителя не более одной геозоны.
func GeofenceUpsert(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			CenterLat *float64 `json:"center_lat" binding:"required"`
			CenterLng *float64 `json:"center_lng" binding:"required"`
			RadiusKm  *float64 `json:"radius_km" binding:"required"`
			Active    *bool    `json:"active"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if *req.RadiusKm <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Радиус должен быть положительным"})
			return
		}

		municipalityID := middleware.MunicipalityID(c)

		var driver models.Driver
		if err := db.Where("id = ? AND municipality_id = ?", driverID, municipalityID).
			First(&driver).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Водитель не найден"})
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}

		var fence models.Geofence
		err := db.Where("driver_id = ?", driver.ID).First(&fence).Error
		if err == gorm.ErrRecordNotFound {
			fence = models.Geofence{
				MunicipalityID: municipalityID,
				DriverID:       driver.ID,
				CenterLat:      *req.CenterLat,
				CenterLng:      *req.CenterLng,
				RadiusKm:       *req.RadiusKm,
				Active:         active,
			}
			if err := db.Create(&fence).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании геозоны"})
				return
			}
			c.JSON(http.StatusCreated, fence)
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении геозоны"})
			return
		}

		// Перенастройка зоны сбрасывает состояние гистерезиса
		updates := map[string]interface{}{
			"center_lat":   *req.CenterLat,
			"center_lng":   *req.CenterLng,
			"radius_km":    *req.RadiusKm,
			"active":       active,
			"alert_active": false,
		}
		if err := db.Model(&fence).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении геозоны"})
			return
		}
		db.Where("driver_id = ?", driver.ID).First(&fence)
		c.JSON(http.StatusOK, fence)
	}
}

// GeofenceGet возвращает геозону водителя
func GeofenceGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var fence models.Geofence
		err := db.Where("driver_id = ? AND municipality_id = ?", driverID, middleware.MunicipalityID(c)).
			First(&fence).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Геозона не найдена"})
			return
		}
		c.JSON(http.StatusOK, fence)
	}
}

// GeofencePing — REST-путь отправки позиции для клиентов без WebSocket.
// Позиция прогоняется через монитор геозон и отклонений от маршрута.
func GeofencePing(monitor *services.GeofenceMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DriverID  uint     `json:"driver_id"`
			Latitude  *float64 `json:"latitude" binding:"required"`
			Longitude *float64 `json:"longitude" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		driverID := req.DriverID
		if val, exists := c.Get("driver_id"); exists && val.(uint) != 0 {
			driverID = val.(uint)
		}
		if driverID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не указан водитель"})
			return
		}

		pos := services.Position{Latitude: *req.Latitude, Longitude: *req.Longitude}
		state, err := monitor.Evaluate(c.Request.Context(), driverID, pos, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обработке позиции"})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}
