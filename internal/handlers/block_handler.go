package handlers

import (
	"net/http"
	"time"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BlockCreate создает блокировку недоступности водителя
func BlockCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			Type      models.BlockType `json:"type" binding:"required"`
			StartTime time.Time        `json:"start_time" binding:"required"`
			EndTime   time.Time        `json:"end_time" binding:"required"`
			Reason    string           `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if !req.EndTime.After(req.StartTime) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Окончание блокировки должно быть позже начала"})
			return
		}

		var driver models.Driver
		if err := db.Where("id = ? AND municipality_id = ?", driverID, middleware.MunicipalityID(c)).
			First(&driver).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Водитель не найден"})
			return
		}

		block := models.AvailabilityBlock{
			MunicipalityID: driver.MunicipalityID,
			DriverID:       driver.ID,
			Type:           req.Type,
			Status:         models.BlockStatusActive,
			StartTime:      req.StartTime,
			EndTime:        req.EndTime,
			Reason:         req.Reason,
		}
		if err := db.Create(&block).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании блокировки"})
			return
		}
		c.JSON(http.StatusCreated, block)
	}
}

// BlockCancel логически отменяет блокировку: запись остается,
// но перестает участвовать в проверках конфликтов
func BlockCancel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		result := db.Model(&models.AvailabilityBlock{}).
			Where("id = ? AND municipality_id = ? AND status = ?",
				id, middleware.MunicipalityID(c), models.BlockStatusActive).
			Update("status", models.BlockStatusCancelled)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при отмене блокировки"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Активная блокировка не найдена"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": models.BlockStatusCancelled})
	}
}

// BlockListByDriver возвращает блокировки водителя
func BlockListByDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var blocks []models.AvailabilityBlock
		err := db.Where("driver_id = ? AND municipality_id = ?", driverID, middleware.MunicipalityID(c)).
			Order("start_time DESC").
			Find(&blocks).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении блокировок"})
			return
		}
		c.JSON(http.StatusOK, blocks)
	}
}
