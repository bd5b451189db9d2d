package handlers

import (
	"net/http"
	"strconv"
	"time"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DriverCreate регистрирует водителя
func DriverCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FirstName   string     `json:"firstName" binding:"required"`
			LastName    string     `json:"lastName" binding:"required"`
			Phone       string     `json:"phone"`
			CNHNumber   string     `json:"cnh_number"`
			CNHCategory string     `json:"cnh_category"`
			CNHExpiry   *time.Time `json:"cnh_expiry"`
			FreeTrips   bool       `json:"free_trips"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		driver := models.Driver{
			MunicipalityID: middleware.MunicipalityID(c),
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Phone:          req.Phone,
			CNHNumber:      req.CNHNumber,
			CNHCategory:    req.CNHCategory,
			CNHExpiry:      req.CNHExpiry,
			Active:         true,
			FreeTrips:      req.FreeTrips,
		}
		if err := db.Create(&driver).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании водителя"})
			return
		}
		c.JSON(http.StatusCreated, driver)
	}
}

// DriverList возвращает водителей тенанта
func DriverList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Where("municipality_id = ?", middleware.MunicipalityID(c))
		if active := c.Query("active"); active != "" {
			query = query.Where("active = ?", active == "true")
		}

		var drivers []models.Driver
		if err := query.Order("last_name, first_name").Find(&drivers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении водителей"})
			return
		}
		c.JSON(http.StatusOK, drivers)
	}
}

// DriverSetActive активирует или деактивирует водителя
func DriverSetActive(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			Active *bool `json:"active" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		result := db.Model(&models.Driver{}).
			Where("id = ? AND municipality_id = ?", id, middleware.MunicipalityID(c)).
			Update("active", *req.Active)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении водителя"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Водитель не найден"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"active": *req.Active})
	}
}

// DriverExpiringCNH — читающий путь для внешних периодических напоминаний:
// водители, у которых срок действия CNH истекает в ближайшие N дней.
func DriverExpiringCNH(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := 30
		if val, err := strconv.Atoi(c.Query("days")); err == nil && val > 0 {
			days = val
		}
		deadline := time.Now().AddDate(0, 0, days)

		var drivers []models.Driver
		err := db.Where("municipality_id = ? AND active = ?", middleware.MunicipalityID(c), true).
			Where("cnh_expiry IS NOT NULL AND cnh_expiry <= ?", deadline).
			Order("cnh_expiry").
			Find(&drivers).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении водителей"})
			return
		}
		c.JSON(http.StatusOK, drivers)
	}
}
