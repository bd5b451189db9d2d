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

// RentalOpen открывает период аренды машины по контракту
func RentalOpen(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ContractID    uint       `json:"contract_id" binding:"required"`
			VehicleID     uint       `json:"vehicle_id" binding:"required"`
			StartTime     *time.Time `json:"start_time"`
			OdometerStart *float64   `json:"odometer_start"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		municipalityID := middleware.MunicipalityID(c)

		var contract models.Contract
		if err := db.Where("id = ? AND municipality_id = ? AND active = ?",
			req.ContractID, municipalityID, true).First(&contract).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Активный контракт не найден"})
			return
		}
		var vehicle models.Vehicle
		if err := db.Where("id = ? AND municipality_id = ?", req.VehicleID, municipalityID).
			First(&vehicle).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Машина не найдена"})
			return
		}

		// Второй открытый период по той же машине не допускается
		var open int64
		db.Model(&models.RentalPeriod{}).
			Where("vehicle_id = ? AND status = ?", vehicle.ID, models.RentalPeriodStatusOpen).
			Count(&open)
		if open > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "По машине уже есть открытый период аренды"})
			return
		}

		start := time.Now()
		if req.StartTime != nil {
			start = *req.StartTime
		}
		odometerStart := req.OdometerStart
		if odometerStart == nil {
			v := vehicle.CurrentOdometer
			odometerStart = &v
		}

		period := models.RentalPeriod{
			MunicipalityID: municipalityID,
			ContractID:     contract.ID,
			VehicleID:      vehicle.ID,
			StartTime:      start,
			OdometerStart:  odometerStart,
			Status:         models.RentalPeriodStatusOpen,
		}
		if err := db.Create(&period).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при открытии периода аренды"})
			return
		}
		c.JSON(http.StatusCreated, period)
	}
}

// RentalClose закрывает период аренды и рассчитывает сумму по модели
// биллинга контракта. Повторное закрытие отклоняется.
func RentalClose(billing *services.BillingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			EndTime       *time.Time `json:"end_time"`
			OdometerStart *float64   `json:"odometer_start"`
			OdometerEnd   *float64   `json:"odometer_end"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		endTime := time.Now()
		if req.EndTime != nil {
			endTime = *req.EndTime
		}

		period, err := billing.ClosePeriod(id, middleware.MunicipalityID(c), endTime, req.OdometerStart, req.OdometerEnd)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, period)
	}
}

// RentalList возвращает периоды аренды тенанта, опционально по статусу
func RentalList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Where("municipality_id = ?", middleware.MunicipalityID(c))
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var periods []models.RentalPeriod
		if err := query.Order("start_time DESC").Find(&periods).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении периодов аренды"})
			return
		}
		c.JSON(http.StatusOK, periods)
	}
}
