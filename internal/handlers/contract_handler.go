package handlers

import (
	"net/http"
	"time"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ContractCreate создает контракт аренды с поставщиком
func ContractCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Supplier     string              `json:"supplier" binding:"required"`
			Number       string              `json:"number"`
			BillingModel models.BillingModel `json:"billing_model" binding:"required"`
			BaseValue    float64             `json:"base_value"`
			KmExtraRate  *float64            `json:"km_extra_rate"`
			StartDate    time.Time           `json:"start_date" binding:"required"`
			EndDate      *time.Time          `json:"end_date"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		switch req.BillingModel {
		case models.BillingModelFixed, models.BillingModelPerKm,
			models.BillingModelPerDay, models.BillingModelMonthlyWithKm:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная модель биллинга"})
			return
		}

		contract := models.Contract{
			MunicipalityID: middleware.MunicipalityID(c),
			Supplier:       req.Supplier,
			Number:         req.Number,
			BillingModel:   req.BillingModel,
			BaseValue:      req.BaseValue,
			KmExtraRate:    req.KmExtraRate,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			Active:         true,
		}
		if err := db.Create(&contract).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании контракта"})
			return
		}
		c.JSON(http.StatusCreated, contract)
	}
}

// ContractList возвращает контракты тенанта
func ContractList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var contracts []models.Contract
		err := db.Where("municipality_id = ?", middleware.MunicipalityID(c)).
			Order("start_date DESC").
			Find(&contracts).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении контрактов"})
			return
		}
		c.JSON(http.StatusOK, contracts)
	}
}

// ContractLinkVehicle привязывает машину к контракту, опционально
// с индивидуальной ставкой, переопределяющей ставку контракта
func ContractLinkVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		contractID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			VehicleID  uint       `json:"vehicle_id" binding:"required"`
			CustomRate *float64   `json:"custom_rate"`
			StartDate  time.Time  `json:"start_date" binding:"required"`
			EndDate    *time.Time `json:"end_date"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		municipalityID := middleware.MunicipalityID(c)

		var contract models.Contract
		if err := db.Where("id = ? AND municipality_id = ?", contractID, municipalityID).
			First(&contract).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Контракт не найден"})
			return
		}
		var vehicle models.Vehicle
		if err := db.Where("id = ? AND municipality_id = ?", req.VehicleID, municipalityID).
			First(&vehicle).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Машина не найдена"})
			return
		}

		link := models.ContractVehicle{
			ContractID: contract.ID,
			VehicleID:  vehicle.ID,
			CustomRate: req.CustomRate,
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
		}
		if err := db.Create(&link).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при привязке машины"})
			return
		}
		c.JSON(http.StatusCreated, link)
	}
}
