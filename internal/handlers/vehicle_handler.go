package handlers

import (
	"net/http"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// VehicleCreate создает машину в автопарке муниципалитета
func VehicleCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Plate              string   `json:"plate" binding:"required"`
			Model              string   `json:"model" binding:"required"`
			Year               int      `json:"year"`
			Capacity           int      `json:"capacity" binding:"required"`
			InitialOdometer    float64  `json:"initial_odometer"`
			MonthlyDistanceCap *float64 `json:"monthly_distance_cap"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		vehicle := models.Vehicle{
			MunicipalityID:     middleware.MunicipalityID(c),
			Plate:              req.Plate,
			Model:              req.Model,
			Year:               req.Year,
			Capacity:           req.Capacity,
			InitialOdometer:    req.InitialOdometer,
			CurrentOdometer:    req.InitialOdometer,
			MonthlyDistanceCap: req.MonthlyDistanceCap,
			Status:             models.VehicleStatusAvailable,
		}
		if err := db.Create(&vehicle).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании машины"})
			return
		}

		c.JSON(http.StatusCreated, vehicle)
	}
}

// VehicleList возвращает машины тенанта, опционально по статусу
func VehicleList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Where("municipality_id = ?", middleware.MunicipalityID(c))
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var vehicles []models.Vehicle
		if err := query.Order("plate").Find(&vehicles).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении машин"})
			return
		}

		response := make([]models.VehicleResponse, 0, len(vehicles))
		for _, v := range vehicles {
			response = append(response, models.VehicleResponse{
				ID:                 v.ID,
				Plate:              v.Plate,
				Model:              v.Model,
				Year:               v.Year,
				Capacity:           v.Capacity,
				CurrentOdometer:    v.CurrentOdometer,
				MonthlyDistanceCap: v.MonthlyDistanceCap,
				Status:             v.Status,
			})
		}
		c.JSON(http.StatusOK, response)
	}
}

// VehicleGetByID возвращает машину тенанта
func VehicleGetByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var vehicle models.Vehicle
		if err := db.Where("id = ? AND municipality_id = ?", id, middleware.MunicipalityID(c)).
			First(&vehicle).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Машина не найдена"})
			return
		}
		c.JSON(http.StatusOK, vehicle)
	}
}

// VehicleUpdateStatus меняет статус машины (вывод в ремонт, возврат в парк)
func VehicleUpdateStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			Status models.VehicleStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		switch req.Status {
		case models.VehicleStatusAvailable, models.VehicleStatusInUse,
			models.VehicleStatusMaintenance, models.VehicleStatusInactive:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус машины"})
			return
		}

		result := db.Model(&models.Vehicle{}).
			Where("id = ? AND municipality_id = ?", id, middleware.MunicipalityID(c)).
			Update("status", req.Status)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении статуса"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Машина не найдена"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": req.Status})
	}
}
