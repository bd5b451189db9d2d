package handlers

import (
	"net/http"
	"time"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"
	"frota-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MaintenancePlanCreate создает план обслуживания машины.
// Нужен хотя бы один триггер: по пробегу или по времени.
func MaintenancePlanCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			VehicleID   uint                   `json:"vehicle_id" binding:"required"`
			Type        models.MaintenanceType `json:"type"`
			Description string                 `json:"description"`
			KmInterval  *float64               `json:"km_interval"`
			DayInterval *int                   `json:"day_interval"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if req.KmInterval == nil && req.DayInterval == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Нужен интервал по пробегу или по дням"})
			return
		}
		if req.Type == "" {
			req.Type = models.MaintenanceTypePreventive
		}

		municipalityID := middleware.MunicipalityID(c)

		var vehicle models.Vehicle
		if err := db.Where("id = ? AND municipality_id = ?", req.VehicleID, municipalityID).
			First(&vehicle).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Машина не найдена"})
			return
		}

		plan := models.MaintenancePlan{
			MunicipalityID: municipalityID,
			VehicleID:      vehicle.ID,
			Type:           req.Type,
			Description:    req.Description,
			KmInterval:     req.KmInterval,
			DayInterval:    req.DayInterval,
			Active:         true,
		}
		if err := db.Create(&plan).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании плана"})
			return
		}
		c.JSON(http.StatusCreated, plan)
	}
}

// ServiceOrderList возвращает заявки на обслуживание, опционально по статусу
func ServiceOrderList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Vehicle").
			Where("municipality_id = ?", middleware.MunicipalityID(c))
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if vehicleID := c.Query("vehicle_id"); vehicleID != "" {
			query = query.Where("vehicle_id = ?", vehicleID)
		}

		var orders []models.ServiceOrder
		if err := query.Order("opened_at DESC").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении заявок"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// ServiceOrderUpdateStatus меняет статус заявки на обслуживание
func ServiceOrderUpdateStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			Status models.ServiceOrderStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		switch req.Status {
		case models.ServiceOrderStatusOpen, models.ServiceOrderStatusInProgress,
			models.ServiceOrderStatusWaitingParts, models.ServiceOrderStatusDone,
			models.ServiceOrderStatusCancelled:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус заявки"})
			return
		}

		var order models.ServiceOrder
		if err := db.Where("id = ? AND municipality_id = ?", id, middleware.MunicipalityID(c)).
			First(&order).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}

		updates := map[string]interface{}{"status": req.Status}
		if req.Status == models.ServiceOrderStatusDone || req.Status == models.ServiceOrderStatusCancelled {
			now := time.Now()
			updates["closed_at"] = &now
		}
		if err := db.Model(&order).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении заявки"})
			return
		}

		websocket.SendServiceOrderUpdate(order.MunicipalityID, order.ID, string(req.Status))
		c.JSON(http.StatusOK, gin.H{"status": req.Status})
	}
}

// TireCreate регистрирует шину
func TireCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Serial      string  `json:"serial" binding:"required"`
			Brand       string  `json:"brand"`
			RatedLifeKm float64 `json:"rated_life_km" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		tire := models.Tire{
			MunicipalityID: middleware.MunicipalityID(c),
			Serial:         req.Serial,
			Brand:          req.Brand,
			RatedLifeKm:    req.RatedLifeKm,
		}
		if err := db.Create(&tire).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании шины"})
			return
		}
		c.JSON(http.StatusCreated, tire)
	}
}

// TireInstall устанавливает шину на позицию машины. Если позиция занята,
// старая шина сначала снимается.
func TireInstall(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tireID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			VehicleID uint   `json:"vehicle_id" binding:"required"`
			Position  string `json:"position" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		municipalityID := middleware.MunicipalityID(c)

		var tire models.Tire
		if err := db.Where("id = ? AND municipality_id = ?", tireID, municipalityID).
			First(&tire).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Шина не найдена"})
			return
		}
		var vehicle models.Vehicle
		if err := db.Where("id = ? AND municipality_id = ?", req.VehicleID, municipalityID).
			First(&vehicle).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Машина не найдена"})
			return
		}

		// Шина не может стоять на двух машинах одновременно
		var mounted int64
		db.Model(&models.VehicleTire{}).
			Where("tire_id = ? AND removed_at IS NULL", tire.ID).
			Count(&mounted)
		if mounted > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Шина уже установлена на машину"})
			return
		}

		now := time.Now()
		var installed models.VehicleTire
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.VehicleTire{}).
				Where("vehicle_id = ? AND position = ? AND removed_at IS NULL", vehicle.ID, req.Position).
				Update("removed_at", &now).Error; err != nil {
				return err
			}
			installed = models.VehicleTire{
				VehicleID:   vehicle.ID,
				TireID:      tire.ID,
				Position:    req.Position,
				InstalledAt: now,
			}
			return tx.Create(&installed).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при установке шины"})
			return
		}
		c.JSON(http.StatusCreated, installed)
	}
}

// TireRemove снимает шину с машины
func TireRemove(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tireID, ok := paramID(c, "id")
		if !ok {
			return
		}

		now := time.Now()
		result := db.Model(&models.VehicleTire{}).
			Where("tire_id = ? AND removed_at IS NULL", tireID).
			Update("removed_at", &now)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при снятии шины"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Установленная шина не найдена"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed_at": now})
	}
}

// TireRetread регистрирует восстановление протектора: счетчик с последнего
// восстановления обнуляется, общий пробег шины сохраняется
func TireRetread(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tireID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var tire models.Tire
		if err := db.Where("id = ? AND municipality_id = ?", tireID, middleware.MunicipalityID(c)).
			First(&tire).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Шина не найдена"})
			return
		}

		err := db.Model(&tire).Updates(map[string]interface{}{
			"km_since_retread": 0,
			"retread_count":    tire.RetreadCount + 1,
		}).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при восстановлении шины"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"retread_count": tire.RetreadCount + 1})
	}
}
