package handlers

import (
	"net/http"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"
	"frota-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RouteCreate создает маршрут с остановками
func RouteCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name              string `json:"name" binding:"required"`
			Capacity          int    `json:"capacity"`
			DepartureTime     string `json:"departure_time"`
			EstimatedDuration int    `json:"estimated_duration"`
			Stops             []struct {
				Name      string   `json:"name" binding:"required"`
				Latitude  *float64 `json:"latitude"`
				Longitude *float64 `json:"longitude"`
				StopTime  string   `json:"stop_time"`
			} `json:"stops" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if req.DepartureTime == "" {
			req.DepartureTime = "07:00"
		}

		route := models.Route{
			MunicipalityID:    middleware.MunicipalityID(c),
			Name:              req.Name,
			Capacity:          req.Capacity,
			DepartureTime:     req.DepartureTime,
			EstimatedDuration: req.EstimatedDuration,
			Active:            true,
		}
		for i, s := range req.Stops {
			route.Stops = append(route.Stops, models.RouteStop{
				Name:      s.Name,
				OrderNum:  i + 1,
				Latitude:  s.Latitude,
				Longitude: s.Longitude,
				StopTime:  s.StopTime,
			})
		}

		if err := db.Create(&route).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании маршрута"})
			return
		}
		c.JSON(http.StatusCreated, route)
	}
}

// RouteList возвращает маршруты тенанта с остановками
func RouteList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var routes []models.Route
		err := db.Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num")
		}).Where("municipality_id = ?", middleware.MunicipalityID(c)).
			Order("name").
			Find(&routes).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении маршрутов"})
			return
		}
		c.JSON(http.StatusOK, routes)
	}
}

// RouteOptimize упорядочивает остановки маршрута жадным алгоритмом
// ближайшего соседа и сохраняет новый порядок
func RouteOptimize(db *gorm.DB, optimizer *services.RouteOptimizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var route models.Route
		err := db.Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num")
		}).Where("id = ? AND municipality_id = ?", id, middleware.MunicipalityID(c)).
			First(&route).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Маршрут не найден"})
			return
		}
		if len(route.Stops) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "У маршрута нет остановок"})
			return
		}

		result := optimizer.OptimizeStops(route.Stops)

		err = db.Transaction(func(tx *gorm.DB) error {
			for _, s := range result.Stops {
				if err := tx.Model(&models.RouteStop{}).Where("id = ?", s.ID).
					Update("order_num", s.OrderNum).Error; err != nil {
					return err
				}
			}
			if result.DurationMinutes > 0 {
				return tx.Model(&route).Update("estimated_duration", result.DurationMinutes).Error
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при сохранении порядка остановок"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// StopsOptimize упорядочивает произвольный список остановок без сохранения
func StopsOptimize(optimizer *services.RouteOptimizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Stops []models.RouteStop `json:"stops" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		c.JSON(http.StatusOK, optimizer.OptimizeStops(req.Stops))
	}
}
