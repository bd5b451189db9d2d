package routes

import (
	"frota-backend/internal/handlers"
	"frota-backend/internal/middleware"
	"frota-backend/internal/services"
	"frota-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

func SetupRoutes(api *gin.RouterGroup, db *gorm.DB, rdb *redis.Client) {
	// Сервисный слой собирается один раз и разделяется между обработчиками
	availability := services.NewAvailabilityService(db)
	notifier := services.NewNotificationService(db)
	cascade := services.NewOdometerCascade(db, notifier)
	optimizer := services.NewRouteOptimizer()
	trips := services.NewTripService(db, availability, cascade, notifier)
	billing := services.NewBillingService(db)
	monitor := services.NewGeofenceMonitor(db, rdb, notifier)

	// Публичные маршруты для аутентификации
	auth := api.Group("/auth")
	{
		auth.POST("/login", handlers.Login(db))
	}

	// Защищенные маршруты (требуют аутентификации)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth())
	{
		staff := protected.Group("")
		staff.Use(middleware.RequireRole("admin", "manager"))
		{
			// Роуты для машин
			staff.POST("/vehicles", handlers.VehicleCreate(db))
			staff.GET("/vehicles", handlers.VehicleList(db))
			staff.GET("/vehicles/:id", handlers.VehicleGetByID(db))
			staff.PUT("/vehicles/:id/status", handlers.VehicleUpdateStatus(db))

			// Роуты для водителей и блокировок недоступности
			staff.POST("/drivers", handlers.DriverCreate(db))
			staff.GET("/drivers", handlers.DriverList(db))
			staff.PUT("/drivers/:id/active", handlers.DriverSetActive(db))
			staff.GET("/drivers/expiring-cnh", handlers.DriverExpiringCNH(db))
			staff.POST("/drivers/:id/blocks", handlers.BlockCreate(db))
			staff.GET("/drivers/:id/blocks", handlers.BlockListByDriver(db))
			staff.PUT("/blocks/:id/cancel", handlers.BlockCancel(db))

			// Роуты для маршрутов и остановок
			staff.POST("/routes", handlers.RouteCreate(db))
			staff.GET("/routes", handlers.RouteList(db))
			staff.PUT("/routes/:id/optimize", handlers.RouteOptimize(db, optimizer))
			staff.POST("/stops/optimize", handlers.StopsOptimize(optimizer))

			// Роуты для назначений на маршрут
			staff.POST("/assignments", handlers.AssignmentCreate(db, availability))
			staff.GET("/assignments", handlers.AssignmentList(db))
			staff.PUT("/assignments/:id/confirm", handlers.AssignmentConfirm(trips))
			staff.PUT("/assignments/:id/cancel", handlers.AssignmentCancel(db))

			// Роуты для поездок
			staff.POST("/trips", handlers.TripCreate(trips))
			staff.PUT("/trips/:id/reschedule", handlers.TripReschedule(trips))
			staff.PUT("/trips/:id/start", handlers.TripStart(trips))
			staff.PUT("/trips/:id/complete", handlers.TripComplete(trips))
			staff.PUT("/trips/:id/cancel", handlers.TripCancel(trips))
			staff.POST("/availability/check", handlers.CheckAvailability(availability))

			// Роуты для контрактов и аренды
			staff.POST("/contracts", handlers.ContractCreate(db))
			staff.GET("/contracts", handlers.ContractList(db))
			staff.POST("/contracts/:id/vehicles", handlers.ContractLinkVehicle(db))
			staff.POST("/rentals", handlers.RentalOpen(db))
			staff.GET("/rentals", handlers.RentalList(db))
			staff.PUT("/rentals/:id/close", handlers.RentalClose(billing))

			// Роуты для обслуживания и шин
			staff.POST("/maintenance/plans", handlers.MaintenancePlanCreate(db))
			staff.GET("/maintenance/orders", handlers.ServiceOrderList(db))
			staff.PUT("/maintenance/orders/:id/status", handlers.ServiceOrderUpdateStatus(db))
			staff.POST("/tires", handlers.TireCreate(db))
			staff.POST("/tires/:id/install", handlers.TireInstall(db))
			staff.PUT("/tires/:id/remove", handlers.TireRemove(db))
			staff.PUT("/tires/:id/retread", handlers.TireRetread(db))

			// Роуты для геозон
			staff.PUT("/drivers/:id/geofence", handlers.GeofenceUpsert(db))
			staff.GET("/drivers/:id/geofence", handlers.GeofenceGet(db))
		}

		// Роуты, доступные и водителям
		protected.GET("/trips", handlers.TripList(db))
		protected.GET("/trips/:id", handlers.TripGetByID(db))
		protected.PUT("/trips/:id/self-complete", handlers.TripSelfComplete(trips))
		protected.POST("/positions", handlers.GeofencePing(monitor))

		// WebSocket подключение для получения обновлений в реальном времени
		protected.GET("/ws", websocket.Handler(monitor))
	}
}
