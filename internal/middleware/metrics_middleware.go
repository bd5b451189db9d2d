package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal - общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Общее количество HTTP запросов",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration - длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Длительность HTTP запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// RequestsInFlight - количество запросов в обработке
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Текущее количество запросов в обработке",
		},
	)

	// TripsCreatedTotal - количество созданных поездок
	TripsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleet_trips_created_total",
			Help: "Общее количество созданных поездок",
		},
	)

	// SchedulingConflictsTotal - отклоненные по конфликту запросы по видам
	SchedulingConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_scheduling_conflicts_total",
			Help: "Количество конфликтов расписания по видам",
		},
		[]string{"kind"},
	)

	// GeofenceAlertsTotal - события геозон по режиму и типу события
	GeofenceAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_geofence_alerts_total",
			Help: "Количество событий геозон",
		},
		[]string{"mode", "event"},
	)

	// ServiceOrdersOpenedTotal - заявки на обслуживание, открытые каскадом
	ServiceOrdersOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_service_orders_opened_total",
			Help: "Количество открытых заявок на обслуживание по типам",
		},
		[]string{"type"},
	)
)

// PrometheusMiddleware собирает метрики для HTTP запросов
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Увеличиваем счетчик запросов в обработке
		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()

		// Фиксируем время начала запроса
		start := time.Now()

		// Обрабатываем запрос
		c.Next()

		// Вычисляем длительность запроса
		duration := time.Since(start).Seconds()

		// Получаем статус код и эндпоинт
		status := strconv.Itoa(c.Writer.Status())
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		// Увеличиваем счетчик запросов
		RequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()

		// Добавляем длительность запроса
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}
