package services

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"frota-backend/internal/middleware"
	"frota-backend/internal/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	defaultDeviationThresholdKm = 2.0
	defaultDeviationCooldown    = 15 * time.Minute
)

// Position — координата GPS-пинга.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AlertState — результат обработки пинга.
type AlertState struct {
	Mode       string  `json:"mode"`        // geofence, route_deviation или none
	Alerted    bool    `json:"alerted"`     // Тревога активна после этого пинга
	Raised     bool    `json:"raised"`      // Уведомление отправлено этим пингом
	Cleared    bool    `json:"cleared"`     // Тревога снята этим пингом
	DistanceKm float64 `json:"distance_km"` // Расстояние до центра зоны или ближайшей остановки
}

// cooldownStore подавляет повторные уведомления одного вида в окне кулдауна.
// Once возвращает true, если ключ свободен и захвачен на ttl.
type cooldownStore interface {
	Once(ctx context.Context, key string, ttl time.Duration) bool
}

// redisCooldown — кулдаун на Redis через SET NX EX.
type redisCooldown struct {
	client *redis.Client
}

func (r *redisCooldown) Once(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := r.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		// При недоступности Redis уведомление важнее подавления
		return true
	}
	return ok
}

// memoryCooldown — резервный кулдаун в памяти процесса.
type memoryCooldown struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newMemoryCooldown() *memoryCooldown {
	return &memoryCooldown{seen: make(map[string]time.Time)}
}

func (m *memoryCooldown) Once(_ context.Context, key string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if until, ok := m.seen[key]; ok && now.Before(until) {
		return false
	}
	m.seen[key] = now.Add(ttl)
	return true
}

// GeofenceMonitor обрабатывает GPS-пинги водителей в двух взаимоисключающих
// режимах: фиксированная геозона водителя с гистерезисом либо отклонение
// от остановок маршрута с кулдауном уведомлений.
type GeofenceMonitor struct {
	db          *gorm.DB
	notifier    *NotificationService
	cooldown    cooldownStore
	thresholdKm float64
	cooldownTTL time.Duration
}

func NewGeofenceMonitor(db *gorm.DB, rdb *redis.Client, notifier *NotificationService) *GeofenceMonitor {
	threshold := defaultDeviationThresholdKm
	if val, err := strconv.ParseFloat(os.Getenv("DEVIATION_THRESHOLD_KM"), 64); err == nil && val > 0 {
		threshold = val
	}
	ttl := defaultDeviationCooldown
	if val, err := strconv.Atoi(os.Getenv("DEVIATION_COOLDOWN_MINUTES")); err == nil && val > 0 {
		ttl = time.Duration(val) * time.Minute
	}

	var store cooldownStore
	if rdb != nil {
		store = &redisCooldown{client: rdb}
	} else {
		store = newMemoryCooldown()
	}

	return &GeofenceMonitor{
		db:          db,
		notifier:    notifier,
		cooldown:    store,
		thresholdKm: threshold,
		cooldownTTL: ttl,
	}
}

// Evaluate обрабатывает пинг водителя. Если у водителя есть активная
// геозона — режим гистерезиса; иначе проверяется отклонение от маршрута
// текущей поездки.
func (m *GeofenceMonitor) Evaluate(ctx context.Context, driverID uint, pos Position, ts time.Time) (*AlertState, error) {
	var fence models.Geofence
	err := m.db.Where("driver_id = ?", driverID).First(&fence).Error
	switch {
	case err == nil && fence.Active:
		return m.evaluateFence(&fence, pos, ts)
	case err != nil && err != gorm.ErrRecordNotFound:
		return nil, err
	}
	// Неактивная геозона никогда не поднимает тревогу;
	// переходим к проверке отклонения от маршрута
	return m.evaluateRouteDeviation(ctx, driverID, pos)
}

// evaluateFence — режим фиксированной геозоны с гистерезисом: уведомление
// уходит только при пересечении границы, а не на каждом пинге за ней.
func (m *GeofenceMonitor) evaluateFence(fence *models.Geofence, pos Position, ts time.Time) (*AlertState, error) {
	// Флаг тревоги меняется атомарно относительно отправки уведомления
	mu := lockResource("geofence", fence.DriverID)
	defer mu.Unlock()

	// Строка перечитывается под мьютексом: параллельный пинг мог успеть
	// поменять флаг тревоги между чтением в Evaluate и захватом мьютекса
	if err := m.db.First(fence, fence.ID).Error; err != nil {
		return nil, err
	}
	if !fence.Active {
		return &AlertState{Mode: "none"}, nil
	}

	dist := Haversine(fence.CenterLat, fence.CenterLng, pos.Latitude, pos.Longitude)
	outside := dist > fence.RadiusKm

	state := &AlertState{Mode: "geofence", DistanceKm: dist, Alerted: fence.AlertActive}

	if outside && !fence.AlertActive {
		fence.AlertActive = true
		fence.LastAlertedAt = &ts
		if err := m.db.Model(fence).Updates(map[string]interface{}{
			"alert_active":    true,
			"last_alerted_at": ts,
		}).Error; err != nil {
			return nil, err
		}
		state.Alerted = true
		state.Raised = true
		middleware.GeofenceAlertsTotal.WithLabelValues("geofence", "raised").Inc()
		if m.notifier != nil {
			m.notifier.Notify(fence.MunicipalityID, nil, &fence.DriverID, "geofence_exit",
				"Выход из геозоны",
				fmt.Sprintf("Водитель #%d вышел из геозоны: %.2f км от центра при радиусе %.2f км",
					fence.DriverID, dist, fence.RadiusKm))
		}
	} else if !outside && fence.AlertActive {
		fence.AlertActive = false
		fence.LastClearedAt = &ts
		if err := m.db.Model(fence).Updates(map[string]interface{}{
			"alert_active":    false,
			"last_cleared_at": ts,
		}).Error; err != nil {
			return nil, err
		}
		state.Alerted = false
		state.Cleared = true
		middleware.GeofenceAlertsTotal.WithLabelValues("geofence", "cleared").Inc()
		if m.notifier != nil {
			m.notifier.Notify(fence.MunicipalityID, nil, &fence.DriverID, "geofence_return",
				"Возврат в геозону",
				fmt.Sprintf("Водитель #%d вернулся в геозону", fence.DriverID))
		}
	}
	// Повторные пинги по ту же сторону границы уведомлений не порождают

	return state, nil
}

// evaluateRouteDeviation — режим отклонения от маршрута: без состояния,
// но с кулдауном, чтобы не устраивать шторм уведомлений.
func (m *GeofenceMonitor) evaluateRouteDeviation(ctx context.Context, driverID uint, pos Position) (*AlertState, error) {
	var trip models.Trip
	err := m.db.Where("driver_id = ? AND status = ? AND route_id IS NOT NULL",
		driverID, models.TripStatusInProgress).
		Order("departure_time DESC").
		First(&trip).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &AlertState{Mode: "none"}, nil
		}
		return nil, err
	}

	var stops []models.RouteStop
	if err := m.db.Where("route_id = ?", *trip.RouteID).Find(&stops).Error; err != nil {
		return nil, err
	}

	minDist := math.MaxFloat64
	for _, stop := range stops {
		if !stop.HasCoordinates() {
			continue
		}
		if d := Haversine(*stop.Latitude, *stop.Longitude, pos.Latitude, pos.Longitude); d < minDist {
			minDist = d
		}
	}
	if minDist == math.MaxFloat64 {
		// На маршруте нет остановок с координатами — проверять нечего
		return &AlertState{Mode: "none"}, nil
	}

	state := &AlertState{Mode: "route_deviation", DistanceKm: minDist}
	if minDist <= m.thresholdKm {
		return state, nil
	}

	state.Alerted = true
	key := fmt.Sprintf("deviation:%d:%d", trip.ID, driverID)
	if !m.cooldown.Once(ctx, key, m.cooldownTTL) {
		// Недавно уже поднимали тревогу по этой поездке — подавляем
		return state, nil
	}

	state.Raised = true
	middleware.GeofenceAlertsTotal.WithLabelValues("route_deviation", "raised").Inc()
	if m.notifier != nil {
		m.notifier.Notify(trip.MunicipalityID, nil, &driverID, "route_deviation",
			"Отклонение от маршрута",
			fmt.Sprintf("Поездка #%d: %.2f км до ближайшей остановки при пороге %.2f км",
				trip.ID, minDist, m.thresholdKm))
	}
	return state, nil
}
