package services

import (
	"math"
	"os"
	"strconv"

	"frota-backend/internal/models"
)

// defaultAvgSpeedKmh — средняя скорость для оценки времени в пути.
const defaultAvgSpeedKmh = 35.0

// OptimizedStops — результат оптимизации: порядок остановок, геометрия,
// суммарное расстояние и оценка длительности.
type OptimizedStops struct {
	Stops           []models.RouteStop `json:"stops"`
	Geometry        [][2]float64       `json:"geometry"` // Пары [lat, lng] в порядке объезда
	DistanceKm      float64            `json:"distance_km"`
	DurationMinutes int                `json:"duration_minutes"`
}

type RouteOptimizer struct {
	avgSpeedKmh float64
}

func NewRouteOptimizer() *RouteOptimizer {
	speed := defaultAvgSpeedKmh
	if val, err := strconv.ParseFloat(os.Getenv("ROUTE_AVG_SPEED_KMH"), 64); err == nil && val > 0 {
		speed = val
	}
	return &RouteOptimizer{avgSpeedKmh: speed}
}

// OptimizeStops упорядочивает остановки жадным алгоритмом ближайшего соседа.
// Это эвристика, а не точное решение задачи коммивояжера: первая остановка
// фиксируется, далее каждый раз выбирается ближайшая по гаверсинусу.
// Списки из одной или двух остановок возвращаются как есть.
// Остановки без координат добавляются в конец в исходном порядке и
// не участвуют в геометрии и расстоянии.
func (ro *RouteOptimizer) OptimizeStops(stops []models.RouteStop) *OptimizedStops {
	// Отделяем остановки с координатами от остановок без них
	var located []models.RouteStop
	var unlocated []models.RouteStop
	for _, s := range stops {
		if s.HasCoordinates() {
			located = append(located, s)
		} else {
			unlocated = append(unlocated, s)
		}
	}

	var ordered []models.RouteStop
	if len(located) <= 2 {
		// Для одной-двух точек порядок не имеет смысла
		ordered = located
	} else {
		ordered = ro.nearestNeighbor(located)
	}

	totalDistance := 0.0
	geometry := make([][2]float64, 0, len(ordered))
	for i, s := range ordered {
		geometry = append(geometry, [2]float64{*s.Latitude, *s.Longitude})
		if i > 0 {
			prev := ordered[i-1]
			totalDistance += Haversine(*prev.Latitude, *prev.Longitude, *s.Latitude, *s.Longitude)
		}
	}

	result := append(ordered, unlocated...)
	for i := range result {
		result[i].OrderNum = i + 1
	}

	return &OptimizedStops{
		Stops:           result,
		Geometry:        geometry,
		DistanceKm:      totalDistance,
		DurationMinutes: ro.estimateDuration(totalDistance),
	}
}

// nearestNeighbor строит жадный обход: первая точка фиксирована,
// дальше всегда берется ближайшая непосещенная.
func (ro *RouteOptimizer) nearestNeighbor(points []models.RouteStop) []models.RouteStop {
	n := len(points)
	visited := make([]bool, n)
	visited[0] = true
	path := []int{0}
	current := 0

	for len(path) < n {
		minDist := math.MaxFloat64
		next := -1
		for i := 1; i < n; i++ {
			if visited[i] {
				continue
			}
			dist := Haversine(
				*points[current].Latitude, *points[current].Longitude,
				*points[i].Latitude, *points[i].Longitude,
			)
			// При равных расстояниях остается меньший индекс — для детерминизма
			if dist < minDist {
				minDist = dist
				next = i
			}
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}

	ordered := make([]models.RouteStop, n)
	for i, idx := range path {
		ordered[i] = points[idx]
	}
	return ordered
}

// estimateDuration переводит расстояние в минуты по средней скорости
// с округлением до целых минут.
func (ro *RouteOptimizer) estimateDuration(distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}
	return int(math.Round(distanceKm / ro.avgSpeedKmh * 60))
}
