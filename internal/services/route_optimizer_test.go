package services

import (
	"math"
	"testing"

	"frota-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptimizer() *RouteOptimizer {
	return &RouteOptimizer{avgSpeedKmh: defaultAvgSpeedKmh}
}

func stop(name string, lat, lng float64) models.RouteStop {
	return models.RouteStop{Name: name, Latitude: &lat, Longitude: &lng}
}

func TestOptimizeStopsShortListsKeptAsIs(t *testing.T) {
	ro := testOptimizer()

	one := ro.OptimizeStops([]models.RouteStop{stop("A", 0, 0)})
	require.Len(t, one.Stops, 1)
	assert.Equal(t, "A", one.Stops[0].Name)
	assert.Equal(t, 1, one.Stops[0].OrderNum)
	assert.Zero(t, one.DistanceKm)

	// Две остановки возвращаются в исходном порядке, даже "невыгодном"
	two := ro.OptimizeStops([]models.RouteStop{stop("B", 0, 2), stop("A", 0, 0)})
	require.Len(t, two.Stops, 2)
	assert.Equal(t, "B", two.Stops[0].Name)
	assert.Equal(t, "A", two.Stops[1].Name)
}

func TestOptimizeStopsNearestNeighbor(t *testing.T) {
	ro := testOptimizer()

	// Жадный обход от первой точки: (0,0) -> (0,1) -> (0,2),
	// хотя во входе вторая точка дальше третьей
	result := ro.OptimizeStops([]models.RouteStop{
		stop("A", 0, 0),
		stop("C", 0, 2),
		stop("B", 0, 1),
	})

	require.Len(t, result.Stops, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{
		result.Stops[0].Name, result.Stops[1].Name, result.Stops[2].Name,
	})
	assert.Equal(t, []int{1, 2, 3}, []int{
		result.Stops[0].OrderNum, result.Stops[1].OrderNum, result.Stops[2].OrderNum,
	})

	// Обход по порядку короче обхода в исходном порядке
	direct := Haversine(0, 0, 0, 1) + Haversine(0, 1, 0, 2)
	assert.InDelta(t, direct, result.DistanceKm, 1e-9)
	require.Len(t, result.Geometry, 3)
	assert.Equal(t, [2]float64{0, 1}, result.Geometry[1])
}

func TestOptimizeStopsUnlocatedAppended(t *testing.T) {
	ro := testOptimizer()

	result := ro.OptimizeStops([]models.RouteStop{
		stop("A", 0, 0),
		{Name: "X"}, // Без координат
		stop("C", 0, 2),
		stop("B", 0, 1),
	})

	require.Len(t, result.Stops, 4)
	assert.Equal(t, "X", result.Stops[3].Name)
	assert.Equal(t, 4, result.Stops[3].OrderNum)
	// Остановка без координат не попадает в геометрию и расстояние
	assert.Len(t, result.Geometry, 3)
}

func TestEstimateDuration(t *testing.T) {
	ro := &RouteOptimizer{avgSpeedKmh: 40}

	assert.Equal(t, 0, ro.estimateDuration(0))
	assert.Equal(t, 90, ro.estimateDuration(60)) // 60 км при 40 км/ч
	assert.Equal(t, int(math.Round(10.0/40*60)), ro.estimateDuration(10))
}
