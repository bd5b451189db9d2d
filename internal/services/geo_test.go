package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	// Сан-Паулу — Рио-де-Жанейро, около 360 км по прямой
	dist := Haversine(-23.5505, -46.6333, -22.9068, -43.1729)
	assert.InDelta(t, 360.0, dist, 5.0)
}

func TestHaversineZeroDistance(t *testing.T) {
	assert.Zero(t, Haversine(-15.78, -47.93, -15.78, -47.93))
}

func TestHaversineSymmetry(t *testing.T) {
	a := Haversine(-23.5505, -46.6333, -22.9068, -43.1729)
	b := Haversine(-22.9068, -43.1729, -23.5505, -46.6333)
	assert.InDelta(t, a, b, 1e-9)
}
