package handlers

import (
	"net/http"
	"strconv"

	"frota-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// respondServiceError переводит доменные ошибки в HTTP-ответы:
// ValidationError -> 400, ConflictError -> 409 с окном конфликта,
// StateError -> 422, прочее -> 500.
func respondServiceError(c *gin.Context, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Message})
	case *services.ConflictError:
		c.JSON(http.StatusConflict, gin.H{
			"error": e.Message,
			"conflict": gin.H{
				"kind":  e.Kind,
				"start": e.Start,
				"end":   e.End,
			},
		})
	case *services.StateError:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": e.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
	}
}

// paramID читает числовой параметр пути.
func paramID(c *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный идентификатор"})
		return 0, false
	}
	return uint(val), true
}
