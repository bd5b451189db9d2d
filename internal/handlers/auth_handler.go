package handlers

import (
	"net/http"

	"frota-backend/internal/models"
	"frota-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Login проверяет учетные данные и выдает JWT с контекстом тенанта.
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
			return
		}

		var driverID uint
		if user.DriverID != nil {
			driverID = *user.DriverID
		}

		token, err := utils.GenerateJWT(user.ID, user.MunicipalityID, string(user.Role), driverID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании токена"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": models.UserResponse{
				ID:             user.ID,
				MunicipalityID: user.MunicipalityID,
				FirstName:      user.FirstName,
				LastName:       user.LastName,
				Email:          user.Email,
				Role:           user.Role,
				DriverID:       user.DriverID,
				CreatedAt:      user.CreatedAt,
			},
		})
	}
}
