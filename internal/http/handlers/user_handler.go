package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"coachgate/internal/audit"
	"coachgate/internal/models"
)

// ListUsers returns all users. Admin only.
func ListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []models.User
		if err := db.Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// CreateUser inserts a new user. Admin only.
func CreateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Email    string `json:"email" binding:"required,email"`
			Name     string `json:"name" binding:"required"`
			Password string `json:"password" binding:"required"`
			Role     string `json:"role" binding:"omitempty,oneof=user admin"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in.Email = strings.TrimSpace(strings.ToLower(in.Email))
		in.Name = strings.TrimSpace(in.Name)

		if len(in.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}
		if in.Role == "" {
			in.Role = string(models.RoleUser)
		}

		var existing int64
		if err := db.Model(&models.User{}).
			Where("email = ?", in.Email).
			Count(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if existing > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}

		user := models.User{
			Email:        in.Email,
			Name:         in.Name,
			Role:         models.UserRole(in.Role),
			Status:       models.UserActive,
			PasswordHash: string(hash),
		}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		audit.Record(db, c, audit.Entry{
			Action:       "user.create",
			ResourceType: "user",
			ResourceID:   user.ID,
			Metadata:     map[string]interface{}{"role": user.Role},
		})

		c.JSON(http.StatusCreated, gin.H{"user": user})
	}
}

// SetUserStatus activates or suspends an account. Admin only. A suspended
// user fails the auth middleware on their next request.
func SetUserStatus(db *gorm.DB, status models.UserStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		tx := db.Model(&models.User{}).Where("id = ?", id).Update("status", status)
		if tx.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": tx.Error.Error()})
			return
		}
		if tx.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		audit.Record(db, c, audit.Entry{
			Action:       "user." + string(status),
			ResourceType: "user",
			ResourceID:   id,
		})

		c.JSON(http.StatusOK, gin.H{"message": "user " + string(status)})
	}
}
