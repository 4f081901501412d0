package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coachgate/internal/access"
	"coachgate/internal/audit"
	"coachgate/internal/auth"
	"coachgate/internal/models"
)

// ListResources returns the public catalog. Protected resources are listed
// so visitors can ask for access, but their link is withheld until the
// access gate says yes.
func ListResources(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var resources []models.Resource
		if err := db.Order("created_at DESC").Find(&resources).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for i := range resources {
			if resources[i].IsProtected() {
				resources[i].Link = ""
			}
		}
		c.JSON(http.StatusOK, gin.H{"resources": resources})
	}
}

// GetResource returns one resource. The link of a protected resource is
// included only when the caller's current access decision allows it; the
// decision is evaluated fresh on every call.
func GetResource(engine access.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource id"})
			return
		}

		var res models.Resource
		if err := engine.DB.WithContext(c.Request.Context()).First(&res, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		caller := auth.CallerFrom(c)
		state, err := engine.CanAccess(c.Request.Context(), caller, res)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.IsProtected() && !state.Allowed() {
			res.Link = ""
		}

		c.JSON(http.StatusOK, gin.H{
			"resource":     res,
			"access_state": state,
		})
	}
}

// CreateResource inserts a new catalog entry. Admin only.
func CreateResource(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Title        string `json:"title" binding:"required"`
			Description  string `json:"description"`
			Type         string `json:"type" binding:"required,oneof=link file document template tool"`
			Visibility   string `json:"visibility" binding:"required,oneof=public protected"`
			FileLocation string `json:"file_location"`
			FileName     string `json:"file_name"`
			Link         string `json:"link"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res := models.Resource{
			Title:        input.Title,
			Description:  input.Description,
			Type:         models.ResourceType(input.Type),
			Visibility:   models.Visibility(input.Visibility),
			FileLocation: input.FileLocation,
			FileName:     input.FileName,
			Link:         input.Link,
		}

		// A protected file must have a stored object to gate.
		if res.Type == models.ResourceFile && res.IsProtected() && !res.HasFile() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "protected file resources need a file_location"})
			return
		}

		if err := db.Create(&res).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		audit.Record(db, c, audit.Entry{
			Action:       "resource.create",
			ResourceType: "resource",
			ResourceID:   res.ID,
			Metadata:     map[string]interface{}{"title": res.Title, "visibility": res.Visibility},
		})

		c.JSON(http.StatusCreated, gin.H{"resource": res})
	}
}

// UpdateResource edits catalog fields, including the visibility flip
// between public and protected. Admin only.
func UpdateResource(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource id"})
			return
		}

		var input struct {
			Title        *string `json:"title"`
			Description  *string `json:"description"`
			Visibility   *string `json:"visibility" binding:"omitempty,oneof=public protected"`
			FileLocation *string `json:"file_location"`
			FileName     *string `json:"file_name"`
			Link         *string `json:"link"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var res models.Resource
		if err := db.First(&res, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}

		updates := map[string]interface{}{}
		if input.Title != nil {
			updates["title"] = *input.Title
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.Visibility != nil {
			updates["visibility"] = *input.Visibility
		}
		if input.FileLocation != nil {
			updates["file_location"] = *input.FileLocation
		}
		if input.FileName != nil {
			updates["file_name"] = *input.FileName
		}
		if input.Link != nil {
			updates["link"] = *input.Link
		}
		if len(updates) == 0 {
			c.JSON(http.StatusOK, gin.H{"resource": res})
			return
		}

		// The create-time rule holds for the merged result too: a file
		// resource cannot be flipped to protected, or have its stored
		// object cleared, without a file_location to gate.
		merged := res
		if input.Visibility != nil {
			merged.Visibility = models.Visibility(*input.Visibility)
		}
		if input.FileLocation != nil {
			merged.FileLocation = *input.FileLocation
		}
		if merged.Type == models.ResourceFile && merged.IsProtected() && !merged.HasFile() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "protected file resources need a file_location"})
			return
		}

		if err := db.Model(&res).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		audit.Record(db, c, audit.Entry{
			Action:       "resource.update",
			ResourceType: "resource",
			ResourceID:   res.ID,
			Metadata:     map[string]interface{}{"fields": len(updates)},
		})

		c.JSON(http.StatusOK, gin.H{"resource": res})
	}
}

// DeleteResource removes a catalog entry. The request ledger keeps its
// rows; they stay as audit trail even when the resource is gone.
func DeleteResource(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource id"})
			return
		}

		tx := db.Delete(&models.Resource{}, id)
		if tx.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": tx.Error.Error()})
			return
		}
		if tx.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}

		audit.Record(db, c, audit.Entry{
			Action:       "resource.delete",
			ResourceType: "resource",
			ResourceID:   id,
		})

		c.JSON(http.StatusOK, gin.H{"message": "resource deleted"})
	}
}
