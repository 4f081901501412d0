package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coachgate/internal/access"
	"coachgate/internal/audit"
	"coachgate/internal/auth"
)

// SubmitAccessRequest creates a pending request for the caller and the
// given protected resource.
func SubmitAccessRequest(db *gorm.DB, ledger access.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ResourceID int64 `json:"resource_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		caller := auth.CallerFrom(c)
		req, err := ledger.Submit(c.Request.Context(), caller, input.ResourceID)
		if err != nil {
			writeAccessError(c, err)
			return
		}

		audit.Record(db, c, audit.Entry{
			Action:       "access_request.submit",
			ResourceType: "resource",
			ResourceID:   input.ResourceID,
			Metadata:     map[string]interface{}{"request_id": req.ID},
		})

		c.JSON(http.StatusCreated, gin.H{"request": req})
	}
}

// AccessStatus returns the caller's latest request for a resource, with
// its display status, or null when the caller never asked.
func AccessStatus(engine access.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID, err := strconv.ParseInt(c.Query("resource_id"), 10, 64)
		if err != nil || resourceID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resource_id is required"})
			return
		}

		caller := auth.CallerFrom(c)
		if !caller.Authenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}

		latest, err := engine.LatestRequest(c.Request.Context(), caller.ID, resourceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if latest == nil {
			c.JSON(http.StatusOK, gin.H{"request": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"request":        latest,
			"display_status": access.DisplayStatus(latest, engine.Time()),
		})
	}
}

// IssueDownload re-evaluates the caller's access and, when permitted,
// returns a short-lived signed URL for the resource's file.
func IssueDownload(db *gorm.DB, issuer access.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ResourceID int64 `json:"resource_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		caller := auth.CallerFrom(c)
		dl, err := issuer.IssueDownload(c.Request.Context(), caller, input.ResourceID)
		if err != nil {
			writeAccessError(c, err)
			return
		}

		audit.Record(db, c, audit.Entry{
			Action:       "download.issue",
			ResourceType: "resource",
			ResourceID:   input.ResourceID,
			Metadata:     map[string]interface{}{"file_name": dl.FileName},
		})

		c.JSON(http.StatusOK, gin.H{
			"url":       dl.URL,
			"file_name": dl.FileName,
		})
	}
}
