package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coachgate/internal/access"
	"coachgate/internal/audit"
	"coachgate/internal/models"
)

// ListAccessRequests returns all requests newest first, joined with user
// and resource display data, optionally filtered by resource.
func ListAccessRequests(ledger access.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter access.ListFilter
		if raw := c.Query("resource_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource_id"})
				return
			}
			filter.ResourceID = id
		}

		entries, err := ledger.ListRequests(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"requests": entries})
	}
}

// DecideAccessRequest applies an admin's approve/deny verdict to a
// pending request. Re-deciding a decided request returns 409.
func DecideAccessRequest(db *gorm.DB, ledger access.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || requestID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
			return
		}

		var input struct {
			Decision       string `json:"decision" binding:"required,oneof=approved denied"`
			ExpirationDays int    `json:"expiration_days" binding:"omitempty,min=1,max=365"`
			Notes          string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		req, err := ledger.Decide(c.Request.Context(), requestID, access.Decision{
			Verdict:        models.RequestStatus(input.Decision),
			ExpirationDays: input.ExpirationDays,
			Notes:          input.Notes,
		})
		if err != nil {
			writeAccessError(c, err)
			return
		}

		audit.Record(db, c, audit.Entry{
			Action:       "access_request." + input.Decision,
			ResourceType: "access_request",
			ResourceID:   req.ID,
			Metadata: map[string]interface{}{
				"resource_id":     req.ResourceID,
				"user_id":         req.UserID,
				"expiration_days": input.ExpirationDays,
			},
		})

		c.JSON(http.StatusOK, gin.H{"request": req})
	}
}
