package audit

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coachgate/internal/auth"
	"coachgate/internal/models"
)

// Entry describes one auditable action.
type Entry struct {
	Action       string
	ResourceType string
	ResourceID   int64
	Metadata     map[string]interface{}
}

// Record writes one audit row, attributing it to the request's caller.
// Failures are logged and swallowed: a missed audit row must not fail the
// operation it describes.
func Record(db *gorm.DB, c *gin.Context, e Entry) {
	var initiatorID int64
	var initiatorName string
	if claimsI, ok := c.Get("claims"); ok {
		if cl, ok := claimsI.(*auth.Claims); ok {
			initiatorID = cl.UserID
			var u models.User
			if err := db.First(&u, cl.UserID).Error; err == nil {
				initiatorName = u.Name
			}
		}
	}

	var meta datatypes.JSON
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			meta = datatypes.JSON(b)
		}
	}

	row := models.AuditLog{
		UserID:        initiatorID,
		Action:        e.Action,
		ResourceType:  e.ResourceType,
		ResourceID:    e.ResourceID,
		Metadata:      meta,
		IP:            c.ClientIP(),
		UserAgent:     c.GetHeader("User-Agent"),
		InitiatorName: initiatorName,
		CreatedAt:     time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		zap.L().Warn("audit write failed",
			zap.String("action", e.Action),
			zap.Error(err))
	}
}
