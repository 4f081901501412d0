package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coachgate/internal/access"
	"coachgate/internal/auth"
	"coachgate/internal/config"
	"coachgate/internal/http/handlers"
	"coachgate/internal/models"
	"coachgate/internal/storage"
)

func NewRouter(db *gorm.DB, cfg config.Config, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(logger), gin.Recovery())

	store := &storage.Local{
		Root:    cfg.StorageDir,
		BaseURL: cfg.BaseURL,
		Secret:  []byte(cfg.DownloadSecret),
	}
	engine := access.Engine{DB: db, Now: time.Now}
	ledger := access.Ledger{DB: db, Now: time.Now}
	issuer := access.Issuer{Engine: engine, Signer: store}

	authMW := auth.JWT(db, cfg.JWTSecret)

	// Public routes
	r.POST("/api/v1/auth/login", handlers.LoginHandler(db, cfg.JWTSecret))
	r.GET("/api/v1/auth/logout", handlers.LogoutHandler())
	r.GET("/api/v1/resources", handlers.ListResources(db))
	r.GET("/api/v1/resources/:id", auth.OptionalJWT(db, cfg.JWTSecret), handlers.GetResource(engine))
	r.GET("/api/v1/resources/:id/file", handlers.ServePublicFile(db, store))

	// Signed downloads: the token is the authorization, no session needed.
	r.GET("/downloads/:token", handlers.ServeDownload(store))

	// Protected API routes
	api := r.Group("/api/v1", authMW)
	{
		api.GET("/me", handlers.MeHandler(db))

		api.POST("/access/requests", handlers.SubmitAccessRequest(db, ledger))
		api.GET("/access/status", handlers.AccessStatus(engine))
		api.POST("/access/download", handlers.IssueDownload(db, issuer))
	}

	// Admin routes
	admin := r.Group("/api/v1/admin", authMW, requireAdmin())
	{
		admin.GET("/requests", handlers.ListAccessRequests(ledger))
		admin.POST("/requests/:id/decision", handlers.DecideAccessRequest(db, ledger))

		admin.GET("/users", handlers.ListUsers(db))
		admin.POST("/users", handlers.CreateUser(db))
		admin.POST("/users/:id/deactivate", handlers.SetUserStatus(db, models.UserSuspended))
		admin.POST("/users/:id/activate", handlers.SetUserStatus(db, models.UserActive))

		admin.POST("/resources", handlers.CreateResource(db))
		admin.PUT("/resources/:id", handlers.UpdateResource(db))
		admin.DELETE("/resources/:id", handlers.DeleteResource(db))

		admin.GET("/audit", handlers.ListAudit(db))
	}

	return r
}

// requireAdmin gates a route group on the admin role. It runs after the
// JWT middleware, which refreshed the role from the user row.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := auth.CallerFrom(c)
		if !caller.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
