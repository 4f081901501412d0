package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coachgate/internal/models"
	"coachgate/internal/storage"
)

// ServeDownload redeems a signed download token and streams the object it
// grants. The token itself is the authorization; no session is required.
func ServeDownload(store *storage.Local) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")

		path, err := store.Redeem(token)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired download link"})
			return
		}

		f, err := store.Open(path)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}

		c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
		http.ServeContent(c.Writer, c.Request, filepath.Base(path), info.ModTime(), f)
	}
}

// ServePublicFile streams the stored object of a public resource. Public
// resources never go through the request ledger or signed URLs; protected
// ones must, so they are refused here.
func ServePublicFile(db *gorm.DB, store *storage.Local) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource id"})
			return
		}

		var res models.Resource
		if err := db.First(&res, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}
		if res.IsProtected() {
			c.JSON(http.StatusForbidden, gin.H{"error": "protected resource, request access first"})
			return
		}
		if !res.HasFile() {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource has no file"})
			return
		}

		f, err := store.Open(res.FileLocation)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}

		name := res.FileName
		if name == "" {
			name = filepath.Base(res.FileLocation)
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
	}
}
