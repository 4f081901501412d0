package seed

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"coachgate/internal/models"
)

// FirstSetup idempotently creates the first admin account and a couple of
// catalog entries so a fresh install is usable immediately.
func FirstSetup(db *gorm.DB) error {
	// -------------------------
	// 1) Ensure admin user
	// -------------------------
	const adminEmail = "admin@example.com"
	const adminPass = "admin123" // change after first login

	passHash, _ := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)

	admin := models.User{
		Email:        adminEmail,
		Name:         "Site Admin",
		Role:         models.RoleAdmin,
		Status:       models.UserActive,
		PasswordHash: string(passHash),
	}
	if err := db.Where("email = ?", adminEmail).FirstOrCreate(&admin).Error; err != nil {
		return err
	}

	// -------------------------
	// 2) Ensure sample resources
	// -------------------------
	resources := []models.Resource{
		{
			Title:      "Coaching Conversation Starter Kit",
			Type:       models.ResourceDocument,
			Visibility: models.VisibilityPublic,
			Link:       "https://example.com/starter-kit",
		},
		{
			Title:        "Leadership Development Workbook",
			Type:         models.ResourceFile,
			Visibility:   models.VisibilityProtected,
			FileLocation: "workbooks/leadership-development.pdf",
			FileName:     "Leadership Development Workbook.pdf",
		},
	}
	for _, res := range resources {
		tmp := res
		if err := db.Where("title = ?", tmp.Title).FirstOrCreate(&tmp).Error; err != nil {
			return err
		}
	}

	return nil
}
