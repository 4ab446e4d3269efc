// Package seed bootstraps the first administrator account.
package seed

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/reclaimlabs/recoveryhub/internal/auth/domain"
	"github.com/reclaimlabs/recoveryhub/internal/auth/password"
	roledomain "github.com/reclaimlabs/recoveryhub/internal/role/domain"
	"gorm.io/gorm"
)

// EnsureAdmin creates the bootstrap admin when no admin role exists
// yet. Without at least one admin nobody can grant roles, and the
// last-admin guard would make the lockout permanent.
func EnsureAdmin(db *gorm.DB, genID *snowflake.Node, email, rawPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || rawPassword == "" {
		return nil
	}

	var admins int64
	if err := db.Model(&roledomain.UserRole{}).
		Where("role = ?", roledomain.RoleAdmin).
		Count(&admins).Error; err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}

	var user authdomain.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		hashed, hashErr := password.Hash(rawPassword)
		if hashErr != nil {
			return hashErr
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:                  genID.Generate(),
			Email:               email,
			DisplayName:         "Administrator",
			PasswordHash:        &hashed,
			LastPasswordChanged: &now,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	grant := roledomain.UserRole{
		ID:        genID.Generate(),
		UserID:    user.ID,
		Role:      roledomain.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	return db.Create(&grant).Error
}
