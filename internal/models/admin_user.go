package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:320;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:'staff'" json:"role"`
	DisplayName  string    `gorm:"size:255" json:"displayName"`
	CreatedAt    time.Time `json:"createdAt"`
}

const (
	RoleSuperAdmin = "superadmin"
	RoleStaff      = "staff"
)

func (a *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func ValidRole(role string) bool {
	return role == RoleSuperAdmin || role == RoleStaff
}
