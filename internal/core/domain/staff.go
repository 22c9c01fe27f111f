package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffMember is a back-office operator.
type StaffMember struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;size:255;not null"`
	Role         string    `json:"role" gorm:"size:50;not null;default:editor"`
	Active       bool      `json:"active" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (StaffMember) TableName() string { return "staff_members" }

// BeforeCreate assigns a UUID when none is set.
func (s *StaffMember) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
