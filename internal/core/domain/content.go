package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Job is a careers-page posting.
type Job struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	Title            string    `json:"title" gorm:"size:255;not null"`
	Department       string    `json:"department" gorm:"size:255;not null"`
	Location         string    `json:"location" gorm:"size:255;not null"`
	Type             string    `json:"type" gorm:"size:50;not null"`
	Description      string    `json:"description" gorm:"type:text;not null"`
	Responsibilities string    `json:"responsibilities" gorm:"type:text;not null"`
	Requirements     string    `json:"requirements" gorm:"type:text;not null"`
	Benefits         *string   `json:"benefits,omitempty" gorm:"type:text"`
	Salary           *string   `json:"salary,omitempty" gorm:"size:255"`
	Active           bool      `json:"active" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }

func (j Job) IsActive() bool { return j.Active }

func (j *Job) BeforeCreate(*gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// SlideShow is one homepage carousel slide.
type SlideShow struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Title        string    `json:"title" gorm:"size:255;not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	ImageURL     string    `json:"image_url" gorm:"column:image_url;size:1024;not null"`
	IconType     string    `json:"icon_type" gorm:"size:50;not null"`
	DisplayOrder int       `json:"display_order" gorm:"not null;default:0"`
	Active       bool      `json:"active" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (SlideShow) TableName() string { return "slide_shows" }

func (s SlideShow) IsActive() bool { return s.Active }

func (s *SlideShow) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
