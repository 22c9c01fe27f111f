package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PlacementMenu   = "menu"
	PlacementFooter = "footer"
)

// Page is a CMS page. ParentID forms a hierarchy used by the site menu.
type Page struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Slug            string         `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Title           string         `json:"title" gorm:"size:255;not null"`
	Content         datatypes.JSON `json:"content,omitempty"`
	BuilderContent  *string        `json:"builder_content,omitempty" gorm:"column:builder_content;type:text"`
	ShowInMenu      bool           `json:"show_in_menu" gorm:"not null;default:false"`
	ShowInFooter    bool           `json:"show_in_footer" gorm:"not null;default:false"`
	MenuOrder       int            `json:"menu_order" gorm:"not null;default:0"`
	ParentID        *uint          `json:"parent_id,omitempty" gorm:"index"`
	MetaTitle       *string        `json:"meta_title,omitempty" gorm:"size:255"`
	MetaDescription *string        `json:"meta_description,omitempty" gorm:"type:text"`
	MetaKeywords    *string        `json:"meta_keywords,omitempty" gorm:"size:500"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (Page) TableName() string { return "pages" }

// MenuItem is a page as it appears in the menu or footer tree.
type MenuItem struct {
	ID       uint        `json:"id"`
	Slug     string      `json:"slug"`
	Title    string      `json:"title"`
	Order    int         `json:"order"`
	Children []*MenuItem `json:"children,omitempty"`
}
