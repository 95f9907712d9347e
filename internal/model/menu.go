package model

import (
	"time"

	"gorm.io/gorm"
)

// Category represents a menu category of a site
type Category struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	SiteID       uint           `json:"site_id" gorm:"index;not null;comment:'Site this category belongs to'"`
	Name         string         `json:"name" gorm:"type:varchar(100);not null"`
	Description  string         `json:"description" gorm:"type:text"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	DisplayOrder int            `json:"order" gorm:"default:0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Product represents a menu item
type Product struct {
	ID                 uint           `json:"id" gorm:"primarykey"`
	SiteID             uint           `json:"site_id" gorm:"index;not null"`
	CategoryID         uint           `json:"category" gorm:"index;not null"`
	Title              string         `json:"title" gorm:"type:varchar(255);not null"`
	Description        string         `json:"description" gorm:"type:text"`
	Price              int64          `json:"price" gorm:"not null;comment:'Smallest currency unit'"`
	DiscountPercentage int            `json:"discount_percentage" gorm:"default:0"`
	IsAvailable        bool           `json:"is_available" gorm:"default:true"`
	IsPopular          bool           `json:"is_popular" gorm:"default:false"`
	Badge              string         `json:"badge" gorm:"type:varchar(50)"`
	Image              string         `json:"image" gorm:"type:varchar(500)"`
	DisplayOrder       int            `json:"order" gorm:"default:0"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Tag is a site-wide product label
type Tag struct {
	ID     uint   `json:"id" gorm:"primarykey"`
	SiteID uint   `json:"site_id" gorm:"index;not null"`
	Name   string `json:"name" gorm:"type:varchar(50);not null"`
	Color  string `json:"color" gorm:"type:varchar(20)"`
}

// ProductTag links products to tags in display order
type ProductTag struct {
	ProductID uint `gorm:"primaryKey"`
	TagID     uint `gorm:"primaryKey"`
	Position  int  `gorm:"default:0"`
}

// All lists every model for migrations
func All() []interface{} {
	return []interface{}{
		&Site{}, &SitePlugin{}, &Category{}, &Product{}, &Tag{}, &ProductTag{}, &Order{},
	}
}
