package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Site is a tenant website
type Site struct {
	ID                 uint              `json:"id" gorm:"primarykey"`
	Slug               string            `json:"slug" gorm:"type:varchar(63);uniqueIndex;not null"`
	Name               string            `json:"name" gorm:"type:varchar(255);not null"`
	Category           string            `json:"category" gorm:"type:varchar(50);not null;comment:'Business category slug'"`
	ThemeID            string            `json:"theme_id" gorm:"type:varchar(50);not null;default:'minimal-cafe'"`
	Settings           datatypes.JSONMap `json:"settings" gorm:"type:jsonb"`
	OwnerID            uint              `json:"owner_id" gorm:"index"`
	TrialEndsAt        *time.Time        `json:"trial_ends_at"`
	SubscriptionEndsAt *time.Time        `json:"subscription_ends_at"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	DeletedAt          gorm.DeletedAt    `json:"deleted_at,omitempty" gorm:"index"`
}

// SitePlugin is the stored toggle of one plugin for one site
type SitePlugin struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	SiteID    uint      `json:"site_id" gorm:"uniqueIndex:idx_site_plugin;not null"`
	PluginKey string    `json:"plugin_key" gorm:"type:varchar(50);uniqueIndex:idx_site_plugin;not null"`
	IsActive  bool      `json:"is_active" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Order is a submitted storefront checkout
type Order struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	SiteID    uint           `json:"site_id" gorm:"index;not null"`
	Items     datatypes.JSON `json:"items" gorm:"type:jsonb;not null"`
	Total     int64          `json:"total" gorm:"not null"`
	Status    string         `json:"status" gorm:"type:varchar(20);not null;default:'received'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
