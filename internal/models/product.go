package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID             string        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID       string        `json:"tenant_id" gorm:"type:uuid;not null;index"`
	ExternalID     string        `json:"external_id" gorm:"index"`
	Title          string        `json:"title" gorm:"not null"`
	ShortTitle     string        `json:"short_title"`
	Handle         string        `json:"handle"`
	ProductURL     string        `json:"product_url"`
	ImageURL       string        `json:"image_url"`
	Vendor         string        `json:"vendor"`
	ProductType    string        `json:"product_type"`
	Tags           string        `json:"tags"`
	Description    string        `json:"description"`
	Price          float64       `json:"price" gorm:"type:decimal(10,2)"`
	CompareAtPrice *float64      `json:"compare_at_price" gorm:"type:decimal(10,2)"`
	Collections    []string      `json:"collections" gorm:"type:jsonb;serializer:json"`
	BulletPoints   []string      `json:"bullet_points" gorm:"type:jsonb;serializer:json"`
	Source         ProductSource `json:"source" gorm:"default:ADMIN_SYNC"`
	Status         string        `json:"status" gorm:"default:active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type ProductSource string

const (
	SourceManualImport ProductSource = "MANUAL_IMPORT"
	SourceStorefront   ProductSource = "STOREFRONT"
	SourceAdminSync    ProductSource = "ADMIN_SYNC"
)

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
