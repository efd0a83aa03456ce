package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is an agency-managed client account that owns its own catalog
// and its link to the external storefront platform.
type Tenant struct {
	ID           string     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string     `json:"name" gorm:"not null"`
	ShopDomain   string     `json:"shop_domain"`
	AccessToken  string     `json:"-"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	SyncStatus   SyncStatus `json:"sync_status" gorm:"default:IDLE"`
	SyncError    string     `json:"sync_error"`
	ProductCount int        `json:"product_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "IDLE"
	SyncStatusRunning SyncStatus = "RUNNING"
	SyncStatusOK      SyncStatus = "OK"
	SyncStatusError   SyncStatus = "ERROR"
)

// Linked reports whether the tenant has a usable storefront connection.
func (t *Tenant) Linked() bool {
	return t.ShopDomain != "" && t.AccessToken != ""
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// SyncAttempt is an append-only log row, one per sync attempt. The tenant
// row only caches the latest state; history and stale-running detection
// come from this table.
type SyncAttempt struct {
	ID         string     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string     `json:"tenant_id" gorm:"type:uuid;not null;index"`
	StartedAt  time.Time  `json:"started_at" gorm:"not null"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     SyncStatus `json:"status" gorm:"default:RUNNING"`
	Error      string     `json:"error"`
	Full       bool       `json:"full" gorm:"column:full_sync"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Processed  int        `json:"processed"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (a *SyncAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
