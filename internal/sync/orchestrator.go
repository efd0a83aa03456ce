package sync

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"promosync/internal/catalog"
	"promosync/internal/logger"
	"promosync/internal/models"
	"promosync/internal/services/shopify"
)

// PageIterator yields one page of normalized products per call. The
// sequence is lazy, finite and only restartable from scratch; the
// platform cursor is valid solely for the page after the one just
// acknowledged.
type PageIterator interface {
	Next() (*shopify.ProductPage, bool, error)
}

// SourceFactory builds a page iterator for one tenant's storefront. An
// empty filter requests the full catalog.
type SourceFactory func(shopDomain, accessToken, filter string) PageIterator

// Orchestrator drives full and incremental catalog syncs. One attempt
// walks the state machine idle -> running -> ok|error and records every
// attempt in the append-only sync_attempts log; the tenant row caches
// only the latest state.
type Orchestrator struct {
	db        *gorm.DB
	store     *catalog.Store
	newSource SourceFactory
	skew      time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

func NewOrchestrator(db *gorm.DB, store *catalog.Store, newSource SourceFactory, skew time.Duration, logger *logger.Logger) *Orchestrator {
	return &Orchestrator{
		db:        db,
		store:     store,
		newSource: newSource,
		skew:      skew,
		logger:    logger,
		now:       time.Now,
	}
}

type Result struct {
	TenantID  string    `json:"tenant_id"`
	Full      bool      `json:"full"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Processed int       `json:"processed"`
	StartedAt time.Time `json:"started_at"`
}

type TenantResult struct {
	TenantID   string  `json:"tenant_id"`
	TenantName string  `json:"tenant_name"`
	OK         bool    `json:"ok"`
	Error      string  `json:"error,omitempty"`
	Result     *Result `json:"result,omitempty"`
}

// SyncTenant runs one sync attempt for a single tenant.
func (o *Orchestrator) SyncTenant(tenantID string) (*Result, error) {
	var tenant models.Tenant
	if err := o.db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tenant %s not found", tenantID)
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	return o.sync(&tenant)
}

// SyncAll attempts a sync for every linked tenant, one at a time. A
// failure on one tenant is recorded against that tenant and does not
// stop the remaining tenants from being attempted.
func (o *Orchestrator) SyncAll() ([]TenantResult, error) {
	var tenants []models.Tenant
	err := o.db.Where("shop_domain <> '' AND access_token <> ''").Order("created_at").Find(&tenants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list linked tenants: %w", err)
	}

	results := make([]TenantResult, 0, len(tenants))
	for i := range tenants {
		tenant := &tenants[i]
		result, err := o.sync(tenant)
		if err != nil {
			o.logger.Error("Sync failed for tenant %s: %v", tenant.ID, err)
			results = append(results, TenantResult{
				TenantID:   tenant.ID,
				TenantName: tenant.Name,
				OK:         false,
				Error:      err.Error(),
			})
			continue
		}
		results = append(results, TenantResult{
			TenantID:   tenant.ID,
			TenantName: tenant.Name,
			OK:         true,
			Result:     result,
		})
	}
	return results, nil
}

func (o *Orchestrator) sync(tenant *models.Tenant) (*Result, error) {
	// Distinct fail-fast so operators can tell "never configured" apart
	// from "configuration stopped working". No status transition: a
	// missing link is not a sync attempt.
	if !tenant.Linked() {
		return nil, fmt.Errorf("tenant %s has no storefront integration configured", tenant.ID)
	}

	startedAt := o.now()
	full := tenant.LastSyncedAt == nil

	// Incremental syncs widen the window by the configured skew to
	// tolerate clock drift and near-boundary writes on the platform.
	filter := ""
	if !full {
		filter = shopify.FilterSince(tenant.LastSyncedAt.Add(-o.skew))
	}

	attempt := models.SyncAttempt{
		TenantID:  tenant.ID,
		StartedAt: startedAt,
		Status:    models.SyncStatusRunning,
		Full:      full,
	}
	if err := o.db.Create(&attempt).Error; err != nil {
		return nil, fmt.Errorf("failed to record sync attempt: %w", err)
	}

	err := o.db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).Updates(map[string]interface{}{
		"sync_status": models.SyncStatusRunning,
		"sync_error":  "",
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark sync running: %w", err)
	}

	o.logger.Info("Starting %s sync for tenant %s (%s)", syncKind(full), tenant.ID, tenant.ShopDomain)

	result := &Result{
		TenantID:  tenant.ID,
		Full:      full,
		StartedAt: startedAt,
	}

	pages := o.newSource(tenant.ShopDomain, tenant.AccessToken, filter)
	for {
		page, ok, err := pages.Next()
		if err != nil {
			o.markFailed(tenant.ID, &attempt, result, err)
			return nil, err
		}
		if !ok {
			break
		}

		// Pages already upserted stay committed; at-least-once per page.
		for i := range page.Products {
			record := page.Products[i]
			created, err := o.store.Upsert(tenant.ID, &record)
			if err != nil {
				o.markFailed(tenant.ID, &attempt, result, err)
				return nil, err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
			result.Processed++
		}
	}

	if err := o.markSucceeded(tenant.ID, &attempt, result, startedAt, full); err != nil {
		return nil, err
	}

	o.logger.Info("Sync finished for tenant %s: created=%d updated=%d processed=%d",
		tenant.ID, result.Created, result.Updated, result.Processed)

	return result, nil
}

// markSucceeded records the attempt as OK. lastSyncedAt is the time the
// sync started, not finished, so changes landing mid-sync fall inside
// the next incremental window. The product count is only meaningful for
// a full catalog pull.
func (o *Orchestrator) markSucceeded(tenantID string, attempt *models.SyncAttempt, result *Result, startedAt time.Time, full bool) error {
	finishedAt := o.now()

	tenantUpdates := map[string]interface{}{
		"sync_status":    models.SyncStatusOK,
		"sync_error":     "",
		"last_synced_at": startedAt,
	}
	if full {
		tenantUpdates["product_count"] = result.Processed
	}
	err := o.db.Model(&models.Tenant{}).Where("id = ?", tenantID).Updates(tenantUpdates).Error
	if err != nil {
		return fmt.Errorf("failed to record sync success: %w", err)
	}

	return o.db.Model(attempt).Updates(map[string]interface{}{
		"status":      models.SyncStatusOK,
		"finished_at": finishedAt,
		"created":     result.Created,
		"updated":     result.Updated,
		"processed":   result.Processed,
	}).Error
}

// markFailed records the attempt as failed. lastSyncedAt is left
// untouched so the next attempt retries the same incremental window.
func (o *Orchestrator) markFailed(tenantID string, attempt *models.SyncAttempt, result *Result, cause error) {
	finishedAt := o.now()

	err := o.db.Model(&models.Tenant{}).Where("id = ?", tenantID).Updates(map[string]interface{}{
		"sync_status": models.SyncStatusError,
		"sync_error":  cause.Error(),
	}).Error
	if err != nil {
		o.logger.Error("Failed to record sync failure for tenant %s: %v", tenantID, err)
	}

	err = o.db.Model(attempt).Updates(map[string]interface{}{
		"status":      models.SyncStatusError,
		"error":       cause.Error(),
		"finished_at": finishedAt,
		"created":     result.Created,
		"updated":     result.Updated,
		"processed":   result.Processed,
	}).Error
	if err != nil {
		o.logger.Error("Failed to record sync attempt failure for tenant %s: %v", tenantID, err)
	}
}

func syncKind(full bool) string {
	if full {
		return "full"
	}
	return "incremental"
}
