package catalog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"promosync/internal/models"
)

// Store is the tenant-scoped product catalog. It is the only shared
// mutable resource in the pipeline; all guarantees rest on single-row
// upsert atomicity, there is no cross-row transaction spanning a sync.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByExternalID(tenantID, externalID string) (*models.Product, error) {
	var product models.Product
	err := s.db.Where("tenant_id = ? AND external_id = ?", tenantID, externalID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product by external id: %w", err)
	}
	return &product, nil
}

func (s *Store) FindByURL(tenantID, url string) (*models.Product, error) {
	var product models.Product
	err := s.db.Where("tenant_id = ? AND product_url = ?", tenantID, url).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product by url: %w", err)
	}
	return &product, nil
}

// Upsert inserts or merge-patches one product row. Lookup tries the
// external id first, then the canonical URL, so a row created by manual
// import (no platform id) is merged rather than duplicated once the
// platform record arrives with a matching URL. Returns whether a new
// row was created.
func (s *Store) Upsert(tenantID string, attrs *models.Product) (bool, error) {
	var existing *models.Product
	var err error

	if attrs.ExternalID != "" {
		existing, err = s.FindByExternalID(tenantID, attrs.ExternalID)
		if err != nil {
			return false, err
		}
	}
	if existing == nil && attrs.ProductURL != "" {
		existing, err = s.FindByURL(tenantID, attrs.ProductURL)
		if err != nil {
			return false, err
		}
	}

	if existing == nil {
		product := *attrs
		product.ID = ""
		product.TenantID = tenantID
		if err := s.db.Create(&product).Error; err != nil {
			return false, fmt.Errorf("failed to create product: %w", err)
		}
		*attrs = product
		return true, nil
	}

	merged := *attrs
	merged.ID = existing.ID
	merged.TenantID = existing.TenantID
	merged.CreatedAt = existing.CreatedAt
	// Classification output and AI copy are owned by other subsystems;
	// a sync never touches them.
	merged.Collections = existing.Collections
	merged.BulletPoints = existing.BulletPoints
	if merged.ExternalID == "" {
		merged.ExternalID = existing.ExternalID
	}

	if err := s.db.Save(&merged).Error; err != nil {
		return false, fmt.Errorf("failed to update product: %w", err)
	}
	*attrs = merged
	return false, nil
}

// Paginate reads one page of the tenant's catalog in stable order. The
// cursor is a plain row offset.
func (s *Store) Paginate(tenantID string, offset, pageSize int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.Where("tenant_id = ?", tenantID).
		Order("created_at, id").
		Offset(offset).
		Limit(pageSize).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to paginate products: %w", err)
	}
	return products, nil
}

func (s *Store) PatchCollections(id string, labels []string) error {
	// Updates with a typed struct routes the slice through the field's
	// JSON serializer; a bare column Update would not.
	err := s.db.Model(&models.Product{}).
		Where("id = ?", id).
		Select("collections").
		Updates(&models.Product{Collections: labels}).Error
	if err != nil {
		return fmt.Errorf("failed to patch collections: %w", err)
	}
	return nil
}

func (s *Store) CountByTenant(tenantID string) (int64, error) {
	var total int64
	err := s.db.Model(&models.Product{}).Where("tenant_id = ?", tenantID).Count(&total).Error
	return total, err
}
