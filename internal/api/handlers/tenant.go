package handlers

import (
	"net/http"

	"promosync/internal/logger"
	"promosync/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TenantHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewTenantHandler(db *gorm.DB, logger *logger.Logger) *TenantHandler {
	return &TenantHandler{
		db:     db,
		logger: logger,
	}
}

func (h *TenantHandler) List(c *gin.Context) {
	var tenants []models.Tenant
	if err := h.db.Order("created_at").Find(&tenants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenants"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenants})
}

func (h *TenantHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var tenant models.Tenant
	if err := h.db.First(&tenant, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (h *TenantHandler) Create(c *gin.Context) {
	var request struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant := models.Tenant{
		Name:       request.Name,
		SyncStatus: models.SyncStatusIdle,
	}
	if err := h.db.Create(&tenant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tenant"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": tenant})
}

// Link stores the storefront connection for a tenant. Token exchange
// happens upstream; this endpoint only receives the resulting
// credentials.
func (h *TenantHandler) Link(c *gin.Context) {
	id := c.Param("id")

	var request struct {
		ShopDomain  string `json:"shop_domain" binding:"required"`
		AccessToken string `json:"access_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tenant models.Tenant
	if err := h.db.First(&tenant, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenant"})
		return
	}

	tenant.ShopDomain = request.ShopDomain
	tenant.AccessToken = request.AccessToken
	if err := h.db.Save(&tenant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link tenant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Storefront linked successfully",
		"data":    tenant,
	})
}

// Attempts returns the tenant's sync history, newest first.
func (h *TenantHandler) Attempts(c *gin.Context) {
	id := c.Param("id")

	var attempts []models.SyncAttempt
	err := h.db.Where("tenant_id = ?", id).Order("started_at DESC").Limit(50).Find(&attempts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync attempts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": attempts})
}
