package handlers

import (
	"net/http"

	"promosync/internal/collections"
	"promosync/internal/events"
	"promosync/internal/logger"
	"promosync/internal/models"

	"github.com/gin-gonic/gin"
)

type CollectionsHandler struct {
	sweep     *collections.Sweep
	publisher *events.Publisher
	logger    *logger.Logger
}

func NewCollectionsHandler(sweep *collections.Sweep, publisher *events.Publisher, logger *logger.Logger) *CollectionsHandler {
	return &CollectionsHandler{
		sweep:     sweep,
		publisher: publisher,
		logger:    logger,
	}
}

// Classify re-derives every product's collection set for a tenant from
// the supplied rules and persists only the deltas.
func (h *CollectionsHandler) Classify(c *gin.Context) {
	tenantID := c.Param("id")

	var request struct {
		Rules []models.CollectionRule `json:"rules" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if c.Query("async") == "true" {
		err := h.publisher.Publish(c.Request.Context(), events.Event{
			Type:     events.TypeSweepRequested,
			TenantID: tenantID,
			Rules:    request.Rules,
		})
		if err != nil {
			h.logger.Error("Failed to queue sweep for tenant %s: %v", tenantID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue sweep"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Sweep queued"})
		return
	}

	result, err := h.sweep.Run(tenantID, request.Rules)
	if err != nil {
		h.logger.Error("Sweep failed for tenant %s: %v", tenantID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
