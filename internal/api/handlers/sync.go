package handlers

import (
	"net/http"

	"promosync/internal/events"
	"promosync/internal/logger"
	"promosync/internal/sync"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	orchestrator *sync.Orchestrator
	publisher    *events.Publisher
	logger       *logger.Logger
}

func NewSyncHandler(orchestrator *sync.Orchestrator, publisher *events.Publisher, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		publisher:    publisher,
		logger:       logger,
	}
}

// Trigger runs a sync for one tenant. With ?async=true the request is
// handed to the worker over Kafka instead of holding the connection
// open for the whole catalog pull.
func (h *SyncHandler) Trigger(c *gin.Context) {
	tenantID := c.Param("id")

	if c.Query("async") == "true" {
		err := h.publisher.Publish(c.Request.Context(), events.Event{
			Type:     events.TypeSyncRequested,
			TenantID: tenantID,
		})
		if err != nil {
			h.logger.Error("Failed to queue sync for tenant %s: %v", tenantID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue sync"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Sync queued"})
		return
	}

	result, err := h.orchestrator.SyncTenant(tenantID)
	if err != nil {
		h.logger.Error("Sync failed for tenant %s: %v", tenantID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products synced successfully",
		"data":    result,
	})
}

// TriggerAll syncs every linked tenant sequentially, isolating failures
// per tenant.
func (h *SyncHandler) TriggerAll(c *gin.Context) {
	if c.Query("async") == "true" {
		err := h.publisher.Publish(c.Request.Context(), events.Event{Type: events.TypeSyncAll})
		if err != nil {
			h.logger.Error("Failed to queue sync-all: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue sync"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Sync queued"})
		return
	}

	results, err := h.orchestrator.SyncAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}
