package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"promosync/internal/catalog"
	"promosync/internal/collections"
	"promosync/internal/config"
	"promosync/internal/database"
	"promosync/internal/events"
	"promosync/internal/logger"
	"promosync/internal/services/shopify"
	"promosync/internal/sync"

	"github.com/segmentio/kafka-go"
)

// Worker consumes catalog events and runs the long-lived work the API
// hands off: single-tenant syncs, fleet-wide scheduled syncs and
// classification sweeps.
type Worker struct {
	config       *config.Config
	logger       *logger.Logger
	reader       *kafka.Reader
	orchestrator *sync.Orchestrator
	sweep        *collections.Sweep
	maintenance  *sql.DB
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.KafkaBrokers},
		GroupID:        "promosync-worker",
		Topic:          cfg.EventsTopic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	store := catalog.NewStore(db.DB)
	newSource := func(shopDomain, accessToken, filter string) sync.PageIterator {
		return shopify.NewClient(shopDomain, accessToken, cfg.ShopifyAPIVersion, cfg.SyncPageSize, logger).Pages(filter)
	}

	// Plain database/sql handle for the stale-sync reset; not available
	// when running against sqlite in development.
	maintenance, err := database.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		logger.Debug("Maintenance SQL handle unavailable: %v", err)
		maintenance = nil
	}

	return &Worker{
		config:       cfg,
		logger:       logger,
		reader:       reader,
		orchestrator: sync.NewOrchestrator(db.DB, store, newSource, cfg.SyncSkew, logger),
		sweep:        collections.NewSweep(store, cfg.SweepPageSize, logger),
		maintenance:  maintenance,
	}
}

func (w *Worker) Start() {
	w.logger.Info("Worker started, listening for events...")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		message, err := w.reader.ReadMessage(ctx)
		cancel()

		if err != nil {
			if err == context.DeadlineExceeded {
				continue
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		var event events.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			w.logger.Error("Failed to parse event: %v", err)
			continue
		}

		if err := w.process(event); err != nil {
			w.logger.Error("Failed to process %s event: %v", event.Type, err)
		}
	}
}

func (w *Worker) process(event events.Event) error {
	w.logger.Debug("Processing event: %s tenant=%s", event.Type, event.TenantID)

	switch event.Type {
	case events.TypeSyncRequested:
		_, err := w.orchestrator.SyncTenant(event.TenantID)
		return err

	case events.TypeSyncAll:
		w.resetStaleSyncs()
		results, err := w.orchestrator.SyncAll()
		if err != nil {
			return err
		}
		for _, r := range results {
			if !r.OK {
				w.logger.Warn("Tenant %s (%s) sync failed: %s", r.TenantID, r.TenantName, r.Error)
			}
		}
		return nil

	case events.TypeSweepRequested:
		_, err := w.sweep.Run(event.TenantID, event.Rules)
		return err
	}

	w.logger.Debug("Unhandled event type: %s", event.Type)
	return nil
}

// resetStaleSyncs flips tenants stuck in RUNNING longer than the
// configured bound back to ERROR so the scheduled pass retries them. A
// sync killed by the hosting environment never gets to record its own
// failure.
func (w *Worker) resetStaleSyncs() {
	if w.maintenance == nil {
		return
	}

	cutoff := time.Now().Add(-w.config.StaleSyncAfter)
	result, err := w.maintenance.Exec(
		`UPDATE tenants SET sync_status = 'ERROR', sync_error = 'sync attempt timed out'
		 WHERE sync_status = 'RUNNING' AND updated_at < $1`, cutoff)
	if err != nil {
		w.logger.Error("Failed to reset stale syncs: %v", err)
		return
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		w.logger.Warn("Reset %d stale running sync(s)", n)
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
	if w.maintenance != nil {
		w.maintenance.Close()
	}
}
