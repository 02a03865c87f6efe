package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hideoutdb/searchd/internal/index"
	"github.com/hideoutdb/searchd/internal/upstream"
)

// Catalog is the slice of the upstream client the controller needs.
type Catalog interface {
	IsSessionValid() bool
	RefreshSession(ctx context.Context) error
	Version(ctx context.Context) (time.Time, error)
	Items(ctx context.Context) ([]upstream.Item, error)
}

// Indexer is the slice of the index engine the controller writes to.
type Indexer interface {
	WriteAll(ctx context.Context, docs []index.Document) error
	HealthCheck() error
}

// Controller keeps the index fresh. It polls the upstream catalog on a
// fixed interval and rebuilds the index whenever the catalog's modified
// timestamp advances past the last synchronized version.
//
// Refresh attempts are strictly sequential; there is never more than one
// in flight. A failed attempt leaves last synced untouched so the next
// tick retries the same rebuild.
type Controller struct {
	catalog  Catalog
	engine   Indexer
	interval time.Duration
	status   *Status
	logger   *slog.Logger

	mu         sync.RWMutex
	lastSynced time.Time
}

// NewController creates a controller polling catalog every interval.
func NewController(catalog Catalog, engine Indexer, interval time.Duration) *Controller {
	return &Controller{
		catalog:  catalog,
		engine:   engine,
		interval: interval,
		status:   NewStatus(),
		logger:   slog.Default().With("component", "controller"),
	}
}

// Status returns the controller's health flags.
func (c *Controller) Status() *Status {
	return c.status
}

// LastSynced returns the catalog version of the last successful rebuild.
// The zero time means the index has never been populated.
func (c *Controller) LastSynced() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSynced
}

func (c *Controller) setLastSynced(v time.Time) {
	c.mu.Lock()
	c.lastSynced = v
	c.mu.Unlock()
}

// Run polls until ctx is cancelled. The first refresh happens immediately
// so the index is populated at startup rather than one interval later.
// Returns nil on shutdown.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Refresh(ctx)

	for {
		// Shutdown wins over a tick that raced in.
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Refresh runs one synchronization attempt. On any failure it sets the
// matching status flag and returns; the index keeps serving whatever
// generation it already has.
func (c *Controller) Refresh(ctx context.Context) {
	if !c.catalog.IsSessionValid() {
		c.logger.Info("upstream session expired, refreshing")
		if err := c.catalog.RefreshSession(ctx); err != nil {
			c.logger.Error("session refresh failed", "error", err)
			c.status.SetUpstreamError(true)
			return
		}
	}

	version, err := c.catalog.Version(ctx)
	if err != nil {
		c.logger.Error("catalog version check failed", "error", err)
		c.status.SetUpstreamError(true)
		return
	}

	if !version.After(c.LastSynced()) {
		c.status.SetUpstreamError(false)
		c.status.SetIndexError(false)
		return
	}

	c.logger.Info("catalog modified, rebuilding index",
		"version", version, "last_synced", c.LastSynced())

	items, err := c.catalog.Items(ctx)
	if err != nil {
		c.logger.Error("catalog fetch failed", "error", err)
		c.status.SetUpstreamError(true)
		return
	}

	docs := make([]index.Document, 0, len(items))
	for _, it := range items {
		docs = append(docs, it.Document())
	}

	if err := c.engine.WriteAll(ctx, docs); err != nil {
		c.logger.Error("index rebuild failed", "error", err)
		c.status.SetIndexError(true)
		return
	}

	if err := c.engine.HealthCheck(); err != nil {
		c.logger.Error("index unhealthy after rebuild", "error", err)
		c.status.SetIndexError(true)
		return
	}

	c.setLastSynced(version)
	c.status.SetUpstreamError(false)
	c.status.SetIndexError(false)
	c.logger.Info("index synchronized", "docs", len(docs), "version", version)
}
