// Package catalog keeps the full event listing fetched from the backend and
// serves filtered, sorted views of it through a query.Engine.
//
// Each fetch is tagged with a generation number taken from Begin. A result
// is applied only if no newer fetch has already been applied, so a slow
// response can never overwrite a fresher list.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/query"
)

// Source fetches the complete event list.
type Source interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
}

// Catalog is safe for concurrent use.
type Catalog struct {
	source Source
	logger *logrus.Logger

	mu      sync.RWMutex
	engine  *query.Engine
	issued  uint64
	applied uint64
}

// New returns an empty catalog. tag selects the collation used for
// alphabetical sorting.
func New(source Source, logger *logrus.Logger, tag language.Tag) *Catalog {
	return &Catalog{
		source: source,
		logger: logger,
		engine: query.NewEngine(tag),
	}
}

// Begin reserves the generation number for a new fetch.
func (c *Catalog) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// Accept installs events fetched under gen. It returns false, leaving the
// catalog unchanged, when a fetch begun later has already been applied.
func (c *Catalog) Accept(gen uint64, events []model.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen <= c.applied {
		c.logger.WithFields(logrus.Fields{"generation": gen, "applied": c.applied}).Debug("dropping stale event list")
		return false
	}
	c.applied = gen
	c.engine.SetEvents(events)
	return true
}

// Refresh fetches the event list and applies it. A failed fetch leaves the
// current list in place.
func (c *Catalog) Refresh(ctx context.Context) error {
	gen := c.Begin()
	events, err := c.source.ListEvents(ctx)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("fetching events failed")
		return fmt.Errorf("fetch events: %w", err)
	}
	if c.Accept(gen, events) {
		c.logger.WithContext(ctx).WithField("count", len(events)).Debug("event list refreshed")
	}
	return nil
}

// Loaded reports whether any fetch has been applied.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applied > 0
}

// Generation returns the generation of the list currently installed.
func (c *Catalog) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applied
}

// Results returns the events visible under s.
func (c *Catalog) Results(s query.State) []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.SetState(s)
	return c.engine.Results()
}

// Events returns the unfiltered list in backend order.
func (c *Catalog) Events() []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine.Events()
}

// Facets returns the category and location options of the current list.
func (c *Catalog) Facets() query.Facets {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine.Facets()
}

// Find looks an event up by id in the current list.
func (c *Catalog) Find(id model.ID) (model.Event, bool) {
	for _, event := range c.Events() {
		if event.ID == id {
			return event, true
		}
	}
	return model.Event{}, false
}
