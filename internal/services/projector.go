package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/herdadmin/internal/metrics"
	"example.com/backstage/services/herdadmin/internal/models"
)

// StageEventProjector copies stage events from the queue into the search index
type StageEventProjector struct {
	index   EventIndex
	metrics *metrics.Metrics
}

// NewStageEventProjector creates a new projector
func NewStageEventProjector(index EventIndex, m *metrics.Metrics) *StageEventProjector {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &StageEventProjector{index: index, metrics: m}
}

// Handle indexes one stage event. Indexing is keyed by event id, so
// redelivered messages overwrite the same document.
func (p *StageEventProjector) Handle(ctx context.Context, event models.StageEvent) error {
	if p.index == nil {
		return ErrSearchDisabled
	}
	if err := p.index.IndexStageEvent(ctx, event); err != nil {
		p.metrics.RecordError(metrics.EventsIndexed)
		return errors.Wrapf(err, "failed to index stage event %s", event.ID)
	}
	p.metrics.RecordSuccess(metrics.EventsIndexed)
	p.metrics.IncrementCounter(metrics.EventsIndexed)

	log.Debug().
		Str("event_id", event.ID).
		Str("key", event.Key).
		Str("kind", event.Kind).
		Int("stage_id", event.StageID).
		Msg("Stage event indexed")
	return nil
}

// Refresh reloads the orders of admin and warms the product cache. It backs
// the worker's scheduled job.
func (s *AdminService) Refresh(ctx context.Context, admin string) error {
	st := s.FetchOrders(ctx, admin)
	s.metrics.SetGauge(metrics.PendingUnits, int64(len(st.Orders.PendingUnits)))
	s.metrics.SetGauge(metrics.ActiveDashboards, int64(s.registry.Len()))

	if _, err := s.WarmProducts(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to warm products")
	}

	if st.Orders.Error != "" {
		return errors.New(st.Orders.Error)
	}

	log.Info().
		Str("admin", admin).
		Int("pending_units", len(st.Orders.PendingUnits)).
		Msg("Dashboard refreshed")
	return nil
}

