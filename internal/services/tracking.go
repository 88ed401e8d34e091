package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/herdadmin/internal/familytree"
	"example.com/backstage/services/herdadmin/internal/metrics"
	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/orders"
	"example.com/backstage/services/herdadmin/internal/tracing"
	"example.com/backstage/services/herdadmin/internal/tracking"
)

// TrackedOrder is an approved order with the progress of its sub-items
type TrackedOrder struct {
	Entry models.OrderEntry   `json:"entry"`
	Items []tracking.Timeline `json:"items"`
}

// Tracking lists the trackable orders of admin matching query. Progress is
// read without creating records.
func (s *AdminService) Tracking(ctx context.Context, admin, query string) ([]TrackedOrder, error) {
	entries := orders.Trackable(s.State(admin).Orders.PendingUnits, query)

	out := make([]TrackedOrder, 0, len(entries))
	for _, e := range entries {
		orderID := e.Order.ID.String()
		records, err := s.tracker.ListOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}

		item := TrackedOrder{Entry: e, Items: make([]tracking.Timeline, 0, len(records))}
		for i, rec := range records {
			key := tracking.Key{OrderID: orderID, Unit: i + 1}
			item.Items = append(item.Items, tracking.BuildTimeline(key, rec))
		}
		out = append(out, item)
	}
	return out, nil
}

// Timeline returns the progress of one sub-item
func (s *AdminService) Timeline(ctx context.Context, orderID string, unit int) (tracking.Timeline, error) {
	key, err := tracking.NewKey(orderID, unit)
	if err != nil {
		return tracking.Timeline{}, err
	}
	rec, err := s.tracker.Get(ctx, key)
	if err != nil {
		return tracking.Timeline{}, err
	}
	return tracking.BuildTimeline(key, rec), nil
}

// AdvanceStage moves a sub-item to target and publishes the change
func (s *AdminService) AdvanceStage(ctx context.Context, admin, orderID string, unit, target int) (tracking.Timeline, error) {
	return s.trackingCommand(ctx, admin, orderID, unit, "advance-stage", func(key tracking.Key) (tracking.Record, error) {
		return s.tracker.Advance(ctx, key, target)
	})
}

// ConfirmDelivery closes a sub-item at the final stage and publishes the change
func (s *AdminService) ConfirmDelivery(ctx context.Context, admin, orderID string, unit int) (tracking.Timeline, error) {
	return s.trackingCommand(ctx, admin, orderID, unit, "confirm-delivery", func(key tracking.Key) (tracking.Record, error) {
		return s.tracker.ConfirmDelivery(ctx, key)
	})
}

func (s *AdminService) trackingCommand(ctx context.Context, admin, orderID string, unit int, name string, apply func(tracking.Key) (tracking.Record, error)) (tracking.Timeline, error) {
	txn, end := tracing.Begin(ctx, s.tracer, name)
	defer end()

	key, err := tracking.NewKey(orderID, unit)
	if err != nil {
		return tracking.Timeline{}, err
	}
	s.tracer.AddAttribute(txn, "key", key.String())

	start := time.Now()
	seg := s.tracer.StartSpan("tracking-store", txn)
	rec, err := apply(key)
	seg.End()
	s.metrics.Since(metrics.TrackingCommand, start)
	s.metrics.RecordResult(metrics.TrackingCommand, err)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return tracking.Timeline{}, err
	}

	kind := models.StageEventAdvanced
	stamp := rec.History[rec.CurrentStageID]
	if rec.Delivered() {
		kind = models.StageEventDeliveryConfirmed
		stamp = *rec.DeliveryConfirmed
		s.metrics.IncrementCounter(metrics.DeliveriesConfirmed)
	} else {
		s.metrics.IncrementCounter(metrics.StagesAdvanced)
	}

	log.Info().
		Str("admin", admin).
		Str("key", key.String()).
		Int("stage_id", rec.CurrentStageID).
		Str("kind", kind).
		Msg("Tracking updated")

	s.publish(ctx, models.StageEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		Key:         key.String(),
		OrderID:     key.OrderID,
		Unit:        key.Unit,
		StageID:     rec.CurrentStageID,
		StageLabel:  tracking.Label(rec.CurrentStageID),
		Date:        stamp.Date,
		Time:        stamp.Time,
		AdminMobile: admin,
		OccurredAt:  s.now().UTC(),
	})

	return tracking.BuildTimeline(key, rec), nil
}

// publish sends event to the queue. The tracking change is already stored,
// so a failed publish is only logged.
func (s *AdminService) publish(ctx context.Context, event models.StageEvent) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishStageEvent(ctx, event)
	s.metrics.SetHealth(metrics.ComponentPublisher, err == nil)
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to publish stage event")
		return
	}
	s.metrics.IncrementCounter(metrics.EventsPublished)
}

// StageEvents returns the indexed history of one sub-item
func (s *AdminService) StageEvents(ctx context.Context, orderID string, unit int) ([]models.StageEvent, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	key, err := tracking.NewKey(orderID, unit)
	if err != nil {
		return nil, err
	}
	events, err := s.index.SearchStageEvents(ctx, key.String(), 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search stage events")
	}
	return events, nil
}

// BuildTree converts a family tree for display
func (s *AdminService) BuildTree(root *familytree.Node) *familytree.DisplayNode {
	return familytree.Convert(root)
}

// Tree converts the configured family tree for display
func (s *AdminService) Tree() (*familytree.DisplayNode, error) {
	if s.treePath == "" {
		return nil, ErrTreeNotConfigured
	}
	root, err := familytree.LoadFile(s.treePath)
	if err != nil {
		return nil, err
	}
	return familytree.Convert(root), nil
}
