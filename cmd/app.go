package cmd

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/herdadmin/config"
	"example.com/backstage/services/herdadmin/internal/cache"
	"example.com/backstage/services/herdadmin/internal/database"
	"example.com/backstage/services/herdadmin/internal/messaging"
	"example.com/backstage/services/herdadmin/internal/metrics"
	"example.com/backstage/services/herdadmin/internal/platform"
	"example.com/backstage/services/herdadmin/internal/repositories"
	"example.com/backstage/services/herdadmin/internal/search"
	"example.com/backstage/services/herdadmin/internal/services"
	"example.com/backstage/services/herdadmin/internal/store"
	"example.com/backstage/services/herdadmin/internal/tracing"
	"example.com/backstage/services/herdadmin/internal/tracking"
)

// app holds the wired dependencies shared by the commands
type app struct {
	cfg     config.Config
	service *services.AdminService
	tracer  tracing.Tracer
	metrics *metrics.Metrics
	index   *search.ElasticClient
	closers []func() error
}

// newApp wires the admin service. Optional backends that fail to start are
// logged and left out.
func newApp(cfg config.Config, clientType string) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.NewMetrics()}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = &tracing.NewRelicTracer{}
	}
	a.tracer = tracer
	a.closers = append(a.closers, func() error { tracer.Close(); return nil })

	client := platform.NewClient(cfg.Platform, platform.WithTransport(tracer.RoundTripper(nil)))

	trackingStore, err := a.trackingStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	tracker := tracking.NewTracker(trackingStore)

	opts := []services.Option{
		services.WithTracer(tracer),
		services.WithMetrics(a.metrics),
		services.WithTreePath(cfg.Tree.Path),
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	} else if redisCache.Enabled() {
		opts = append(opts, services.WithCache(redisCache, redisCache.TTL()))
		a.closers = append(a.closers, redisCache.Close)
	}

	if cfg.Elastic.URL != "" {
		elasticClient, err := search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
		} else {
			a.index = elasticClient
			opts = append(opts, services.WithEventIndex(elasticClient))
		}
	}

	if cfg.Azure.QueueConnStr != "" {
		publisher, err := messaging.NewServiceBusClient(cfg.Azure, clientType)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Service Bus publisher, stage events will not be published")
			a.metrics.SetHealth(metrics.ComponentPublisher, false)
		} else {
			opts = append(opts, services.WithPublisher(publisher))
			a.metrics.SetHealth(metrics.ComponentPublisher, true)
			a.closers = append(a.closers, publisher.Close)
		}
	}

	a.service = services.NewAdminService(client, store.NewRegistry(), tracker, opts...)
	return a, nil
}

func (a *app) trackingStore() (tracking.Store, error) {
	switch a.cfg.Tracking.Store {
	case config.TrackingStorePostgres:
		db, err := database.Connect(a.cfg.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.AutoMigrate(); err != nil {
			return nil, errors.Wrap(err, "failed to run migrations")
		}
		a.metrics.SetHealth(metrics.ComponentTracking, true)
		return repositories.NewTrackingRepository(db.DB()), nil
	default:
		log.Warn().Msg("Tracking progress is kept in memory and lost on restart")
		return tracking.NewMemoryStore(), nil
	}
}

// Close releases the backends in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Error closing resource")
		}
	}
}
