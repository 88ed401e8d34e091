package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/backstage/services/herdadmin/internal/messaging"
	"example.com/backstage/services/herdadmin/internal/services"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker to index stage events from Azure Service Bus
and periodically refresh the dashboard data`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	a, err := newApp(cfg, "herdadmin-worker")
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Azure.QueueConnStr != "" && a.index != nil {
		consumer, err := messaging.NewConsumer(cfg.Azure)
		if err != nil {
			return err
		}
		defer consumer.Close()

		projector := services.NewStageEventProjector(a.index, a.metrics)
		g.Go(func() error {
			log.Info().Str("queue", cfg.Azure.QueueName).Msg("Starting stage event consumer")
			return consumer.Run(ctx, projector.Handle)
		})
	} else {
		log.Warn().Msg("Service Bus or Elasticsearch not configured, stage events will not be indexed")
	}

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.RefreshInterval),
			gocron.NewTask(func() {
				refresh(ctx, a.service, cfg.Worker.AdminMobile)
			}),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return err
		}

		log.Info().Dur("interval", cfg.Worker.RefreshInterval).Msg("Starting dashboard refresh job")
		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}

// refresh reloads the orders of admin, or only the catalog when no admin is set
func refresh(ctx context.Context, svc *services.AdminService, admin string) {
	if admin == "" {
		n, err := svc.WarmProducts(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to warm products")
			return
		}
		log.Info().Int("products", n).Msg("Product cache warmed")
		return
	}
	if err := svc.Refresh(ctx, admin); err != nil {
		log.Error().Err(err).Str("admin", admin).Msg("Failed to refresh dashboard")
	}
}
