package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	commentinsights "comment-insights/agents/comment-insights"
	"comment-insights/agents/comment-insights/youtube"
	"comment-insights/shared/ai"
	"comment-insights/shared/config"
	"comment-insights/shared/logging"
	"comment-insights/shared/monitoring"
	"comment-insights/shared/scheduler"
	"comment-insights/shared/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	youtubeClient, err := youtube.NewClient(ctx, &cfg.YouTube)
	if err != nil {
		logrus.Fatalf("Failed to create YouTube client: %v", err)
	}
	logrus.Info("YouTube client initialized")

	generator, err := ai.NewGeminiGenerator(ctx, &cfg.AI)
	if err != nil {
		logrus.Fatalf("Failed to create Gemini client: %v", err)
	}
	logrus.Infof("Gemini client initialized (model %s)", cfg.AI.Model)

	history, err := storage.Open(ctx, &cfg.Storage)
	if err != nil {
		logrus.Fatalf("Failed to open history store: %v", err)
	}
	defer history.Close()
	logrus.Infof("History store initialized (%s)", cfg.Storage.Driver)

	monitor := monitoring.NewMonitor()
	service := commentinsights.NewService(commentinsights.Dependencies{
		Videos:      youtubeClient,
		Analyzer:    ai.NewAnalyzer(generator),
		Translator:  ai.NewTranslator(generator),
		History:     history,
		Monitor:     monitor,
		MaxComments: youtubeClient.MaxComments(),
	})

	server := commentinsights.NewServer(&cfg.Server, service, monitor)
	probes := scheduler.New(cfg.Monitoring.ProbeSchedule, monitor, commentinsights.NewHistoryProbe(history))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	g.Go(func() error {
		if err := probes.Start(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logrus.Errorf("Service stopped with error: %v", err)
		return
	}
	logrus.Info("Service stopped")
}
