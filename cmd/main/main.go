package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"market-dashboard/src/actions"
	"market-dashboard/src/address"
	"market-dashboard/src/config"
	"market-dashboard/src/dashboard"
	"market-dashboard/src/engine"
	"market-dashboard/src/feed"
	"market-dashboard/src/grpc_control"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/metrics"
	"market-dashboard/src/notifier"
	"market-dashboard/src/scheduler"
	"market-dashboard/src/server"
	"market-dashboard/src/storage"
	"market-dashboard/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file, .env and DASHBOARD_* variables
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.MConfig, cfg.Name)
	defer logger.CloseFiles()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Critical("%v", err)
		logger.CloseFiles()
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func run(cfg *config.Config, appLogger *logger.Logger) error {
	// 1. Journal
	db, err := storage.Open(cfg.MConfig, appLogger.Named("Storage"))
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}
	defer db.Close()

	stored, err := db.LoadActiveSymbol()
	if err != nil {
		appLogger.Warning("Could not load last active symbol: %v", err)
	}

	// 2. Page address and initial symbol
	page, err := address.NewState(cfg.Session, stored)
	if err != nil {
		return err
	}
	appLogger.Info("Initial symbol: %s", page.InitialSymbol())

	// 3. Router
	market := utils.NewMarketScheduler([]string{page.InitialSymbol()}, appLogger.Named("Calendar"))
	router := dashboard.NewRouter(dashboard.Options{
		DerivedWindow: cfg.Chart.DerivedWindow,
		MinConfidence: cfg.Alerts.MinConfidence,
		InitialSymbol: page.InitialSymbol(),
		MarketStatus:  market.MarketStatus,
		OnDiscard: func(ev dashboard.Event, reason string) {
			metrics.DiscardedTotal.WithLabelValues(ev.Name()).Inc()
		},
	}, dashboard.NewProjector(cfg.Display), appLogger.Named("Router"))

	// 4. Outer surfaces
	srv := server.NewDashboardServer(cfg.MConfig, appLogger.Named("Server"))

	var sinks []interfaces.IAlertSink
	if cfg.Alerts.Telegram.Enabled {
		sinks = append(sinks, notifier.NewTelegramNotifier(cfg.Alerts.Telegram, appLogger.Named("Telegram")))
	}

	var publisher feedPublisher
	eng := engine.NewEngine(router, engine.Deps{
		Chart:    srv,
		View:     srv,
		Feed:     &publisher,
		Address:  page,
		Actions:  actions.NewBackend(cfg.Backend, appLogger.Named("Backend")),
		Database: db,
		Sinks:    sinks,
	}, engine.Options{
		RequestTimeout: time.Duration(cfg.Session.RequestTimeoutSeconds) * time.Second,
		EventBuffer:    cfg.Feed.EventBuffer,
	}, appLogger.Named("Engine"))
	srv.Attach(eng)

	client := feed.NewClient(cfg.Feed, feed.NewCodec(cfg.Display.Indicators), eng.Post, appLogger.Named("Feed"))
	publisher.client = client

	control := grpc_control.NewControlService(appLogger.Named("ControlService"))
	eng.Subscribe(control.Observe)

	sched := scheduler.NewScheduler(db, eng.Post, appLogger.Named("Scheduler"))
	if err := sched.RegisterAll(cfg.Schedule); err != nil {
		return err
	}

	// 5. Start everything
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	start := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && ctx.Err() == nil {
				appLogger.Error("%s stopped: %v", name, err)
				stop()
			}
		}()
	}

	start("engine", func() error { return eng.Run(ctx) })
	start("http", srv.Start)
	start("feed", func() error { return client.Run(ctx) })
	if cfg.GrpcPort > 0 {
		start("grpc", func() error {
			return control.Serve(ctx, fmt.Sprintf("%s:%d", cfg.GrpcHost, cfg.GrpcPort))
		})
	}
	sched.Start()

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		appLogger.Warning("HTTP shutdown: %v", err)
	}
	wg.Wait()
	return nil
}

// -----------------------------------------------------------------------------

// feedPublisher lets the engine be built before the feed client, which needs
// the engine's Post.
type feedPublisher struct {
	client *feed.Client
}

func (p *feedPublisher) ChangeSymbol(ctx context.Context, symbol, requestID string) error {
	return p.client.ChangeSymbol(ctx, symbol, requestID)
}
