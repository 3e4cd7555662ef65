package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/kyc-verifier/internal/app"
	"github.com/joseph-ayodele/kyc-verifier/internal/common"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/pipeline"
	"github.com/joseph-ayodele/kyc-verifier/internal/metrics"
	"github.com/joseph-ayodele/kyc-verifier/internal/repository"
	"github.com/joseph-ayodele/kyc-verifier/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file applied over environment settings")
		inmem      = flag.Bool("inmem", false, "use an in-memory SQLite database")
	)
	flag.Parse()

	cfg, err := common.Load(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, repo, err := repository.InitDatabase(ctx, cfg.Database, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)
	if err := repository.HealthCheck(ctx, db, 3*time.Second, logger); err != nil {
		logger.Error("db health failed", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	engine, err := app.NewEngine(cfg.Verify, logger)
	if err != nil {
		logger.Error("verification policy", "error", err)
		os.Exit(1)
	}
	proc := pipeline.NewProcessor(logger, nil, nil, engine, pipeline.WithStore(repo), pipeline.WithMetrics(m))

	gs, hs := server.NewGRPCServer(server.NewVerificationService(proc, repo, logger), logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("grpc.serving", "addr", lis.Addr().String())
		if err := gs.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("metrics.serving", "addr", cfg.Server.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	hs.Shutdown()
	gs.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown", "error", err)
	}
	logger.Info("stopped")
}
