package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mobilewallet/bankd/internal/authz"
	"github.com/mobilewallet/bankd/internal/config"
	"github.com/mobilewallet/bankd/internal/engine"
	"github.com/mobilewallet/bankd/internal/gateway"
	"github.com/mobilewallet/bankd/internal/logging"
	"github.com/mobilewallet/bankd/internal/middleware"
	"github.com/mobilewallet/bankd/internal/repository"
	"github.com/mobilewallet/bankd/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("bankd", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	banks := repository.NewBankRepository(db)
	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := engine.NewMetrics(reg)

	authTimeout := time.Duration(cfg.AuthTimeoutS) * time.Second
	authorizer := authz.NewClient(cfg.AuthURL, cfg.TransactionAuthURL, authTimeout)

	fleet := transport.NewFleet(slog.Default())
	notifier := engine.NewNotifier(fleet, metrics)
	eng := engine.New(db, banks, accounts, transactions, authorizer, notifier, engine.RealClock{}, metrics)
	router := engine.NewRouter(eng, authorizer, cfg.ConfirmIdentity, metrics)

	ctx := context.Background()
	hosted, err := banks.List(ctx)
	if err != nil {
		slog.Error("failed to load hosted banks", "error", err)
		os.Exit(1)
	}
	if len(hosted) == 0 {
		slog.Warn("no banks configured, fleet is empty")
	}
	for _, b := range hosted {
		fleet.Add(transport.NewBankClient(cfg.BrokerURL, b.ShortName, b.BIC, cfg.MQTTQoS, router))
	}
	fleet.ConnectAll()

	devel := cfg.AppEnv == "development"
	linker := gateway.NewLinker(banks, accounts, cfg.LinkAccountURL, authTimeout, devel)
	handler := gateway.NewHandler(fleet, eng, linker)

	requireAuth := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /rest/status", handler.Status)
	mux.Handle("GET /rest/connect", requireAuth(http.HandlerFunc(handler.Connect)))
	mux.Handle("GET /rest/disconnect", requireAuth(http.HandlerFunc(handler.Disconnect)))
	mux.Handle("POST /rest/link-account", requireAuth(http.HandlerFunc(handler.LinkAccount)))
	mux.Handle("POST /rest/transaction", requireAuth(http.HandlerFunc(handler.TransactionResult)))
	mux.Handle("POST /rest/identity", requireAuth(http.HandlerFunc(handler.IdentityResult)))

	chain := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "confirm_identity", cfg.ConfirmIdentity)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	fleet.DisconnectAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	gateway.RespondSuccess(w, http.StatusOK, "ok", nil)
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for i := range 30 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, dbErr := repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		cancel()
		if dbErr == nil {
			return db, nil
		}
		err = dbErr
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
