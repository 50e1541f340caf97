package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kemiadeola/openbanking-pisp/internal/application/services"
	"github.com/kemiadeola/openbanking-pisp/internal/config"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/idempotency"
	"github.com/kemiadeola/openbanking-pisp/internal/infrastructure/accounts"
	"github.com/kemiadeola/openbanking-pisp/internal/infrastructure/consentstore"
	"github.com/kemiadeola/openbanking-pisp/internal/infrastructure/persistence"
	"github.com/kemiadeola/openbanking-pisp/internal/infrastructure/persistence/postgres"
	"github.com/kemiadeola/openbanking-pisp/internal/interfaces/rest/handlers"
	"github.com/kemiadeola/openbanking-pisp/internal/interfaces/rest/middleware"
	"github.com/kemiadeola/openbanking-pisp/internal/validation"
	"github.com/kemiadeola/openbanking-pisp/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment initiation service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := persistence.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	submissionRepo := postgres.NewSubmissionRepository(db.Pool)
	idempotencyStore := postgres.NewIdempotencyStore(db.Pool)

	coordinatorOpts := []idempotency.Option{
		idempotency.WithRetention(cfg.Idempotency.Retention),
	}
	if cfg.Idempotency.WaitPollInterval > 0 && cfg.Idempotency.WaitTimeout > 0 {
		coordinatorOpts = append(coordinatorOpts,
			idempotency.WithWait(cfg.Idempotency.WaitPollInterval, cfg.Idempotency.WaitTimeout))
	}
	coordinator := idempotency.NewCoordinator(idempotencyStore, coordinatorOpts...)

	consentClient := consentstore.NewClient(cfg.ConsentStore)
	retryConsentClient := consentstore.NewRetryClient(consentClient, cfg.Retry)

	accountsClient := accounts.NewClient(cfg.Accounts)

	rateTable, err := buildRateTable(cfg.Payments)
	if err != nil {
		logger.Error("failed to parse reference rates", "error", err)
		os.Exit(1)
	}

	validator := validation.New(cfg.Payments.CurrencyList())

	consentService := services.NewConsentService(
		retryConsentClient,
		validator,
		rateTable,
		controlParameters(cfg.Payments),
		chargeTariff(cfg.Payments),
		cfg.Payments.BasePath,
		logger,
	)
	submissionService := services.NewSubmissionService(
		retryConsentClient,
		accountsClient,
		submissionRepo,
		coordinator,
		cfg.Payments.BasePath,
		logger,
	)
	fundsService := services.NewFundsConfirmationService(
		retryConsentClient,
		accountsClient,
		cfg.Payments.BasePath,
		logger,
	)

	h := handlers.NewHandlers(consentService, submissionService, fundsService, cfg.Payments.BasePath, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	router := http.Handler(mux)

	handler := middleware.Recovery(logger)(router)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	retentionWorker := worker.NewRetentionWorker(
		idempotencyStore,
		cfg.Idempotency.Retention,
		cfg.Idempotency.PurgeInterval,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go retentionWorker.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func buildRateTable(cfg config.PaymentsConfig) (validation.StaticRateTable, error) {
	pairs, err := cfg.RatePairs()
	if err != nil {
		return nil, err
	}

	table := make(validation.StaticRateTable, len(pairs))
	for pair, rate := range pairs {
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, err
		}
		table[pair] = d
	}
	return table, nil
}

func controlParameters(cfg config.PaymentsConfig) validation.ControlParameters {
	if cfg.MaxIndividualAmount == "" || cfg.MaxIndividualCurrency == "" {
		return validation.ControlParameters{}
	}
	return validation.ControlParameters{
		MaximumIndividualAmount: &domain.Amount{
			Amount:   cfg.MaxIndividualAmount,
			Currency: cfg.MaxIndividualCurrency,
		},
	}
}

// chargeTariff builds the flat charge applied to international consents.
// No configured charge means consents carry no charges block.
func chargeTariff(cfg config.PaymentsConfig) []domain.Charge {
	if cfg.ChargeAmount == "" || cfg.ChargeCurrency == "" {
		return nil
	}
	return []domain.Charge{{
		ChargeBearer: "BorneByDebtor",
		Type:         "UK.OBIE.MoneyTransmission",
		Amount: domain.Amount{
			Amount:   cfg.ChargeAmount,
			Currency: cfg.ChargeCurrency,
		},
	}}
}
