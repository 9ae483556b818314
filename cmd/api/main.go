package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/payflowhq/payflow/internal/adapter/handler"
	"github.com/payflowhq/payflow/internal/adapter/middleware"
	"github.com/payflowhq/payflow/internal/adapter/queue"
	"github.com/payflowhq/payflow/internal/adapter/storage"
	"github.com/payflowhq/payflow/internal/core/config"
	"github.com/payflowhq/payflow/internal/core/payment"
	"github.com/payflowhq/payflow/internal/core/worker"
)

func main() {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := storage.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	amqpConn, err := queue.Connect(cfg.AMQPURL)
	if err != nil {
		slog.Error("broker connection failed", "error", err)
		os.Exit(1)
	}

	publisher, err := queue.NewPublisher(amqpConn, cfg.SettlementQueue)
	if err != nil {
		slog.Error("publisher setup failed", "error", err)
		os.Exit(1)
	}

	accountRepo := storage.NewAccountRepository(dbPool)
	attemptRepo := storage.NewAttemptRepository(dbPool)

	paymentService := payment.NewService(accountRepo, attemptRepo, publisher, logger)

	accountHandler := &handler.AccountHandler{Repo: accountRepo}
	paymentHandler := &handler.PaymentHandler{Service: paymentService}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Only configured origins may call the gateway.
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
	}))

	api := app.Group("/v1")

	// Public
	api.Post("/accounts", accountHandler.CreateAccount)
	api.Post("/accounts/:id/keys", accountHandler.GenerateKey)

	// Protected
	private := api.Use(middleware.Protected(dbPool))
	private.Post("/payments", middleware.Idempotency(dbPool), paymentHandler.InitiatePayment)

	worker.StartReconciler(ctx, attemptRepo, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "env", cfg.Env, "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	<-stop
	slog.Info("shutting down server...")

	// Stop accepting requests, then the reconciler, then the clients.
	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	cancel()

	if err := publisher.Close(); err != nil {
		slog.Error("publisher close failed", "error", err)
	}
	if err := amqpConn.Close(); err != nil {
		slog.Error("broker connection close failed", "error", err)
	}
	dbPool.Close()

	slog.Info("server exited")
}
