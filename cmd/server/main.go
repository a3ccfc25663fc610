package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"

	"github.com/lprior-repo/orderflow/internal/config"
	"github.com/lprior-repo/orderflow/internal/engine"
	"github.com/lprior-repo/orderflow/internal/escalate"
	"github.com/lprior-repo/orderflow/internal/httpapi"
	"github.com/lprior-repo/orderflow/internal/inventory"
	"github.com/lprior-repo/orderflow/internal/notification"
	"github.com/lprior-repo/orderflow/internal/observability"
	"github.com/lprior-repo/orderflow/internal/order"
	"github.com/lprior-repo/orderflow/internal/payment"
	"github.com/lprior-repo/orderflow/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("loading configuration failed", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	tp, err := observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err.Error())
		}
	}()

	execStore, productStore, alertSink, err := buildBackends(ctx, cfg, log)
	if err != nil {
		return err
	}

	eng := engine.New(
		buildInventory(cfg),
		buildPayment(cfg),
		buildNotifier(cfg),
		engine.WithLogger(log),
		engine.WithStore(execStore),
		engine.WithEscalator(escalate.New(alertSink, log)),
		engine.WithValidator(rulesValidator{order.Rules{MaxTotalAmount: cfg.Workflow.MaxTotalAmount}}),
		engine.WithPolicies(
			policyFrom(cfg.Workflow.Validation),
			policyFrom(cfg.Workflow.Inventory),
			policyFrom(cfg.Workflow.Payment),
			policyFrom(cfg.Workflow.Notification),
		),
	)

	g := gin.New()
	g.Use(gin.Recovery())
	httpapi.NewHandler(eng, execStore, productStore, log).Register(g, cfg.AuthToken)

	srv := &http.Server{Addr: cfg.Addr, Handler: g}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "storage", cfg.Storage.Mode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func buildBackends(ctx context.Context, cfg *config.Config, log *slog.Logger) (engine.ExecutionStore, store.ProductStore, escalate.Sink, error) {
	var sink escalate.Sink = escalate.LogSink{Log: log}

	if cfg.Storage.Mode == "dynamodb" || cfg.Alerts.TopicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Alerts.TopicARN != "" {
			sink = escalate.NewSNSSink(sns.NewFromConfig(awsCfg), cfg.Alerts.TopicARN)
		}
		if cfg.Storage.Mode == "dynamodb" {
			ddb := dynamodb.NewFromConfig(awsCfg)
			return store.NewDynamoExecutionStore(ddb, cfg.Storage.ExecutionsTable),
				store.NewDynamoProductStore(ddb, cfg.Storage.ProductsTable),
				sink, nil
		}
	}

	return store.NewMemoryExecutionStore(), store.NewMemoryProductStore(), sink, nil
}

func buildInventory(cfg *config.Config) inventory.Checker {
	if cfg.Inventory.BaseURL != "" {
		return inventory.NewClient(cfg.Inventory.BaseURL, time.Duration(cfg.Inventory.TimeoutSeconds)*time.Second)
	}
	return inventory.NewSimulator(0.15, 0.02, time.Now().UnixNano())
}

func buildPayment(cfg *config.Config) payment.Processor {
	if cfg.Payment.BaseURL != "" {
		return payment.NewClient(cfg.Payment.BaseURL, time.Duration(cfg.Payment.TimeoutSeconds)*time.Second)
	}
	return payment.NewSimulator(0.05, 0.05, time.Now().UnixNano())
}

func buildNotifier(cfg *config.Config) notification.Dispatcher {
	if cfg.Notifier.BaseURL != "" {
		return notification.NewClient(cfg.Notifier.BaseURL, time.Duration(cfg.Notifier.TimeoutSeconds)*time.Second)
	}
	return notification.NewSimulator(0.08, time.Now().UnixNano())
}

func policyFrom(rc config.RetryConfig) engine.Policy {
	return engine.Policy{
		MaxAttempts: rc.MaxAttempts,
		Delay:       time.Duration(rc.DelayMS) * time.Millisecond,
		Backoff:     engine.BackoffExponential,
		Jitter:      rc.Jitter,
		Timeout:     time.Duration(rc.TimeoutSeconds) * time.Second,
	}
}

// rulesValidator adapts the configured rule set to the engine's Validator
// contract.
type rulesValidator struct {
	rules order.Rules
}

func (v rulesValidator) Validate(_ context.Context, o order.Order) (order.ValidationResult, error) {
	return v.rules.Validate(o), nil
}
