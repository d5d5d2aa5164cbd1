package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/mikey/llm-mail-triage/internal/api"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/di"
	"github.com/mikey/llm-mail-triage/internal/dispatch"
	"github.com/mikey/llm-mail-triage/internal/factory"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	poller *dispatch.Poller,
	transport *factory.Transport,
	server *api.Server,
	oracle core.Oracle,
	ledger core.Ledger,
) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the SMTP intake feeding the inbox
	if transport.Intake != nil {
		if err := transport.Intake.Start(); err != nil {
			return fmt.Errorf("failed to start SMTP intake: %w", err)
		}
		defer func() {
			if err := transport.Intake.Stop(); err != nil {
				logger.Error("Failed to stop SMTP intake", zap.Error(err))
			}
		}()
	}

	// Start the ops API
	if cfg.GetAPI().Enabled {
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to stop API server", zap.Error(err))
			}
		}()
	}

	logger.Info("Mail triage started",
		zap.String("provider", cfg.GetLLM().Provider),
		zap.String("transport", cfg.GetTransport().Type),
		zap.Bool("dry_run", cfg.GetDispatcher().DryRun))

	err := poller.Run(ctx)
	logger.Info("Shutting down...")

	// Close any resources that need closing
	if closer, ok := oracle.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close oracle client", zap.Error(err))
		}
	}
	if stopper, ok := ledger.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
