package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vigil/internal/audit"
	"vigil/internal/config"
	"vigil/internal/constants"
	"vigil/internal/logger"
	"vigil/internal/quality"
	"vigil/pkg/bootstrap"
	"vigil/pkg/logging"
)

type runFlags struct {
	runID     string
	datasets  []string
	ephemeral bool
	failOnly  bool
}

// runCmd executes the catalog once, prints a report to stdout and exits
// with 0 when every check passed, 1 when any check failed and 2 when
// the engine itself faulted.
func runCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the check catalog once and print a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog()

			cfg, log, err := loadRuntime(earlyLog)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			code := executeRun(ctx, cfg, log, flags)
			_ = log.Sync()
			os.Exit(code)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.runID, "run-id", "", "Correlation ID for the run (defaults to a generated UUID)")
	cmd.Flags().StringSliceVar(&flags.datasets, "dataset", nil, "Restrict the run to the named datasets (repeatable)")
	cmd.Flags().BoolVar(&flags.ephemeral, "ephemeral", false, "Keep results in memory instead of the configured audit backend")
	cmd.Flags().BoolVar(&flags.failOnly, "fail-only", false, "Print only failed checks in the report")

	return cmd
}

// executeRun owns the whole one-shot lifecycle so its deferred cleanups
// have run by the time the caller exits the process.
func executeRun(ctx context.Context, cfg *config.Config, log logger.Logger, flags *runFlags) int {
	connector := bootstrap.NewDatabaseConnector(cfg, log)

	warehouse, err := connector.InitWarehouse(ctx)
	if err != nil {
		log.Errorw("Failed to connect to warehouse", "error", err)
		return constants.ExitEngineFault
	}
	if warehouse == nil {
		log.Error("database.warehouse is required")
		return constants.ExitEngineFault
	}
	defer warehouse.Close()

	backend := cfg.Audit.Backend
	if flags.ephemeral {
		backend = "memory"
	}

	history, auditDB, mongoClient, err := buildAuditBackend(ctx, cfg, connector, warehouse, backend)
	if err != nil {
		log.Errorw("Failed to open audit backend", "backend", backend, "error", err)
		return constants.ExitEngineFault
	}
	defer func() {
		if auditDB != nil && auditDB != warehouse {
			auditDB.Close()
		}
		if mongoClient != nil {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if disconnectErr := mongoClient.Disconnect(disconnectCtx); disconnectErr != nil {
				log.Warnw("MongoDB disconnect failed", "error", disconnectErr)
			}
		}
	}()

	coordinator, catalog, err := buildEngine(cfg, warehouse, history, log)
	if err != nil {
		log.Errorw("Failed to build engine", "error", err)
		return constants.ExitEngineFault
	}
	log.Infow("Check catalog loaded", "rules", catalog.Len(), "datasets", catalog.Datasets())

	runner := &announcingRunner{
		inner:       coordinator,
		outputTopic: outputTopic(cfg),
		log:         log,
	}

	if cfg.Audit.CacheSummary && !flags.ephemeral {
		redisClient, redisErr := connector.InitRedis(ctx)
		if redisErr != nil {
			log.Warnw("Redis connection failed, latest-run cache skipped", "error", redisErr)
		} else if redisClient != nil {
			defer redisClient.Close()
			ttl := time.Duration(cfg.Database.Redis.TTLSeconds) * time.Second
			runner.cache = audit.NewSummaryCache(redisClient, ttl)
		}
	}

	if cfg.Audit.PublishSummary && cfg.Broker.Type != "" && !flags.ephemeral {
		base := bootstrap.NewBase(cfg, log)
		if brokerErr := base.InitProducerOnly(); brokerErr != nil {
			log.Warnw("Broker connection failed, run event skipped", "error", brokerErr)
		} else {
			defer base.Producer.Close()
			runner.producer = base.Producer
			runner.publish = true
		}
	}

	batch, runErr := runner.Run(ctx, quality.RunOptions{
		RunID:    flags.runID,
		Datasets: flags.datasets,
	})
	if batch == nil {
		log.Errorw("Validation run failed", "error", runErr)
		return constants.ExitEngineFault
	}

	results := batch.Results
	if flags.failOnly {
		results = quality.FailedOnly(results)
	}

	if reportErr := quality.WriteReport(os.Stdout, results); reportErr != nil {
		log.Errorw("Failed to write report", "error", reportErr)
		return constants.ExitEngineFault
	}
	fmt.Fprintln(os.Stdout)
	if summaryErr := quality.WriteSummary(os.Stdout, quality.Summarize(batch)); summaryErr != nil {
		log.Errorw("Failed to write summary", "error", summaryErr)
		return constants.ExitEngineFault
	}

	if runErr != nil {
		log.Errorw("Run completed but results were not persisted", "error", runErr)
		return constants.ExitEngineFault
	}
	if batch.FailedCount() > 0 {
		return constants.ExitChecksFailed
	}
	return constants.ExitAllPassed
}
