package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage"
)

func main() {
	// Load .env file for local use (ignored when absent)
	cli.LoadEnvFile()

	os.Exit(run(os.Stdout, os.Stderr, os.Args[1:]))
}

// run executes one invocation and returns the process exit code: 0 on
// success, 1 when the command failed, 2 when the arguments are invalid.
func run(stdout, stderr io.Writer, args []string) int {
	cfg := config.Load()

	cmd, shouldExit, err := cli.Parse(args, stdout, cfg.DataFile)
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(stderr, exitErr.Message)
			return exitErr.Code
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if shouldExit {
		return 0
	}

	if err := cfg.Validate(); err != nil {
		reportConfigError(cfg, stderr, err)
		return 1
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger, closeLog, err := log.Open(log.Config{
		Level:     level,
		Component: log.ComponentApp,
		Console:   stderr,
		FilePath:  cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx := context.Background()
	logger.InfoContext(ctx, "Command started", log.FieldCommand, cmd.Name, log.FieldPath, cmd.File)

	if err := execute(ctx, cfg, logger, cmd, stdout); err != nil {
		fields := log.NewFields().
			WithOperation(cmd.Name).
			WithPath(cmd.File).
			WithError(err).
			WithErrorType(errorType(err))
		logger.ErrorContext(ctx, "Operation failed", fields.ToSlice()...)
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	return 0
}

// reportConfigError logs an invalid configuration at info level, to the log
// file when it can be opened and to the console otherwise.
func reportConfigError(cfg *config.Config, stderr io.Writer, err error) {
	logger, closeLog, openErr := log.Open(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentApp,
		Console:   stderr,
		FilePath:  cfg.LogFile,
	})
	if openErr != nil {
		logger, closeLog = log.New(log.Config{Component: log.ComponentApp, Console: stderr}), func() error { return nil }
	}
	defer closeLog()

	logger.Error("Configuration validation failed",
		log.NewFields().WithError(err).WithErrorType(log.ErrorTypeConfiguration).ToSlice()...)
	fmt.Fprintln(stderr, err)
}

// eventPublisher is the part of amqp.Publisher that execute relies on.
type eventPublisher interface {
	services.EventPublisher
	Close() error
}

var newPublisher = func(cfg *config.Config, logger *log.Logger) eventPublisher {
	return amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
}

// execute loads the record sequence, runs the handler and saves the result
// for mutating commands.
func execute(ctx context.Context, cfg *config.Config, logger *log.Logger, cmd *cli.Command, stdout io.Writer) error {
	store := storage.NewJSONFile(cmd.File, logger)

	var opts []services.Option
	if cfg.PublishingEnabled() && cmd.Mutates() {
		publisher := newPublisher(cfg, logger)
		defer publisher.Close()
		opts = append(opts, services.WithPublisher(publisher))
	}
	svc := services.NewExpenseService(logger, opts...)

	expenses, err := store.Load(ctx)
	if err != nil {
		return err
	}

	switch cmd.Name {
	case cli.CommandAdd:
		updated, added, err := svc.Add(ctx, expenses, cmd.Amount, cmd.Category, cmd.Note)
		if err != nil {
			return err
		}
		if err := store.Save(ctx, updated); err != nil {
			return err
		}
		svc.Notify(ctx, amqp.EventExpenseCreated, added)

	case cli.CommandList:
		return svc.List(ctx, stdout, expenses)

	case cli.CommandDelete:
		updated, removed, err := svc.Delete(ctx, expenses, cmd.ID)
		if err != nil {
			return err
		}
		if err := store.Save(ctx, updated); err != nil {
			return err
		}
		svc.Notify(ctx, amqp.EventExpenseDeleted, removed)

	case cli.CommandExport:
		n, err := export(ctx, logger, cmd.DB, expenses)
		if err != nil {
			return &core.PersistenceError{Path: cmd.DB, Err: err}
		}
		fmt.Fprintf(stdout, "Exported %d expenses to %s\n", n, cmd.DB)

	default:
		return fmt.Errorf("unsupported command %q", cmd.Name)
	}

	return nil
}

func export(ctx context.Context, logger *log.Logger, dbPath string, expenses []core.Expense) (int, error) {
	exporter, err := storage.NewSQLiteExporter(dbPath, logger)
	if err != nil {
		return 0, err
	}
	defer exporter.Close()

	return exporter.Export(ctx, expenses)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrDataCorruption), errors.Is(err, core.ErrPersistence):
		return log.ErrorTypeStorage
	default:
		return log.ErrorTypeInternal
	}
}
