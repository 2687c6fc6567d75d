// Command manifest_parser extracts container and AWB tables from air cargo
// manifest PDFs.
//
// Usage:
//
//	manifest_parser extract manifest.pdf [options]
//	manifest_parser lines manifest.pdf [-trace]
//	manifest_parser serve [options]
//	manifest_parser history [options]
//
// Commands:
//
//	extract   Parse one manifest and write the container table as JSON, CSV
//	          or XLSX. A filter list keeps only the named containers. The
//	          result can be archived to SQLite, PostgreSQL or ClickHouse and
//	          announced on NATS.
//	lines     Print the extracted text lines of every page. With -trace each
//	          line shows how the classifier read it.
//	serve     Run the HTTP API (upload, archive, reports, /metrics).
//	history   List manifests archived in SQLite.
//
// Environment:
//
//	MANIFEST_VARIANT        loose | strict (default: loose)
//	MANIFEST_FLUSH_POLICY   always | non-empty (default: always)
//	MANIFEST_EXTRACT_MODE   fragments | rows | plain (default: fragments)
//	MANIFEST_HEADER_PAGES   pages scanned for the flight header (default: 3)
//	MANIFEST_SORT_BY_PIECES sort the table by total pieces
//	SQLITE_PATH             archive database
//	POSTGRES_*, CLICKHOUSE_*  connection settings (HOST, PORT, DATABASE, USER, PASSWORD)
//	NATS_URL, NATS_SUBJECT  event publishing
//	API_PORT, API_AUTH, API_KEYS
//	LOG_LEVEL, LOG_DEVELOPMENT
//
// A .env file in the working directory is loaded when present; flags win over
// the environment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"manifest_parser/internal/config"
)

var (
	verbose bool
	envFile string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "manifest_parser",
	Short: "Extract container and AWB tables from cargo manifest PDFs",
	Long: `manifest_parser reads an air cargo manifest PDF and rebuilds its
flight -> container -> AWB hierarchy as a table with per-container totals
and a piece-count histogram.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		var err error
		cfg, err = config.Load(files...)
		if err != nil {
			return err
		}

		logger, err = newLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newLogger builds a JSON production logger, or a console development logger
// at debug level when -verbose or LOG_DEVELOPMENT is set.
func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	if verbose || lc.Development {
		zc := zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return zc.Build()
	}

	zc := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load (default: .env when present)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(linesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
