package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pharmassist/synthdata/internal/config"
	"github.com/pharmassist/synthdata/internal/domain/casebundle"
	"github.com/pharmassist/synthdata/internal/domain/rxpdf"
	"github.com/pharmassist/synthdata/internal/domain/simulation"
	"github.com/pharmassist/synthdata/internal/platform/api"
	"github.com/pharmassist/synthdata/internal/platform/blobstore"
	"github.com/pharmassist/synthdata/internal/platform/schema"
	"github.com/pharmassist/synthdata/internal/platform/sink"
	"github.com/pharmassist/synthdata/internal/platform/telemetry"
	"github.com/pharmassist/synthdata/internal/platform/warehouse"
)

var errDatasetInvalid = errors.New("dataset failed validation")

// metricsFile holds the run's Prometheus textfile next to the manifest.
const metricsFile = "metrics.prom"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logFailure(newLogger(os.Getenv("ENV"), os.Getenv("LOG_LEVEL")), err)
		os.Exit(1)
	}
}

func logFailure(logger zerolog.Logger, err error) {
	logger.Error().Err(err).Msg("command failed")
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pharmassist-synthdata",
		Short:         "Deterministic synthetic pharmacy data generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(yearCmd())
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(rxPDFCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd
}

func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// setup loads and validates the configuration for cmd.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

func addBlobFlags(cmd *cobra.Command) {
	cmd.Flags().String("blob", "fs", "blob store driver (fs, s3, memory)")
	cmd.Flags().String("blob-root", "./artifacts", "root directory of the fs blob store")
	cmd.Flags().String("s3-bucket", "", "bucket of the s3 blob store")
	cmd.Flags().String("s3-region", "us-east-1", "region of the s3 blob store")
	cmd.Flags().String("s3-endpoint", "", "custom endpoint of an s3-compatible store")
	cmd.Flags().String("prefix", "datasets", "key prefix under which datasets are published")
}

// ---------------------------------------------------------------------------
// year
// ---------------------------------------------------------------------------

func yearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "year",
		Short: "Generate one pharmacy-year of patients, visits, events and inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			publish, _ := cmd.Flags().GetBool("publish")
			progress, _ := cmd.Flags().GetBool("progress")
			return runYear(cmd.Context(), cfg, logger, publish, progress)
		},
	}
	cmd.Flags().Int64("seed", 0, "run seed")
	cmd.Flags().String("pharmacy", "paris15", "pharmacy parameter preset")
	cmd.Flags().Int("year", 2025, "calendar year to simulate")
	cmd.Flags().String("out", "./out", "output directory")
	cmd.Flags().String("mode", "full", "full or compact (alias mini)")
	cmd.Flags().Bool("publish", false, "upload the dataset to the blob store when done")
	cmd.Flags().Bool("progress", false, "show a progress bar on stderr")
	addBlobFlags(cmd)
	return cmd
}

func runYear(ctx context.Context, cfg *config.Config, logger zerolog.Logger, publish, progress bool) error {
	opts, err := cfg.RunOptions()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ds, err := sink.Open(cfg.OutDir, simulation.Streams...)
	if err != nil {
		return err
	}

	metrics := telemetry.NewProvider(false)
	obs := simulation.Observers{metrics}
	if progress {
		obs = append(obs, newProgress(os.Stderr, opts))
	}

	logger.Info().
		Int64("seed", opts.Seed).
		Str("pharmacy", opts.Pharmacy).
		Int("year", opts.Year).
		Str("mode", string(opts.Mode)).
		Str("out", cfg.OutDir).
		Msg("generation started")

	start := time.Now()
	sum, err := simulation.Generate(ctx, opts, ds, simulation.WithObserver(obs))
	metrics.RecordRun(string(opts.Mode), time.Since(start), err)
	infos, closeErr := ds.Close()
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if closeErr != nil {
		return closeErr
	}

	m := sink.Manifest{
		DatasetID: sink.DatasetID(opts.Seed, opts.Pharmacy, opts.Year, string(opts.Mode)),
		Seed:      opts.Seed,
		Pharmacy:  opts.Pharmacy,
		Year:      opts.Year,
		Mode:      string(opts.Mode),
		Streams:   infos,
	}
	if err := sink.WriteManifest(cfg.OutDir, m); err != nil {
		return err
	}
	if err := metrics.WriteTextfile(filepath.Join(cfg.OutDir, metricsFile)); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}

	for _, s := range infos {
		logger.Debug().Str("stream", s.Name).Int64("records", s.Records).Str("sha256", s.SHA256).Msg("stream written")
	}
	logger.Info().
		Str("dataset_id", m.DatasetID).
		Int("patients", sum.Patients).
		Int64("visits", sum.Visits).
		Int64("events", sum.Events).
		Int("open_days", sum.OpenDays).
		Dur("elapsed", time.Since(start)).
		Msg("generation finished")

	if !publish {
		return nil
	}
	return runPublish(ctx, cfg, logger, cfg.OutDir)
}

// ---------------------------------------------------------------------------
// case
// ---------------------------------------------------------------------------

func caseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Print one case bundle as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			pretty, _ := cmd.Flags().GetBool("pretty")
			out, _ := cmd.Flags().GetString("out")

			bundle := casebundle.Generate(cfg.Seed)
			if issues := schema.ValidateCaseBundle(bundle); len(issues) > 0 {
				return fmt.Errorf("case %d: %d schema issues, first: %s %s", cfg.Seed, len(issues), issues[0].Path, issues[0].Message)
			}
			var body []byte
			if pretty {
				body, err = sink.CanonicalIndent(bundle)
			} else {
				body, err = sink.Canonical(bundle)
			}
			if err != nil {
				return err
			}
			body = append(body, '\n')

			if out == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			return os.WriteFile(out, body, 0o644)
		},
	}
	cmd.Flags().Int64("seed", 0, "case seed")
	cmd.Flags().Bool("pretty", false, "indent the JSON output")
	cmd.Flags().String("out", "", "write to this file instead of stdout")
	return cmd
}

// ---------------------------------------------------------------------------
// rx-pdf
// ---------------------------------------------------------------------------

func rxPDFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rx-pdf",
		Short: "Write the synthetic prescription PDF suite and its manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env, cfg.LogLevel)
			seeds, _ := cmd.Flags().GetInt64Slice("seeds")

			dir := cfg.OutDir
			if !cmd.Flags().Changed("out") {
				dir = filepath.Join(cfg.OutDir, "rx_pdf_suite")
			}
			m, err := rxpdf.WriteSuite(dir, cfg.Seed, seeds)
			if err != nil {
				return err
			}
			logger.Info().
				Str("dir", dir).
				Int64("seed", m.Seed).
				Ints64("case_seeds", m.CaseSeeds).
				Int("files", len(m.Files)).
				Msg("prescription suite written")
			return nil
		},
	}
	cmd.Flags().Int64("seed", 0, "suite seed (42 covers the red-flag and low-information fixtures)")
	cmd.Flags().Int64Slice("seeds", nil, "explicit case seeds (default: seed, seed+59, seed+60)")
	cmd.Flags().String("out", "", "suite directory (default: <OUT_DIR>/rx_pdf_suite)")
	return cmd
}

// ---------------------------------------------------------------------------
// validate
// ---------------------------------------------------------------------------

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Audit a dataset: schemas, forbidden keys, referential integrity, checksums",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env, cfg.LogLevel)

			report, err := schema.Audit(cfg.OutDir)
			if err != nil {
				return err
			}
			body, err := sink.CanonicalIndent(report)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", body); err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("%w: %d issues", errDatasetInvalid, int64(len(report.Issues))+report.Dropped)
			}
			logger.Info().Str("dir", cfg.OutDir).Interface("counts", report.Counts).Msg("dataset valid")
			return nil
		},
	}
	cmd.Flags().String("dir", "./out", "dataset directory")
	return cmd
}

// ---------------------------------------------------------------------------
// load
// ---------------------------------------------------------------------------

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-load a dataset into postgres, sqlite or mysql",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runLoad(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().String("dir", "./out", "dataset directory")
	cmd.Flags().String("driver", "sqlite", "postgres, sqlite or mysql")
	cmd.Flags().String("dsn", "", "connection string (file path for sqlite)")
	return cmd
}

func runLoad(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	dialect, err := warehouse.ParseDialect(cfg.LoadDriver)
	if err != nil {
		return err
	}
	l, err := warehouse.Open(ctx, warehouse.Options{
		Driver:   dialect,
		DSN:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	logger.Info().Str("driver", string(dialect)).Str("dir", cfg.OutDir).Msg("loading dataset")
	res, err := warehouse.Load(ctx, l, cfg.OutDir, logger)
	if err != nil {
		return err
	}
	logger.Info().Interface("tables", res.Tables).Msg("dataset loaded")
	return nil
}

// ---------------------------------------------------------------------------
// publish
// ---------------------------------------------------------------------------

func publishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload a finished dataset to the blob store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runPublish(cmd.Context(), cfg, logger, cfg.OutDir)
		},
	}
	cmd.Flags().String("dir", "./out", "dataset directory")
	addBlobFlags(cmd)
	return cmd
}

func runPublish(ctx context.Context, cfg *config.Config, logger zerolog.Logger, dir string) error {
	store, err := blobstore.Open(ctx, cfg.Blob())
	if err != nil {
		return err
	}
	published, err := blobstore.Publish(ctx, store, dir, cfg.BlobPrefix)
	for _, p := range published {
		logger.Info().
			Str("key", p.Info.Key).
			Int64("size_bytes", p.Info.Size).
			Bool("skipped", p.Skipped).
			Str("driver", string(store.Driver())).
			Msg("artifact published")
	}
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().String("port", "8000", "listen port")
	addBlobFlags(cmd)
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	store, err := blobstore.Open(ctx, cfg.Blob())
	if err != nil {
		return err
	}
	if cfg.AuthSigningKey == "" {
		logger.Warn().Msg("AUTH_SIGNING_KEY is not set: /api/v1 is unauthenticated")
	}

	e := api.NewServer(api.Deps{
		Logger:     logger,
		Store:      store,
		Metrics:    telemetry.NewProvider(true),
		SigningKey: []byte(cfg.AuthSigningKey),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("blob_driver", string(store.Driver())).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
