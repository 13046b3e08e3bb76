package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/sunnyweather/internal/api/http"
	"github.com/i474232898/sunnyweather/internal/config"
	"github.com/i474232898/sunnyweather/internal/logging"
	"github.com/i474232898/sunnyweather/internal/render"
	"github.com/i474232898/sunnyweather/internal/scheduler"
	"github.com/i474232898/sunnyweather/internal/screen"
	"github.com/i474232898/sunnyweather/internal/sky"
	"github.com/i474232898/sunnyweather/internal/store"
	"github.com/i474232898/sunnyweather/internal/weather"
	"github.com/i474232898/sunnyweather/internal/weather/providers"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sunnyweather",
		Short:         "Current weather, forecast and life index for a location",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newShowCmd(), newSkiesCmd())
	return root
}

// deps bundles the collaborators shared by the commands.
type deps struct {
	cfg     *config.AppConfig
	logger  *zap.Logger
	service *weather.Service
	close   func()
}

func newDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var (
		snapshots  weather.Store
		closeStore = func() error { return nil }
	)
	switch cfg.StoreDriver {
	case "sqlite":
		db, err := store.NewSQLiteStore(cfg.StorePath, cfg.StoreMaxHistory, cfg.StoreMaxAge, logger)
		if err != nil {
			return nil, err
		}
		snapshots, closeStore = db, db.Close
	default:
		snapshots = store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	}

	if cfg.CaiyunToken == "" {
		logger.Warn("CAIYUN_TOKEN is not set; every fetch will fail")
	}
	provs := []weather.Provider{
		providers.NewCaiyunProvider(httpClient, cfg.CaiyunToken, cfg.CaiyunBaseURL),
	}

	return &deps{
		cfg:     cfg,
		logger:  logger,
		service: weather.NewService(snapshots, provs, logger),
		close: func() {
			if err := closeStore(); err != nil {
				logger.Warn("failed to close store", zap.Error(err))
			}
			_ = logger.Sync()
		},
	}, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newDeps()
			if err != nil {
				return err
			}
			defer rt.close()
			return serve(rt)
		},
	}
}

func serve(rt *deps) error {
	logger := rt.logger

	screens := screen.NewRegistry(rt.service, logger)
	defer screens.CloseAll()

	sched := scheduler.New(screens, rt.cfg.AutoRefreshInterval, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(true)
	httpapi.RegisterRoutes(app, rt.service, screens)

	go func() {
		logger.Info("server listening",
			zap.String("port", rt.cfg.Port),
			zap.Strings("providers", rt.service.Providers()))
		if err := app.Listen(":" + rt.cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}

func newShowCmd() *cobra.Command {
	var (
		lng, lat, place, output string
		timeout                 time.Duration
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Fetch and print the weather for a location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}

			rt, err := newDeps()
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			snap, err := rt.service.Fetch(ctx, lng, lat)
			if err != nil {
				return fmt.Errorf("failed to fetch weather information: %w", err)
			}

			model, err := render.Project(snap, place)
			if err != nil {
				return fmt.Errorf("invalid weather data: %w", err)
			}
			return writeModel(cmd.OutOrStdout(), model, output)
		},
	}

	cmd.Flags().StringVar(&lng, "lng", "", "Longitude")
	cmd.Flags().StringVar(&lat, "lat", "", "Latitude")
	cmd.Flags().StringVarP(&place, "place", "p", "", "Place name shown with current conditions")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Fetch timeout")
	return cmd
}

func newSkiesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "skies",
		Short: "List the sky codes and their display metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			return writeSkies(cmd.OutOrStdout(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	return cmd
}

func checkOutput(output string) error {
	switch output {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("unknown output format %q", output)
}

func writeModel(w io.Writer, model render.Model, output string) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(model)
	}
	return model.WriteText(w)
}

func writeSkies(w io.Writer, output string) error {
	type entry struct {
		Code sky.Code `json:"code"`
		sky.Descriptor
	}

	var entries []entry
	for _, code := range sky.Codes() {
		d, err := sky.Classify(code)
		if err != nil {
			return err
		}
		entries = append(entries, entry{Code: code, Descriptor: d})
	}

	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tINFO\tICON\tBACKGROUND")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Code, e.Info, e.Icon, e.Background)
	}
	return tw.Flush()
}
