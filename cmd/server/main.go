package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Skufu/symptomsense/internal/app"
	"github.com/Skufu/symptomsense/internal/config"
	"github.com/Skufu/symptomsense/internal/logging"
	"github.com/Skufu/symptomsense/internal/server"
	"github.com/Skufu/symptomsense/internal/symptoms"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	cfgFile string
	v       *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "symptomsense",
		Short: "Symptom-to-disease prediction service",
		Long: `symptomsense maps free-text symptoms to the feature columns of a
pretrained classifier and returns ranked disease predictions with a short
explanation. Without a subcommand it starts the HTTP server.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.cfgFile != "" {
				c.v.SetConfigFile(c.cfgFile)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "YAML config file (environment variables take precedence)")
	root.PersistentFlags().String("port", "", "listen port (or set PORT)")
	_ = c.v.BindPFlag("port", root.PersistentFlags().Lookup("port"))

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "suggest <query>",
			Short: "Print symptom suggestions for a partial query",
			Args:  cobra.ExactArgs(1),
			RunE:  c.suggest,
		},
		&cobra.Command{
			Use:   "predict <symptom>...",
			Short: "Run one prediction and print the JSON result",
			Args:  cobra.MinimumNArgs(1),
			RunE:  c.predict,
		},
	)
	return root
}

func (c *cli) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.v)
	if err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger, nil
}

func (c *cli) serve(ctx context.Context) error {
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.GinMode)
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.Close()

	staticRoot := server.DetectStaticRoot(cfg.StaticDir)
	router := server.NewRouter(a.Deps(), server.Options{
		CORSOrigins:    cfg.CORSOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		StaticRoot:     staticRoot,
		ExtractTimeout: cfg.ExtractTimeout,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("server listening", zap.String("addr", srv.Addr))
	return waitForShutdown(srv, logger, errCh)
}

func waitForShutdown(srv *http.Server, logger *zap.Logger, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func (c *cli) suggest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.v)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	table, err := symptoms.LoadSynonymTable(cfg.SynonymsPath)
	if err != nil {
		return err
	}
	out := symptoms.NewSuggestionIndex(table).Suggest(args[0], symptoms.DefaultSuggestions)
	return writeJSON(cmd, map[string][]string{"suggestions": out})
}

func (c *cli) predict(cmd *cobra.Command, args []string) error {
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	phrases := make([]string, 0, len(args))
	for _, arg := range args {
		for _, p := range strings.Split(arg, ",") {
			if p = strings.TrimSpace(p); p != "" {
				phrases = append(phrases, p)
			}
		}
	}

	res, err := a.Predictor.Predict(ctx, phrases)
	if err != nil {
		return err
	}
	return writeJSON(cmd, res)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
