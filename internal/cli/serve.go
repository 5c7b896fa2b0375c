package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/storyfold/pkg/api"
	"github.com/matzehuels/storyfold/pkg/cache"
	"github.com/matzehuels/storyfold/pkg/config"
	"github.com/matzehuels/storyfold/pkg/pipeline"
	"github.com/matzehuels/storyfold/pkg/store"
)

// shutdownTimeout bounds how long serve waits for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 10 * time.Second

// newServeCmd creates the serve command, which runs the storyfold HTTP
// API until interrupted.
func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storyfold HTTP API",
		Long: `Serve starts the HTTP API for folding stories and browsing stored
pathways. Configuration is read from a TOML file plus STORYFOLD_*
environment overrides; with no config file, sensible defaults apply
(file cache, in-memory pathway store, port 8080).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			c, err := serveCache(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}

			st, err := serveStore(ctx, cfg, logger)
			if err != nil {
				_ = c.Close()
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = st.Close(closeCtx)
			}()

			runner := pipeline.NewRunner(c, nil, logger)
			defer runner.Close()

			server := api.NewServer(runner, st, api.FoldDefaults{
				Policy:       cfg.Fold.Policy,
				Rerank:       cfg.Fold.Rerank,
				HideIntro:    cfg.Fold.HideIntro,
				Ignore:       cfg.Fold.Ignore,
				ReduceBudget: cfg.Fold.ReduceBudget,
			}, logger)

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- httpServer.ListenAndServe()
			}()

			logger.Info("listening", "addr", cfg.Server.Addr, "cache", cfg.Cache.Kind)
			printInfo("Serving on %s", cfg.Server.Addr)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

// serveCache opens the cache backend named by the config.
func serveCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Kind {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	default:
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}

// serveStore opens the pathway store. Without a Mongo URI the store is
// in-memory and pathways do not survive restarts.
func serveStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error) {
	if cfg.Store.MongoURI != "" {
		st, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database)
		if err != nil {
			return nil, fmt.Errorf("connect store: %w", err)
		}
		return st, nil
	}
	logger.Warn("no mongo_uri configured, pathways are stored in memory only")
	return store.NewMemoryStore(), nil
}
