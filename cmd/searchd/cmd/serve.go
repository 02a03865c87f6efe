package cmd

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hideoutdb/searchd/internal/api"
	"github.com/hideoutdb/searchd/internal/config"
	"github.com/hideoutdb/searchd/internal/index"
	"github.com/hideoutdb/searchd/internal/logging"
	"github.com/hideoutdb/searchd/internal/state"
	"github.com/hideoutdb/searchd/internal/upstream"
	"github.com/hideoutdb/searchd/pkg/version"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the search server",
		Long: `Start the HTTP server and the background controller that keeps the
index synchronized with the upstream catalog.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Format: logging.Format(cfg.Log.Format),
	}, nil)

	slog.Info("starting searchd",
		"version", version.Short(),
		"addr", cfg.ListenAddr(),
		"index_dir", cfg.Search.IndexDir,
	)

	engine, err := index.New(index.Options{
		Dir:      cfg.Search.IndexDir,
		Language: index.Language(cfg.Search.Language),
	})
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	client := upstream.NewClient(upstream.Config{
		Origin:  cfg.Upstream.Origin,
		Token:   cfg.Upstream.Token,
		Timeout: cfg.Upstream.Timeout,
	})

	controller := state.NewController(client, engine, cfg.Search.UpdateInterval)

	server, err := api.NewServer(cfg, engine, controller.Status())
	if err != nil {
		return err
	}
	httpServer := server.HTTPServer()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return controller.Run(ctx)
	})

	g.Go(func() error {
		slog.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
