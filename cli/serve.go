package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"records-api/config"
	"records-api/logging"
	"records-api/models"
	"records-api/routes"
	"records-api/store"
	"records-api/uploads"
)

type serveOptions struct {
	configPath string
	addr       string
}

func newServeCommand(out io.Writer) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Example: "  records-api serve\n" +
			"  records-api serve --config records.toml --addr :9000",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, out, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a TOML config file (default $RECORDS_CONFIG_PATH)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}

func runServe(ctx context.Context, out io.Writer, opts serveOptions) error {
	cfg, err := config.Load(config.LoadOptions{ConfigPath: opts.configPath})
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	logger, logCloser, err := logging.New(cfg.Logging, out)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	mongoConn := config.NewMongo(cfg.Mongo)
	db, err := mongoConn.Database(ctx)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
		defer cancel()
		if err := mongoConn.Disconnect(disconnectCtx); err != nil {
			logger.Warn("disconnect MongoDB", slog.Any("error", err))
		}
	}()

	storeOpts := []store.Option{store.WithLogger(logger)}
	rdb, err := config.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		storeOpts = append(storeOpts, store.WithCache(rdb, cfg.Redis.TTL))
		logger.Info("record cache enabled", slog.String("redis_addr", cfg.Redis.Addr), slog.Duration("ttl", cfg.Redis.TTL))
	}

	files, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
	if err != nil {
		return err
	}

	router, err := routes.SetupRoutes(routes.Dependencies{
		Items:       store.NewCollection[models.Item](db, models.ItemSchema.Collection, storeOpts...),
		Users:       store.NewCollection[models.User](db, models.UserSchema.Collection, storeOpts...),
		LegacyItems: store.NewCollection[bson.M](db, models.ItemSchema.Collection, storeOpts...),
		Uploads:     files,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", slog.String("addr", srv.Addr), slog.String("database", cfg.Mongo.Database))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
