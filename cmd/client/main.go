package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/wordchain-client/internal/config"
	"github.com/DoyleJ11/wordchain-client/internal/conn"
	"github.com/DoyleJ11/wordchain-client/internal/engine"
	"github.com/DoyleJ11/wordchain-client/internal/httpapi"
	"github.com/DoyleJ11/wordchain-client/internal/hub"
	"github.com/DoyleJ11/wordchain-client/internal/logging"
	"github.com/DoyleJ11/wordchain-client/internal/session"
	"github.com/DoyleJ11/wordchain-client/internal/store"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &config.Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wordchain-client",
		Short:   "Headless word-chain game client with a local renderer bridge.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	config.Register(cmd.Flags(), cfg, ".env")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	kv, closeKV, err := openKV(cfg)
	if err != nil {
		return err
	}
	defer closeKV()

	layout, err := engine.LayoutByName(cfg.Layout)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mgr := conn.NewManager(ctx, conn.Options{
		ServerURL:      cfg.Server,
		ReconnectDelay: cfg.ReconnectDelay,
		DialTimeout:    cfg.DialTimeout,
		WriteTimeout:   cfg.WriteTimeout,
	}, conn.WebsocketDialer{}, conn.RealClock, log)

	h := hub.NewHub(ctx)

	opts := session.DefaultOptions()
	opts.BannerTTL = cfg.BannerTTL
	opts.AutoResume = cfg.AutoResume
	opts.Layout = layout

	sess := session.New(ctx, session.Deps{
		Conn:      mgr,
		Rooms:     conn.NewRoomClient(cfg.Server, &http.Client{Timeout: cfg.DialTimeout}),
		Store:     store.New(kv, log),
		Publisher: h,
		Clock:     conn.RealClock,
		Log:       log.Named("session"),
	}, opts)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.SetupRoutes(h, sess.Inbox(), cfg.Server, log.Named("bridge")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("renderer bridge listening", zap.String("addr", cfg.Listen), zap.String("server", cfg.Server))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-sess.Done():
		}
		cancel()
		<-sess.Done()
		<-h.Done()

		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("stopped")
	return err
}

// openKV picks the Postgres store when a DSN is configured, the JSON file
// otherwise.
func openKV(cfg *config.Config) (store.KV, func(), error) {
	if cfg.StoreDSN != "" {
		kv, err := store.OpenPostgres(cfg.StoreDSN, cfg.Profile)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	}
	kv, err := store.NewFileKV(cfg.ResolvedStorePath())
	if err != nil {
		return nil, nil, err
	}
	return kv, func() {}, nil
}
