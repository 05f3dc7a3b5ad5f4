package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/config"
	"github.com/zeewalex59-ux/shopelitesource/internal/db"
	"github.com/zeewalex59-ux/shopelitesource/internal/faq"
	"github.com/zeewalex59-ux/shopelitesource/internal/httpserver"
	"github.com/zeewalex59-ux/shopelitesource/internal/jobs"
	"github.com/zeewalex59-ux/shopelitesource/internal/logging"
	"github.com/zeewalex59-ux/shopelitesource/internal/migrate"
	"github.com/zeewalex59-ux/shopelitesource/internal/realtime"
	cartrepo "github.com/zeewalex59-ux/shopelitesource/internal/repository/cart"
	productrepo "github.com/zeewalex59-ux/shopelitesource/internal/repository/product"
	reviewrepo "github.com/zeewalex59-ux/shopelitesource/internal/repository/review"
	sessionrepo "github.com/zeewalex59-ux/shopelitesource/internal/repository/session"
	wishlistrepo "github.com/zeewalex59-ux/shopelitesource/internal/repository/wishlist"
	adminsvc "github.com/zeewalex59-ux/shopelitesource/internal/service/admin"
	cartsvc "github.com/zeewalex59-ux/shopelitesource/internal/service/cart"
	reviewsvc "github.com/zeewalex59-ux/shopelitesource/internal/service/review"
	sessionsvc "github.com/zeewalex59-ux/shopelitesource/internal/service/session"
	wishlistsvc "github.com/zeewalex59-ux/shopelitesource/internal/service/wishlist"
	"github.com/zeewalex59-ux/shopelitesource/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("api stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	if err := migrate.ApplyLogged(ctx, dbpool, logger); err != nil {
		return err
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	hub := realtime.NewHub()
	listener := realtime.NewListener(dbpool, cfg.RealtimeChannel, productRepo, hub, logger)
	views := catalog.NewViews(hub, productRepo, productRepo, logger)
	defer views.Close()

	// The full catalog stays open for product detail lookups and admin writes.
	allProducts, err := views.Acquire(ctx, catalog.AllCategories)
	if err != nil {
		return err
	}
	defer views.Release(catalog.AllCategories)

	files, err := storage.NewLocal(cfg.UploadDir, cfg.FileURLHost, logger)
	if err != nil {
		return err
	}

	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is empty, sign-in is disabled")
	}
	sessions := sessionsvc.New(
		sessionsvc.NewVerifier(cfg.AuthJWTSecret, cfg.AdminEmail),
		sessionrepo.NewPostgres(dbpool),
		cfg.SessionTTL,
		logger,
	)

	table, err := faq.Load(cfg.FAQFile)
	if err != nil {
		return err
	}

	scheduler := jobs.New(logger)
	if err := scheduler.AddSessionSweep(cfg.SessionSweepSpec, sessions); err != nil {
		return err
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:        views,
		Admin:          adminsvc.New(allProducts, productRepo, files, logger),
		Sessions:       sessions,
		Carts:          cartsvc.New(cartrepo.NewPostgres(dbpool), productRepo).WithCache(allProducts),
		Wishlist:       wishlistsvc.New(wishlistrepo.NewPostgres(dbpool)),
		Reviews:        reviewsvc.New(reviewrepo.NewPostgres(dbpool)),
		Chat:           faq.NewBot(table),
		WhatsAppNumber: cfg.WhatsAppNumber,
		UploadDir:      files.Dir(),
		CORSOrigins:    cfg.CORSOrigins,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		// Event streams end once their views close.
		views.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}
