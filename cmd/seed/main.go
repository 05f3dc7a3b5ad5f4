package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/config"
	"github.com/zeewalex59-ux/shopelitesource/internal/db"
	"github.com/zeewalex59-ux/shopelitesource/internal/logging"
	"github.com/zeewalex59-ux/shopelitesource/internal/repository/product"
	"github.com/zeewalex59-ux/shopelitesource/internal/seed"
	"github.com/zeewalex59-ux/shopelitesource/internal/service/admin"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Error("connect db", zap.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	repo := product.NewPostgres(pool, logger)
	store := catalog.NewStore(catalog.AllCategories, repo, repo, logger)
	defer store.Close()

	sum, err := seed.Apply(ctx, admin.New(store, repo, nil, logger), logger)
	if err != nil {
		logger.Error("seed apply", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("seed applied", zap.Int("created", sum.Imported), zap.Int("existing", sum.Skipped))
}
