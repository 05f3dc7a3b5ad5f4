package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/config"
	"github.com/zeewalex59-ux/shopelitesource/internal/db"
	"github.com/zeewalex59-ux/shopelitesource/internal/logging"
	"github.com/zeewalex59-ux/shopelitesource/internal/migrate"
)

func main() {
	var down bool
	flag.BoolVar(&down, "down", false, "Revert the most recent migration instead of applying all")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.Named("migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Error("connect db", zap.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	if down {
		err = migrate.Rollback(ctx, pool, logger)
	} else {
		err = migrate.ApplyLogged(ctx, pool, logger)
	}
	if err != nil {
		logger.Error("migrate", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("migrations applied", zap.Bool("down", down))
}
