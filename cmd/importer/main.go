package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/config"
	"github.com/zeewalex59-ux/shopelitesource/internal/db"
	"github.com/zeewalex59-ux/shopelitesource/internal/importer"
	"github.com/zeewalex59-ux/shopelitesource/internal/logging"
	"github.com/zeewalex59-ux/shopelitesource/internal/repository/product"
	"github.com/zeewalex59-ux/shopelitesource/internal/service/admin"
)

func main() {
	var (
		filePath     string
		skipExisting bool
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV")
	flag.BoolVar(&skipExisting, "skip-existing", false, "Skip rows whose SKU already exists")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.Named("importer")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Error("connect db", zap.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Error("open file", zap.Error(err))
		os.Exit(1)
	}
	defer f.Close()

	repo := product.NewPostgres(pool, logger)
	store := catalog.NewStore(catalog.AllCategories, repo, repo, logger)
	defer store.Close()

	imp := importer.NewCSVImporter(f, admin.New(store, repo, nil, logger), logger)
	imp.SkipExisting = skipExisting

	start := time.Now()
	sum, err := imp.Run(ctx)
	if err != nil {
		logger.Error("import failed", zap.Error(err), zap.Int("imported", sum.Imported))
		os.Exit(1)
	}

	fmt.Printf("Imported %d products (%d skipped) in %s\n", sum.Imported, sum.Skipped, time.Since(start).Truncate(time.Millisecond))
}
