package seed

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/importer"
)

//go:embed products.csv
var products []byte

// Apply creates the demo catalog for manual testing. Products whose SKU
// already exists are left as they are, so repeated runs are harmless.
func Apply(ctx context.Context, creator importer.Creator, logger *zap.Logger) (importer.Summary, error) {
	imp := importer.NewCSVImporter(bytes.NewReader(products), creator, logger)
	imp.SkipExisting = true
	sum, err := imp.Run(ctx)
	if err != nil {
		return sum, errors.Wrap(err, "seed products")
	}
	return sum, nil
}
