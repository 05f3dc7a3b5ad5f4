package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	"github.com/zeewalex59-ux/shopelitesource/internal/service/admin"
)

// Creator accepts validated product creations.
type Creator interface {
	Create(ctx context.Context, in admin.CreateInput) admin.Result
}

// Columns understood by the importer. Only name, price and description are
// required in the header.
var requiredColumns = []string{"name", "price", "description"}

// RowError reports the CSV line a failure came from.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Summary counts what a run did.
type Summary struct {
	Imported int
	Skipped  int
}

// CSVImporter reads product rows and creates them through the admin
// service so the same validation applies as for the admin API.
type CSVImporter struct {
	reader  *csv.Reader
	creator Creator
	logger  *zap.Logger

	// SkipExisting counts rows whose SKU is already taken as skipped
	// instead of failing the run.
	SkipExisting bool
}

func NewCSVImporter(r io.Reader, creator Creator, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{reader: csvr, creator: creator, logger: logger}
}

// Run creates one product per row and stops at the first row that fails.
func (i *CSVImporter) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	headers, err := i.reader.Read()
	if err != nil {
		return sum, errors.Wrap(err, "read headers")
	}
	index := headerIndex(headers)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return sum, errors.Errorf("missing column %q", col)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, errors.Wrap(err, "read row")
		}
		line, _ := i.reader.FieldPos(0)
		if blank(record) {
			continue
		}

		in, err := parseRow(record, index)
		if err != nil {
			return sum, &RowError{Line: line, Err: err}
		}
		res := i.creator.Create(ctx, in)
		if res.Success {
			sum.Imported++
			continue
		}
		if i.SkipExisting && errors.Is(res.Error, domain.ErrAlreadyExists) {
			i.logger.Info("importer: sku exists, skipping", zap.Int("line", line), zap.String("sku", in.SKU))
			sum.Skipped++
			continue
		}
		return sum, &RowError{Line: line, Err: res.Error}
	}
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseRow(record []string, index map[string]int) (admin.CreateInput, error) {
	get := func(col string) string { return pick(record, index, col) }

	price, err := parseDecimal(get("price"))
	if err != nil {
		return admin.CreateInput{}, errors.Wrap(err, "price")
	}
	in := admin.CreateInput{
		Name:                get("name"),
		Price:               price,
		Category:            get("category"),
		Image:               get("image"),
		Description:         get("description"),
		DetailedDescription: get("detailed_description"),
		Materials:           get("materials"),
		CareInstructions:    get("care_instructions"),
		Brand:               get("brand"),
		SKU:                 get("sku"),
		Specifications:      splitList(get("specifications")),
	}
	if v := get("original_price"); v != "" {
		orig, err := parseDecimal(v)
		if err != nil {
			return admin.CreateInput{}, errors.Wrap(err, "original_price")
		}
		in.OriginalPrice = &orig
	}
	if in.IsPromo, err = parseBool(get("is_promo"), false); err != nil {
		return admin.CreateInput{}, errors.Wrap(err, "is_promo")
	}
	if in.Featured, err = parseBool(get("featured"), false); err != nil {
		return admin.CreateInput{}, errors.Wrap(err, "featured")
	}
	if v := get("in_stock"); v != "" {
		inStock, err := parseBool(v, true)
		if err != nil {
			return admin.CreateInput{}, errors.Wrap(err, "in_stock")
		}
		in.InStock = &inStock
	}
	return in, nil
}

func parseDecimal(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, errors.New("value is required")
	}
	return decimal.NewFromString(strings.TrimPrefix(v, "$"))
}

func parseBool(v string, def bool) (bool, error) {
	switch strings.ToLower(v) {
	case "":
		return def, nil
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return cast.ToBoolE(v)
}

// splitList reads specifications separated by ";" or "|".
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
