package product

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

const columns = `id::text, name, price, original_price, is_promo, category, image, description,
       detailed_description, specifications, materials, care_instructions, brand, sku,
       in_stock, featured, created_at`

// promoPriceCheck guards the promo rule against concurrent partial updates.
const promoPriceCheck = "products_promo_price_check"

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, category string) ([]domain.ProductRow, error) {
	q := `
SELECT ` + columns + `
FROM products
WHERE $1 = '' OR lower(category) = lower($1)
ORDER BY created_at DESC
`
	category = strings.TrimSpace(category)
	rows, err := r.pool.Query(ctx, q, category)
	if err != nil {
		r.logger.Error("product repo: list", zap.String("category", category), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProductRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *row)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.String("category", category), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.String("category", category), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.ProductRow, error) {
	q := `
SELECT ` + columns + `
FROM products
WHERE id = $1
`
	row, err := scanRow(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, r.mapErr("get", id, err)
	}
	return row, nil
}

func (r *postgresRepo) Insert(ctx context.Context, f domain.ProductFields) (*domain.ProductRow, error) {
	q := `
INSERT INTO products (name, price, original_price, is_promo, category, image, description,
    detailed_description, specifications, materials, care_instructions, brand, sku, in_stock, featured)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9, NULLIF($10, ''), NULLIF($11, ''),
    NULLIF($12, ''), NULLIF($13, ''), $14, $15)
RETURNING ` + columns
	row, err := scanRow(r.pool.QueryRow(ctx, q,
		f.Name,
		f.Price,
		f.OriginalPrice,
		f.IsPromo,
		f.Category,
		f.Image,
		f.Description,
		f.DetailedDescription,
		specsParam(f.Specifications),
		f.Materials,
		f.CareInstructions,
		f.Brand,
		f.SKU,
		f.InStock,
		f.Featured,
	))
	if err != nil {
		return nil, r.mapErr("insert", f.SKU, err)
	}
	r.logger.Info("product repo: inserted", zap.String("id", row.ID), zap.String("category", f.Category))
	return row, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.ProductRow, error) {
	sets, args := patchAssignments(patch)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	q := fmt.Sprintf(`
UPDATE products SET %s
WHERE id = $%d
RETURNING %s`, strings.Join(sets, ", "), len(args), columns)

	row, err := scanRow(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, r.mapErr("update", id, err)
	}
	r.logger.Info("product repo: updated", zap.String("id", id), zap.Int("columns", len(sets)))
	return row, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) (*domain.ProductRow, error) {
	q := `
DELETE FROM products
WHERE id = $1
RETURNING ` + columns
	row, err := scanRow(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, r.mapErr("delete", id, err)
	}
	r.logger.Info("product repo: deleted", zap.String("id", id))
	return row, nil
}

func (r *postgresRepo) mapErr(op, ref string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		r.logger.Debug("product repo: not found", zap.String("op", op), zap.String("ref", ref))
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidTextRepresentation:
			// malformed uuid
			return domain.ErrNotFound
		case pgerrcode.UniqueViolation:
			return domain.ErrAlreadyExists
		case pgerrcode.CheckViolation:
			if pgErr.ConstraintName == promoPriceCheck {
				r.logger.Debug("product repo: promo price rejected", zap.String("op", op), zap.String("ref", ref))
				return domain.ErrPromoPrice
			}
		}
	}
	r.logger.Error("product repo: "+op, zap.String("ref", ref), zap.Error(err))
	return err
}

// patchAssignments turns the non-nil patch fields into SET clauses.
func patchAssignments(p domain.ProductPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addText := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			sets = append(sets, fmt.Sprintf("%s = NULLIF($%d, '')", column, len(args)))
		}
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.OriginalPrice != nil {
		// zero clears the column
		args = append(args, *p.OriginalPrice)
		sets = append(sets, fmt.Sprintf("original_price = NULLIF($%d::numeric, 0)", len(args)))
	}
	if p.IsPromo != nil {
		add("is_promo", *p.IsPromo)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	addText("image", p.Image)
	if p.Description != nil {
		add("description", *p.Description)
	}
	addText("detailed_description", p.DetailedDescription)
	if p.Specifications != nil {
		add("specifications", specsParam(*p.Specifications))
	}
	addText("materials", p.Materials)
	addText("care_instructions", p.CareInstructions)
	addText("brand", p.Brand)
	addText("sku", p.SKU)
	if p.InStock != nil {
		add("in_stock", *p.InStock)
	}
	if p.Featured != nil {
		add("featured", *p.Featured)
	}
	return sets, args
}

// specsParam encodes specifications as a jsonb array, or NULL when absent.
func specsParam(specs []string) any {
	if specs == nil {
		return nil
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return nil
	}
	return b
}

func scanRow(row pgx.Row) (*domain.ProductRow, error) {
	var p domain.ProductRow
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.OriginalPrice,
		&p.IsPromo,
		&p.Category,
		&p.Image,
		&p.Description,
		&p.DetailedDescription,
		&p.Specifications,
		&p.Materials,
		&p.CareInstructions,
		&p.Brand,
		&p.SKU,
		&p.InStock,
		&p.Featured,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
