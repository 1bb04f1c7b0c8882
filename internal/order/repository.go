package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/parts-market-backend/internal/catalog"
)

// searchColumns reuses the catalog engine for the free-text part of an order
// search. Orders have no lifecycle statuses in the product sense, so the
// catalog status clause is disabled and order status is an exact clause.
var searchColumns = catalog.Columns{
	Text: []string{"o.number", "o.buyer_name", "o.product_title"},
}

var sortColumns = map[string]string{
	"created_at": "o.created_at",
	"total":      "o.total_cents",
	"status":     "o.status",
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)
	// Count shares List's predicate; the service degrades failures to zero.
	Count(ctx context.Context, f Filter) (int, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const orderFields = "o.id, o.number, o.product_id, o.product_title, o.store_id, o.store_name, " +
	"o.buyer_id, o.buyer_name, o.quantity, o.price_cents, o.total_cents, o.status, o.created_at, o.updated_at"

// predicate translates an order filter into one expression tree shared by the
// row and count queries.
func predicate(f Filter) squirrel.Sqlizer {
	cf := catalog.Filter{SearchTerm: f.Search}
	pred := squirrel.And{catalog.Build(cf, searchColumns)}

	if f.Status != "" {
		pred = append(pred, squirrel.Eq{"o.status": f.Status})
	}
	if f.BuyerID != "" {
		pred = append(pred, squirrel.Eq{"o.buyer_id": f.BuyerID})
	}
	if f.StoreID != "" {
		pred = append(pred, squirrel.Eq{"o.store_id": f.StoreID})
	}
	return pred
}

func listQuery(f Filter) squirrel.SelectBuilder {
	cf := catalog.Filter{
		SortBy:    f.SortBy,
		SortOrder: f.SortOrder,
		Page:      f.Page,
		PageSize:  f.PageSize,
	}
	cf.Normalize()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select(orderFields).
		From("public.orders AS o").
		Where(predicate(f)).
		OrderBy(catalog.OrderBy(cf, sortColumns, "o.created_at", "o.created_at")...).
		Limit(uint64(cf.PageSize)).
		Offset(cf.Offset())
}

func countQuery(f Filter) squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select("count(*)").
		From("public.orders AS o").
		Where(predicate(f))
}

func (r *pgxRepository) Create(ctx context.Context, o *Order) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.orders").
		Columns("number", "product_id", "product_title", "store_id", "store_name",
			"buyer_id", "buyer_name", "quantity", "price_cents", "total_cents", "status").
		Values(o.Number, o.ProductID, o.ProductTitle, o.StoreID, o.StoreName,
			o.BuyerID, o.BuyerName, o.Quantity, o.PriceCents, o.TotalCents, o.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create order query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("create order failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(orderFields).
		From("public.orders AS o").
		Where(squirrel.Eq{"o.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get order query failed: %w", err)
	}

	var o Order
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&o.ID, &o.Number, &o.ProductID, &o.ProductTitle, &o.StoreID, &o.StoreName,
		&o.BuyerID, &o.BuyerName, &o.Quantity, &o.PriceCents, &o.TotalCents,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order failed: %w", err)
	}
	return &o, nil
}

func (r *pgxRepository) List(ctx context.Context, f Filter) ([]*Order, error) {
	query, args, err := listQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders failed: %w", err)
	}
	defer rows.Close()

	var result []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.Number, &o.ProductID, &o.ProductTitle, &o.StoreID, &o.StoreName,
			&o.BuyerID, &o.BuyerName, &o.Quantity, &o.PriceCents, &o.TotalCents,
			&o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order failed: %w", err)
		}
		result = append(result, &o)
	}
	return result, rows.Err()
}

func (r *pgxRepository) Count(ctx context.Context, f Filter) (int, error) {
	query, args, err := countQuery(f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count orders query failed: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count orders failed: %w", err)
	}
	return total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.orders").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update order status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
