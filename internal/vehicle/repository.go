package vehicle

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	ListBrands(ctx context.Context) ([]*Brand, error)
	GetBrandByID(ctx context.Context, id string) (*Brand, error)
	CreateBrand(ctx context.Context, b *Brand) error
	ListModels(ctx context.Context, brandID string) ([]*Model, error)
	GetModelByID(ctx context.Context, id string) (*Model, error)
	CreateModel(ctx context.Context, m *Model) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) ListBrands(ctx context.Context) ([]*Brand, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "created_at").
		From("public.vehicle_brands").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list brands query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list brands failed: %w", err)
	}
	defer rows.Close()

	var result []*Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan brand failed: %w", err)
		}
		result = append(result, &b)
	}
	return result, nil
}

func (r *pgxRepository) GetBrandByID(ctx context.Context, id string) (*Brand, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "created_at").
		From("public.vehicle_brands").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get brand query failed: %w", err)
	}

	var b Brand
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("get brand failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) CreateBrand(ctx context.Context, b *Brand) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.vehicle_brands").
		Columns("name").
		Values(b.Name).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create brand query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		return fmt.Errorf("create brand failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ListModels(ctx context.Context, brandID string) ([]*Model, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	queryBuilder := psql.Select("m.id", "m.brand_id", "b.name", "m.name", "m.created_at").
		From("public.vehicle_models m").
		Join("public.vehicle_brands b ON m.brand_id = b.id").
		OrderBy("m.name ASC")

	if brandID != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"m.brand_id": brandID})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list models query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list models failed: %w", err)
	}
	defer rows.Close()

	var result []*Model
	for rows.Next() {
		var m Model
		if err := rows.Scan(&m.ID, &m.BrandID, &m.BrandName, &m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan model failed: %w", err)
		}
		result = append(result, &m)
	}
	return result, nil
}

func (r *pgxRepository) GetModelByID(ctx context.Context, id string) (*Model, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("m.id", "m.brand_id", "b.name", "m.name", "m.created_at").
		From("public.vehicle_models m").
		Join("public.vehicle_brands b ON m.brand_id = b.id").
		Where(squirrel.Eq{"m.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get model query failed: %w", err)
	}

	var m Model
	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&m.ID, &m.BrandID, &m.BrandName, &m.Name, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("get model failed: %w", err)
	}
	return &m, nil
}

func (r *pgxRepository) CreateModel(ctx context.Context, m *Model) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.vehicle_models").
		Columns("brand_id", "name").
		Values(m.BrandID, m.Name).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create model query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("create model failed: %w", err)
	}
	return nil
}
