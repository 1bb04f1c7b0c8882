package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/parts-market-backend/internal/catalog"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/retry"
)

// searchColumns maps the catalog filter onto the products table. Both the row
// query and the count query go through catalog.Build with this exact mapping.
var searchColumns = catalog.Columns{
	Text:      []string{"p.title", "p.brand_name", "p.model_name", "p.store_name", "p.description"},
	LotNumber: "p.lot_number",
	Status:    "p.status",
	Brand:     "p.brand_name",
	Model:     "p.model_name",
}

// sortColumns whitelists user-facing sort keys.
var sortColumns = map[string]string{
	"created_at": "p.created_at",
	"price":      "p.price_cents",
	"title":      "p.title",
}

type Repository interface {
	List(ctx context.Context, f catalog.Filter) ([]*Product, error)
	// Count shares List's predicate byte for byte. Errors are returned, not
	// swallowed; the service treats the total as advisory.
	Count(ctx context.Context, f catalog.Filter) (int, error)
	GetByID(ctx context.Context, id string, audience catalog.Audience) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	UpdateStatus(ctx context.Context, id string, status catalog.Status) error
	Delete(ctx context.Context, id string) error

	AddImage(ctx context.Context, img *Image) error
	GetImage(ctx context.Context, id string) (*Image, error)
	ListImages(ctx context.Context, productID string) ([]Image, error)
	CountImages(ctx context.Context, productID string) (int, error)
	DeleteImage(ctx context.Context, id string) error
	SetPrimaryImage(ctx context.Context, productID, imageID string) error
}

type pgxRepository struct {
	pool        *pgxpool.Pool
	retryPolicy retry.Policy
}

func NewPgxRepository(pool *pgxpool.Pool, retryPolicy retry.Policy) Repository {
	return &pgxRepository{pool: pool, retryPolicy: retryPolicy}
}

// tableFor selects the backing relation by audience: admins query the base
// table, everyone else a view that already excludes moderation-only fields.
func tableFor(audience catalog.Audience) string {
	if audience == catalog.AudienceAdmin {
		return "public.products AS p"
	}
	return "public.products_public AS p"
}

// imagesLateral embeds up to listImageCap images per row, primary first, as a
// JSON array so one round-trip serves the whole listing page.
const imagesLateral = `LEFT JOIN LATERAL (
	SELECT COALESCE(json_agg(i), '[]') AS images FROM (
		SELECT id, product_id, thumbnail_url, url, is_primary, created_at
		FROM public.product_images
		WHERE product_id = p.id
		ORDER BY is_primary DESC, created_at ASC
		LIMIT 2
	) i
) img ON true`

func listQuery(f catalog.Filter) squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select(
		"p.id", "p.store_id", "p.store_name", "p.title", "p.description",
		"p.brand_name", "p.model_name", "p.lot_number", "p.price_cents",
		"p.status", "img.images", "p.created_at", "p.updated_at",
	).
		From(tableFor(f.Audience)).
		JoinClause(imagesLateral).
		Where(catalog.Build(f, searchColumns)).
		OrderBy(catalog.OrderBy(f, sortColumns, "p.created_at", "p.created_at")...).
		Limit(uint64(f.PageSize)).
		Offset(f.Offset())
}

func countQuery(f catalog.Filter) squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select("count(*)").
		From(tableFor(f.Audience)).
		Where(catalog.Build(f, searchColumns))
}

func (r *pgxRepository) List(ctx context.Context, f catalog.Filter) ([]*Product, error) {
	f.Normalize()

	query, args, err := listQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list products query failed: %w", err)
	}

	var result []*Product
	err = retry.Do(ctx, r.retryPolicy, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = result[:0]
		for rows.Next() {
			p, err := scanListRow(rows)
			if err != nil {
				return err
			}
			result = append(result, p)
		}
		return rows.Err()
	}, transientPgError)
	if err != nil {
		return nil, apperror.WrapKind(err, http.StatusServiceUnavailable,
			apperror.KindDataSource, "product listing is temporarily unavailable")
	}
	return result, nil
}

func (r *pgxRepository) Count(ctx context.Context, f catalog.Filter) (int, error) {
	query, args, err := countQuery(f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count products query failed: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products failed: %w", err)
	}
	return total, nil
}

func scanListRow(rows pgx.Rows) (*Product, error) {
	var p Product
	var imagesJSON []byte
	if err := rows.Scan(
		&p.ID, &p.StoreID, &p.StoreName, &p.Title, &p.Description,
		&p.BrandName, &p.ModelName, &p.LotNumber, &p.PriceCents,
		&p.Status, &imagesJSON, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan product failed: %w", err)
	}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, fmt.Errorf("decode product images failed: %w", err)
		}
	}
	return &p, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string, audience catalog.Audience) (*Product, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"p.id", "p.store_id", "p.store_name", "p.title", "p.description",
		"p.brand_name", "p.model_name", "p.lot_number", "p.price_cents",
		"p.status", "p.created_at", "p.updated_at",
	).
		From(tableFor(audience)).
		Where(squirrel.Eq{"p.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get product query failed: %w", err)
	}

	var p Product
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.StoreID, &p.StoreName, &p.Title, &p.Description,
		&p.BrandName, &p.ModelName, &p.LotNumber, &p.PriceCents,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product failed: %w", err)
	}

	images, err := r.ListImages(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Images = images
	return &p, nil
}

func (r *pgxRepository) Create(ctx context.Context, p *Product) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.products").
		Columns("store_id", "store_name", "title", "description",
			"brand_name", "model_name", "lot_number", "price_cents", "status").
		Values(p.StoreID, p.StoreName, p.Title, p.Description,
			p.BrandName, p.ModelName, p.LotNumber, p.PriceCents, p.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create product query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create product failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Update(ctx context.Context, p *Product) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.products").
		Set("title", p.Title).
		Set("description", p.Description).
		Set("brand_name", p.BrandName).
		Set("model_name", p.ModelName).
		Set("lot_number", p.LotNumber).
		Set("price_cents", p.PriceCents).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update product query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update product failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, status catalog.Status) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.products").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update product status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update product status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.products").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete product query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete product failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) AddImage(ctx context.Context, img *Image) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.product_images").
		Columns("id", "product_id", "storage_path", "thumbnail_url", "url", "is_primary").
		Values(img.ID, img.ProductID, img.StoragePath, img.ThumbnailURL, img.URL, img.IsPrimary).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build add product image query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&img.CreatedAt); err != nil {
		return fmt.Errorf("add product image failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetImage(ctx context.Context, id string) (*Image, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "product_id", "storage_path", "thumbnail_url", "url", "is_primary", "created_at").
		From("public.product_images").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get product image query failed: %w", err)
	}

	var img Image
	err = r.pool.QueryRow(ctx, query, args...).
		Scan(&img.ID, &img.ProductID, &img.StoragePath, &img.ThumbnailURL, &img.URL, &img.IsPrimary, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("get product image failed: %w", err)
	}
	return &img, nil
}

func (r *pgxRepository) ListImages(ctx context.Context, productID string) ([]Image, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "product_id", "storage_path", "thumbnail_url", "url", "is_primary", "created_at").
		From("public.product_images").
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("is_primary DESC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list product images query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list product images failed: %w", err)
	}
	defer rows.Close()

	var result []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.StoragePath, &img.ThumbnailURL, &img.URL, &img.IsPrimary, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product image failed: %w", err)
		}
		result = append(result, img)
	}
	return result, nil
}

func (r *pgxRepository) CountImages(ctx context.Context, productID string) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("count(*)").
		From("public.product_images").
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count product images query failed: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count product images failed: %w", err)
	}
	return total, nil
}

func (r *pgxRepository) DeleteImage(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.product_images").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete product image query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete product image failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

// SetPrimaryImage demotes the current primary and promotes imageID in one
// transaction, preserving the at-most-one-primary invariant.
func (r *pgxRepository) SetPrimaryImage(ctx context.Context, productID, imageID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set primary image failed: %w", err)
	}
	defer tx.Rollback(ctx)

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	clear, clearArgs, err := psql.Update("public.product_images").
		Set("is_primary", false).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear primary image query failed: %w", err)
	}
	if _, err := tx.Exec(ctx, clear, clearArgs...); err != nil {
		return fmt.Errorf("clear primary image failed: %w", err)
	}

	set, setArgs, err := psql.Update("public.product_images").
		Set("is_primary", true).
		Where(squirrel.Eq{"id": imageID, "product_id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set primary image query failed: %w", err)
	}
	ct, err := tx.Exec(ctx, set, setArgs...)
	if err != nil {
		return fmt.Errorf("set primary image failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrImageNotFound
	}

	return tx.Commit(ctx)
}

// transientPgError reports whether the failure is worth retrying: connection
// level problems, serialization conflicts and plain network errors. Constraint
// and syntax errors are permanent.
func transientPgError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected ||
			pgErr.Code == pgerrcode.TooManyConnections
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
