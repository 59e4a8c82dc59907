package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, res *Resource) error
	AddImage(ctx context.Context, resourceID, fileID string) error
	RemoveImage(ctx context.Context, resourceID, fileID string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

// imagesSubquery aggregates the attached file IDs into a JSON array so a
// resource row can be fetched in one round trip.
const imagesSubquery = `COALESCE(
	(SELECT json_agg(ri.file_id ORDER BY ri.position)
	 FROM public.resource_images ri
	 WHERE ri.resource_id = r.id),
	'[]'::json
) AS images`

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.resources").
		Columns("name", "description", "kind", "price_per_hour", "location", "capacity", "specifications", "is_active").
		Values(res.Name, res.Description, res.Kind, res.PricePerHour, res.Location, res.Capacity, res.Specifications, res.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create resource query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"r.id", "r.name", "r.description", "r.kind", "r.price_per_hour",
		"r.location", "r.capacity", "r.specifications", "r.is_active",
		"r.created_at", "r.updated_at", imagesSubquery,
	).
		From("public.resources r").
		Where(squirrel.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get resource query failed: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)

	var res Resource
	var imagesJSON []byte
	if err := row.Scan(
		&res.ID, &res.Name, &res.Description, &res.Kind, &res.PricePerHour,
		&res.Location, &res.Capacity, &res.Specifications, &res.IsActive,
		&res.CreatedAt, &res.UpdatedAt, &imagesJSON,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}

	unmarshalImages(&res, imagesJSON)

	return &res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"r.id", "r.name", "r.description", "r.kind", "r.price_per_hour",
		"r.location", "r.capacity", "r.specifications", "r.is_active",
		"r.created_at", "r.updated_at", imagesSubquery,
		"count(*) OVER() as total_count",
	).
		From("public.resources r")

	if !filter.IncludeInactive {
		query = query.Where(squirrel.Eq{"r.is_active": true})
	}
	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"r.kind": filter.Kind})
	}
	if filter.Keyword != "" {
		query = query.Where(squirrel.Or{
			squirrel.ILike{"r.name": "%" + filter.Keyword + "%"},
			squirrel.ILike{"r.description": "%" + filter.Keyword + "%"},
		})
	}

	query = query.OrderBy("r.created_at DESC")

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list resources query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	var total int

	for rows.Next() {
		var res Resource
		var imagesJSON []byte
		if err := rows.Scan(
			&res.ID, &res.Name, &res.Description, &res.Kind, &res.PricePerHour,
			&res.Location, &res.Capacity, &res.Specifications, &res.IsActive,
			&res.CreatedAt, &res.UpdatedAt, &imagesJSON, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		unmarshalImages(&res, imagesJSON)
		result = append(result, &res)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, res *Resource) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.resources").
		Set("name", res.Name).
		Set("description", res.Description).
		Set("price_per_hour", res.PricePerHour).
		Set("location", res.Location).
		Set("capacity", res.Capacity).
		Set("specifications", res.Specifications).
		Set("is_active", res.IsActive).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": res.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update resource query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update resource failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) AddImage(ctx context.Context, resourceID, fileID string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.resource_images").
		Columns("resource_id", "file_id", "position").
		Values(resourceID, fileID, squirrel.Expr(
			"(SELECT COALESCE(MAX(position), 0) + 1 FROM public.resource_images WHERE resource_id = ?)", resourceID,
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build add image query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrImageExists
		}
		return fmt.Errorf("add resource image failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) RemoveImage(ctx context.Context, resourceID, fileID string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.resource_images").
		Where(squirrel.Eq{"resource_id": resourceID, "file_id": fileID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build remove image query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove resource image failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func unmarshalImages(res *Resource, imagesJSON []byte) {
	res.ImageIDs = []string{}
	if len(imagesJSON) == 0 {
		return
	}
	if err := json.Unmarshal(imagesJSON, &res.ImageIDs); err != nil {
		log.Printf("warning: failed to unmarshal images for resource %s: %v", res.ID, err)
	}
}
