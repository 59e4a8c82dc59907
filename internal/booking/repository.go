package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the persistence operations the scheduling core needs:
// point lookups, the overlap query backing conflict detection, conditional
// status writes, and the bulk predicates the sweep runs.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// HasConflict reports whether any booking in a blocking status on the
	// resource overlaps the half-open interval [start, end). excludeID, when
	// non-empty, removes one booking from consideration.
	HasConflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error)

	// UpdateStatusFrom performs a compare-and-swap on the status column:
	// the write applies only if the stored status still equals from. It
	// returns false (without error) when the row exists but the condition
	// no longer holds.
	UpdateStatusFrom(ctx context.Context, id string, from, to Status) (bool, error)

	// UpdateStatus writes the status unconditionally (admin override path).
	UpdateStatus(ctx context.Context, id string, to Status) error

	// MarkCompleted flips every non-terminal booking whose end time has
	// passed to completed, returning the number of rows changed.
	MarkCompleted(ctx context.Context, now time.Time) (int64, error)

	// MarkInProgress flips every pending or confirmed booking whose
	// interval contains now to in_progress, returning rows changed.
	MarkInProgress(ctx context.Context, now time.Time) (int64, error)

	// ListReminderCandidates returns confirmed bookings starting within
	// (now, now+window] that have not had a reminder sent yet.
	ListReminderCandidates(ctx context.Context, now time.Time, window time.Duration) ([]*Booking, error)

	MarkReminderSent(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var bookingColumns = []string{
	"b.id", "b.user_id", "b.resource_id",
	"r.name as resource_name",
	"coalesce(u.display_name, u.email) as user_name",
	"b.start_time", "b.end_time", "b.total_hours", "b.total_price",
	"b.notes", "b.status", "b.reminder_sent", "b.created_at", "b.updated_at",
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.UserID, &b.ResourceID,
		&b.ResourceName, &b.UserName,
		&b.StartTime, &b.EndTime, &b.TotalHours, &b.TotalPrice,
		&b.Notes, &b.Status, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan booking failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("user_id", "resource_id", "start_time", "end_time",
			"total_hours", "total_price", "notes", "status").
		Values(b.UserID, b.ResourceID, b.StartTime, b.EndTime,
			b.TotalHours, b.TotalPrice, b.Notes, b.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.resources r ON r.id = b.resource_id").
		Join("public.users u ON u.id = b.user_id").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	return scanBooking(r.pool.QueryRow(ctx, query, args...))
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	cols := append(append([]string{}, bookingColumns...), "count(*) OVER() as total_count")
	query := psql.Select(cols...).
		From("public.bookings b").
		Join("public.resources r ON r.id = b.resource_id").
		Join("public.users u ON u.id = b.user_id")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"b.resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"b.end_time": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"b.start_time": *filter.To})
	}

	query = query.OrderBy("b.start_time DESC")

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
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.ResourceID,
			&b.ResourceName, &b.UserName,
			&b.StartTime, &b.EndTime, &b.TotalHours, &b.TotalPrice,
			&b.Notes, &b.Status, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, total, nil
}

func (r *pgxRepository) HasConflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	// Half-open interval overlap: [start, end) intersects [start_time,
	// end_time) iff start_time < end AND end_time > start. Boundary
	// touches do not count.
	query := psql.Select("count(*)").
		From("public.bookings").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Eq{"status": BlockingStatuses}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start})

	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("build conflict query failed: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("check booking conflict failed: %w", err)
	}
	return count > 0, nil
}

func (r *pgxRepository) UpdateStatusFrom(ctx context.Context, id string, from, to Status) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build conditional status update query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("conditional status update failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, to Status) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) MarkCompleted(ctx context.Context, now time.Time) (int64, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", StatusCompleted).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"status": BlockingStatuses}).
		Where(squirrel.LtOrEq{"end_time": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build mark completed query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark bookings completed failed: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgxRepository) MarkInProgress(ctx context.Context, now time.Time) (int64, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", StatusInProgress).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"status": []Status{StatusPending, StatusConfirmed}}).
		Where(squirrel.LtOrEq{"start_time": now}).
		Where(squirrel.Gt{"end_time": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build mark in progress query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark bookings in progress failed: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgxRepository) ListReminderCandidates(ctx context.Context, now time.Time, window time.Duration) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.resources r ON r.id = b.resource_id").
		Join("public.users u ON u.id = b.user_id").
		Where(squirrel.Eq{"b.status": StatusConfirmed}).
		Where(squirrel.Eq{"b.reminder_sent": false}).
		Where(squirrel.Gt{"b.start_time": now}).
		Where(squirrel.LtOrEq{"b.start_time": now.Add(window)}).
		OrderBy("b.start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reminder candidates query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminder candidates failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.ResourceID,
			&b.ResourceName, &b.UserName,
			&b.StartTime, &b.EndTime, &b.TotalHours, &b.TotalPrice,
			&b.Notes, &b.Status, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, nil
}

func (r *pgxRepository) MarkReminderSent(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("reminder_sent", true).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark reminder sent query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("mark reminder sent failed: %w", err)
	}
	return nil
}
