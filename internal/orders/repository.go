package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-shop/meridian-backoffice/internal/orderstatus"
	"github.com/meridian-shop/meridian-backoffice/internal/platform/db"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

// Repository defines data access for orders.
type Repository interface {
	List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
	Get(ctx context.Context, id string) (*Order, error)
	MarkCancelled(ctx context.Context, id string, status string, reason string) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const orderColumns = `id, number, customer_name, customer_email, status, currency, total_amount, item_count, cancel_reason, cancelled_at, created_at, updated_at`

// List returns a page of orders plus the unpaged total. A canonical status
// filter matches every raw spelling of that status.
func (r *PGRepository) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.Status != "" {
		raws := orderstatus.RawValues(orderstatus.Normalize(req.Status))
		conds = append(conds, "upper(status) = ANY("+arg(raws)+")")
	}
	if req.Search != "" {
		p := arg("%" + strings.ToLower(req.Search) + "%")
		conds = append(conds, "(lower(number) LIKE "+p+" OR lower(customer_name) LIKE "+p+" OR lower(customer_email) LIKE "+p+")")
	}
	if req.DateFrom != nil {
		conds = append(conds, "created_at >= "+arg(*req.DateFrom))
	}
	if req.DateTo != nil {
		conds = append(conds, "created_at < "+arg(*req.DateTo))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	query := "SELECT " + orderColumns + " FROM orders" + where +
		" ORDER BY created_at DESC, id" +
		" LIMIT " + arg(perPage) + " OFFSET " + arg((page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerName, &o.CustomerEmail, &o.Status, &o.Currency, &o.TotalAmount, &o.ItemCount, &o.CancelReason, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Get fetches one order by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (*Order, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	var o Order
	if err := row.Scan(&o.ID, &o.Number, &o.CustomerName, &o.CustomerEmail, &o.Status, &o.Currency, &o.TotalAmount, &o.ItemCount, &o.CancelReason, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// MarkCancelled flips an order into a cancelled status with a reason. The
// status gate is re-checked under a row lock so a concurrent fulfilment
// update cannot slip between the caller's check and the write.
func (r *PGRepository) MarkCancelled(ctx context.Context, id string, status string, reason string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current string
		if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		if !orderstatus.CanCancel(current) {
			return ErrNotCancellable
		}
		_, err := tx.Exec(ctx,
			`UPDATE orders SET status = $2, cancel_reason = $3, cancelled_at = NOW(), updated_at = NOW() WHERE id = $1`,
			id, status, reason)
		return err
	})
}
