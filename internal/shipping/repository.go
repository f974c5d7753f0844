package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-shop/meridian-backoffice/internal/orderstatus"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

// Repository defines data access for shipments.
type Repository interface {
	List(ctx context.Context, req ListShipmentsRequest) ([]Shipment, int, error)
	Get(ctx context.Context, id string) (*Shipment, error)
	UpdateTracking(ctx context.Context, id string, carrier string, trackingNumber string) error
	UpdateStatus(ctx context.Context, id string, status string) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const shipmentColumns = `id, order_id, order_number, carrier, tracking_number, recipient_name, destination, status, created_at, updated_at`

// List returns a page of shipments plus the unpaged total.
func (r *PGRepository) List(ctx context.Context, req ListShipmentsRequest) ([]Shipment, int, error) {
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
		conds = append(conds, "(lower(order_number) LIKE "+p+" OR lower(recipient_name) LIKE "+p+" OR lower(coalesce(tracking_number, '')) LIKE "+p+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM shipments"+where, args...).Scan(&total); err != nil {
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
	query := "SELECT " + shipmentColumns + " FROM shipments" + where +
		" ORDER BY created_at DESC, id" +
		" LIMIT " + arg(perPage) + " OFFSET " + arg((page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var shipments []Shipment
	for rows.Next() {
		var s Shipment
		if err := rows.Scan(&s.ID, &s.OrderID, &s.OrderNumber, &s.Carrier, &s.TrackingNumber, &s.RecipientName, &s.Destination, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		shipments = append(shipments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// Get fetches one shipment by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (*Shipment, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+shipmentColumns+" FROM shipments WHERE id = $1", id)
	var s Shipment
	if err := row.Scan(&s.ID, &s.OrderID, &s.OrderNumber, &s.Carrier, &s.TrackingNumber, &s.RecipientName, &s.Destination, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpdateTracking replaces the carrier and tracking number.
func (r *PGRepository) UpdateTracking(ctx context.Context, id string, carrier string, trackingNumber string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE shipments SET carrier = $2, tracking_number = $3, updated_at = NOW() WHERE id = $1`,
		id, carrier, trackingNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateStatus moves the shipment to another raw status.
func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE shipments SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
