package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the aggregates behind the dashboard summary.
type Repository interface {
	StatusCounts(ctx context.Context) (map[string]int, error)
}

// PGRepository provides PostgreSQL backed aggregation.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// StatusCounts groups orders by their raw backend status string. The service
// folds raw spellings into canonical keys.
func (r *PGRepository) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
