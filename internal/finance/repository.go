package finance

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements RepositoryPort against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}
