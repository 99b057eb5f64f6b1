package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkazakov/fifteen-server/internal/session"
)

type Queries struct {
	db *pgxpool.Pool
}

// the session manager persists through Queries
var _ session.Store = (*Queries)(nil)

func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}
