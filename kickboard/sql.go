package kickboard

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("kickboard not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, id string) (Kickboard, error) {
	var k Kickboard
	err := r.db.GetContext(ctx, &k, getKickboardQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return k, ErrNotFound
	}
	return k, err
}

const getKickboardQuery = `SELECT * FROM kickboards WHERE id = $1`

// SetRentable puts the device back in the rentable pool after a stop.
func (r *Repository) SetRentable(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, setRentableQuery, id)
	return err
}

const setRentableQuery = `UPDATE kickboards SET can_rent = TRUE WHERE id = $1`
