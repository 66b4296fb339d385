package repo

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// mapNoRows переводит pgx.ErrNoRows в ошибку очереди.
func mapNoRows(err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}
