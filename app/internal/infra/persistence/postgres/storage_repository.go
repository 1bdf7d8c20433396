package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StorageSchema creates the key/value table used by StorageRepository.
const StorageSchema = `
    CREATE TABLE IF NOT EXISTS storage_items (
        storage_key   TEXT PRIMARY KEY,
        storage_value TEXT NOT NULL,
        updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
    )
`

type StorageRepository struct {
	pool *pgxpool.Pool
}

func NewStorageRepository(pool *pgxpool.Pool) *StorageRepository {
	return &StorageRepository{pool: pool}
}

func (r *StorageRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, StorageSchema)
	return err
}

func (r *StorageRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx, `
        SELECT storage_value FROM storage_items WHERE storage_key = $1
    `, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *StorageRepository) SetItem(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO storage_items (storage_key, storage_value)
        VALUES ($1, $2)
        ON CONFLICT (storage_key)
        DO UPDATE SET storage_value = EXCLUDED.storage_value, updated_at = now()
    `, key, value)
	return err
}

func (r *StorageRepository) RemoveItem(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM storage_items WHERE storage_key = $1`, key)
	return err
}
