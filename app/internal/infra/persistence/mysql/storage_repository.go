package mysql

import (
	"context"
	"database/sql"
	"errors"
)

// StorageSchema creates the key/value table used by StorageRepository.
const StorageSchema = `
    CREATE TABLE IF NOT EXISTS storage_items (
        storage_key   VARCHAR(255) NOT NULL PRIMARY KEY,
        storage_value MEDIUMTEXT NOT NULL,
        updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
    )
`

type StorageRepository struct {
	db *sql.DB
}

func NewStorageRepository(db *sql.DB) *StorageRepository {
	return &StorageRepository{db: db}
}

func (r *StorageRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, StorageSchema)
	return err
}

func (r *StorageRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT storage_value FROM storage_items WHERE storage_key = ?
    `, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *StorageRepository) SetItem(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO storage_items (storage_key, storage_value)
        VALUES (?, ?)
        ON DUPLICATE KEY UPDATE storage_value = VALUES(storage_value)
    `, key, value)
	return err
}

func (r *StorageRepository) RemoveItem(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM storage_items WHERE storage_key = ?`, key)
	return err
}
