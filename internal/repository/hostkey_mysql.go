package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"gm-economy-api/internal/model"
)

// MySQLHostKeyRepository implements HostKeyRepository using MySQL.
type MySQLHostKeyRepository struct {
	db *sql.DB
}

// NewMySQLHostKeyRepository creates a new MySQL host key repository.
func NewMySQLHostKeyRepository(db *sql.DB) *MySQLHostKeyRepository {
	return &MySQLHostKeyRepository{db: db}
}

// ValidateHostKey checks a raw host key against the host_keys table.
// Returns the key account if valid and active, error otherwise.
func (r *MySQLHostKeyRepository) ValidateHostKey(ctx context.Context, key string) (*model.HostKeyValidation, error) {
	query := `
		SELECT id, label, is_active
		FROM host_keys
		WHERE ` + "`key`" + ` = ?
		LIMIT 1`

	var result model.HostKeyValidation
	var active int
	err := r.db.QueryRowContext(ctx, query, key).Scan(&result.HostKeyID, &result.Label, &active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("host key not found")
		}
		return nil, fmt.Errorf("failed to validate host key: %w", err)
	}

	result.Active = active == 1
	if !result.Active {
		log.Printf("[HostKeyRepository] Rejected inactive host key id=%d", result.HostKeyID)
		return nil, fmt.Errorf("host key is inactive")
	}

	return &result, nil
}

// StaticHostKeyRepository validates host keys against a fixed list, used
// when no MySQL instance is configured.
type StaticHostKeyRepository struct {
	keys []string
}

// NewStaticHostKeyRepository creates a repository over a static key list.
func NewStaticHostKeyRepository(keys []string) *StaticHostKeyRepository {
	return &StaticHostKeyRepository{keys: keys}
}

// ValidateHostKey checks the key against the configured list.
func (r *StaticHostKeyRepository) ValidateHostKey(ctx context.Context, key string) (*model.HostKeyValidation, error) {
	for i, valid := range r.keys {
		if key == valid && key != "" {
			return &model.HostKeyValidation{
				HostKeyID: int64(i + 1),
				Label:     "static",
				Active:    true,
			}, nil
		}
	}
	return nil, fmt.Errorf("host key not found")
}
