package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veriledger/internal/identity/models"
	"veriledger/pkg/domain"
	"veriledger/pkg/platform/sentinel"
)

// PostgresStore persists identity bindings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed binding store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL for the store's tables. Applied by migrations in
// production and by the integration test harness directly.
const Schema = `
CREATE TABLE IF NOT EXISTS identity_bindings (
    wallet        TEXT PRIMARY KEY,
    identity      TEXT NOT NULL,
    country       INTEGER NOT NULL DEFAULT 0,
    registered_at TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS bound_registries (
    registry_id TEXT PRIMARY KEY,
    bound_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Binding(ctx context.Context, wallet domain.WalletID) (*models.Binding, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT wallet, identity, country, registered_at, updated_at
		   FROM identity_bindings WHERE wallet = $1`, wallet.String())

	var b models.Binding
	var walletStr, identityStr string
	var country int
	err := row.Scan(&walletStr, &identityStr, &country, &b.RegisteredAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load binding: %w", err)
	}
	b.Wallet = domain.WalletID(walletStr)
	b.Identity = domain.IdentityID(identityStr)
	b.Country = domain.CountryCode(country)
	return &b, nil
}

func (s *PostgresStore) Create(ctx context.Context, binding *models.Binding) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identity_bindings (wallet, identity, country, registered_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		binding.Wallet.String(), binding.Identity.String(), int(binding.Country),
		binding.RegisteredAt, binding.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create binding: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, binding *models.Binding) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identity_bindings SET identity = $2, country = $3, updated_at = $4
		  WHERE wallet = $1`,
		binding.Wallet.String(), binding.Identity.String(), int(binding.Country),
		binding.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update binding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update binding: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, wallet domain.WalletID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM identity_bindings WHERE wallet = $1`, wallet.String())
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) BindRegistry(ctx context.Context, registryID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bound_registries (registry_id) VALUES ($1)`, registryID)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("bind registry: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnbindRegistry(ctx context.Context, registryID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bound_registries WHERE registry_id = $1`, registryID)
	if err != nil {
		return fmt.Errorf("unbind registry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unbind registry: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) BoundRegistries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT registry_id FROM bound_registries ORDER BY bound_at`)
	if err != nil {
		return nil, fmt.Errorf("list bound registries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan bound registry: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
