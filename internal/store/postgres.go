package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS paccofacile_setting (
    name       TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS fulfillment_record (
    id          TEXT PRIMARY KEY,
    order_id    TEXT NOT NULL,
    provider_id TEXT NOT NULL,
    data        JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS shipping_method_data (
    order_id   TEXT NOT NULL,
    method_id  TEXT NOT NULL,
    data       JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (order_id, method_id)
);`

// PostgresStore persists state in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens connStr, checks the connection and creates the
// tables when missing.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres db: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetSetting(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM paccofacile_setting WHERE name = $1`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", name, err)
	}
	return value, true, nil
}

func (s *PostgresStore) SetSetting(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO paccofacile_setting (name, value) VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		name, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM paccofacile_setting`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveFulfillment(ctx context.Context, record *fulfillment.Record) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO fulfillment_record (id, order_id, provider_id, data) VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET
            order_id = EXCLUDED.order_id,
            provider_id = EXCLUDED.provider_id,
            data = EXCLUDED.data,
            updated_at = now()`,
		record.ID, record.OrderID, record.ProviderID, data)
	if err != nil {
		return fmt.Errorf("failed to save fulfillment %s: %w", record.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetFulfillment(ctx context.Context, id string) (*fulfillment.Record, error) {
	var (
		record fulfillment.Record
		data   []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, order_id, provider_id, data FROM fulfillment_record WHERE id = $1`, id,
	).Scan(&record.ID, &record.OrderID, &record.ProviderID, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fulfillment %s: %w", id, err)
	}
	if err := json.Unmarshal(data, &record.Data); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *PostgresStore) SaveShippingMethodData(ctx context.Context, orderID, methodID string, data map[string]any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO shipping_method_data (order_id, method_id, data) VALUES ($1, $2, $3)
        ON CONFLICT (order_id, method_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		orderID, methodID, b)
	if err != nil {
		return fmt.Errorf("failed to save shipping method %s: %w", methodID, err)
	}
	return nil
}

func (s *PostgresStore) GetShippingMethodData(ctx context.Context, orderID, methodID string) (map[string]any, error) {
	var b []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM shipping_method_data WHERE order_id = $1 AND method_id = $2`, orderID, methodID,
	).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping method %s: %w", methodID, err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var _ Store = (*PostgresStore)(nil)
