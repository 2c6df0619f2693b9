// Package clickhouse provides a ClickHouse-backed material price source.
// Teams sharing one price database publish snapshots here; the estimator
// reads the active snapshot into a catalog.PriceTable at startup. The
// embedded JSON tables remain the default when no store is configured.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ka7788158-png/IIT-MADRAS/catalog"
)

// PriceSnapshot is one point-in-time capture of the material price list.
type PriceSnapshot struct {
	ID        uuid.UUID
	Source    string
	Label     string
	FetchedAt time.Time
	IsActive  bool
	CreatedAt time.Time
}

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "infracalc",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store reads and writes material price snapshots.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore connects to ClickHouse.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// LoadPrices reads the active snapshot into a price table. Returns an error
// when no active snapshot exists; callers treat that as a configuration
// error, same as a missing price file.
func (s *Store) LoadPrices(ctx context.Context) (catalog.PriceTable, error) {
	snapshot, err := s.ActiveSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("no active price snapshot in %s", s.cfg.Database)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT material, unit_price
		FROM material_prices
		WHERE snapshot_id = ?
	`, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query material prices: %w", err)
	}
	defer rows.Close()

	table := make(catalog.PriceTable)
	for rows.Next() {
		var material string
		var price decimal.Decimal
		if err := rows.Scan(&material, &price); err != nil {
			return nil, fmt.Errorf("failed to scan material price: %w", err)
		}
		table[material] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read material prices: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("active price snapshot %s is empty", snapshot.ID)
	}
	return table, nil
}

// ActiveSnapshot returns the currently active snapshot, or nil when none.
func (s *Store) ActiveSnapshot(ctx context.Context) (*PriceSnapshot, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, source, label, fetched_at, is_active, created_at
		FROM price_snapshots
		WHERE is_active = 1
		ORDER BY created_at DESC
		LIMIT 1
	`)

	var snapshot PriceSnapshot
	var isActive uint8
	err := row.Scan(&snapshot.ID, &snapshot.Source, &snapshot.Label,
		&snapshot.FetchedAt, &isActive, &snapshot.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active snapshot: %w", err)
	}
	snapshot.IsActive = isActive == 1
	return &snapshot, nil
}

// PublishPrices writes a price table as a new snapshot and activates it.
func (s *Store) PublishPrices(ctx context.Context, source, label string, prices catalog.PriceTable) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()

	if err := s.conn.Exec(ctx, `
		ALTER TABLE price_snapshots UPDATE is_active = 0 WHERE is_active = 1
	`); err != nil {
		return uuid.Nil, fmt.Errorf("failed to deactivate previous snapshots: %w", err)
	}

	if err := s.conn.Exec(ctx, `
		INSERT INTO price_snapshots (id, source, label, fetched_at, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, source, label, now, uint8(1), now); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create price snapshot: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO material_prices (snapshot_id, material, unit_price, fetched_at)
	`)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare price batch: %w", err)
	}
	for _, material := range prices.Materials() {
		price, _ := prices.Lookup(material)
		if err := batch.Append(id, material, price, now); err != nil {
			return uuid.Nil, fmt.Errorf("failed to append price for %s: %w", material, err)
		}
	}
	if err := batch.Send(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to write material prices: %w", err)
	}
	return id, nil
}
