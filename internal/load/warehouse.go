package load

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/schema"
)

// WarehouseConfig contains warehouse database configuration.
type WarehouseConfig struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// Warehouse writes canonical tables to Postgres. Each run fully
// refreshes a data type's table inside one transaction, so re-running
// the pipeline on the same inputs leaves the warehouse unchanged.
type Warehouse struct {
	db     *sqlx.DB
	logger *zap.Logger
}

var warehouseTables = map[schema.DataType]string{
	schema.Keywords: "aso_keywords",
	schema.Installs: "aso_installs",
	schema.Users:    "aso_users",
}

var warehouseDDL = []string{
	`CREATE TABLE IF NOT EXISTS aso_keywords (
		date DATE NOT NULL,
		rank_1 DOUBLE PRECISION,
		rank_2_3 DOUBLE PRECISION,
		rank_4_10 DOUBLE PRECISION,
		rank_11_30 DOUBLE PRECISION,
		rank_31_100 DOUBLE PRECISION,
		rank_100_plus DOUBLE PRECISION,
		platform TEXT NOT NULL,
		stage TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS aso_installs (
		date DATE NOT NULL,
		installs DOUBLE PRECISION,
		platform TEXT NOT NULL,
		stage TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS aso_users (
		date DATE NOT NULL,
		active_users DOUBLE PRECISION,
		platform TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		stage TEXT NOT NULL
	)`,
}

// NewWarehouse connects to the warehouse and verifies the connection.
func NewWarehouse(cfg WarehouseConfig, logger *zap.Logger) (*Warehouse, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to warehouse: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Info("warehouse connected",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))
	return &Warehouse{db: db, logger: logger}, nil
}

// NewWarehouseWithDB wraps an existing database handle. Used by tests.
func NewWarehouseWithDB(db *sql.DB, logger *zap.Logger) *Warehouse {
	return &Warehouse{db: sqlx.NewDb(db, "postgres"), logger: logger}
}

// Close releases the database handle.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// EnsureSchema creates the warehouse tables when missing.
func (w *Warehouse) EnsureSchema(ctx context.Context) error {
	for _, ddl := range warehouseDDL {
		if _, err := w.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating warehouse schema: %w", err)
		}
	}
	return nil
}

// Replace refreshes one data type's warehouse table from a canonical
// table: delete everything, batch-insert the new rows, commit.
func (w *Warehouse) Replace(ctx context.Context, table *schema.Table) error {
	name, ok := warehouseTables[table.Type]
	if !ok {
		return fmt.Errorf("unknown data type %q", table.Type)
	}

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning warehouse transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
		return fmt.Errorf("clearing %s: %w", name, err)
	}

	if len(table.Rows) > 0 {
		query, args := buildInsert(name, table)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s refresh: %w", name, err)
	}

	w.logger.Info("warehouse table refreshed",
		zap.String("table", name),
		zap.Int("rows", len(table.Rows)))
	return nil
}

// buildInsert assembles one multi-row insert with positional
// placeholders, columns in the warehouse order for the data type.
func buildInsert(name string, table *schema.Table) (string, []interface{}) {
	numeric := schema.NumericColumns(table.Type)
	// date + numerics + platform (+ notes) + stage
	perRow := len(numeric) + 3
	if table.Type == schema.Users {
		perRow++
	}

	cols := []string{"date"}
	for _, c := range numeric {
		cols = append(cols, strings.ToLower(c))
	}
	cols = append(cols, "platform")
	if table.Type == schema.Users {
		cols = append(cols, "notes")
	}
	cols = append(cols, "stage")

	valueStrings := make([]string, 0, len(table.Rows))
	args := make([]interface{}, 0, len(table.Rows)*perRow)
	for i, row := range table.Rows {
		placeholders := make([]string, perRow)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*perRow+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")

		args = append(args, row.Date)
		for _, c := range numeric {
			if v, ok := row.Fields[c].Value(); ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		args = append(args, string(row.Platform))
		if table.Type == schema.Users {
			args = append(args, row.Notes)
		}
		args = append(args, row.Stage)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		name, strings.Join(cols, ", "), strings.Join(valueStrings, ", "))
	return query, args
}
