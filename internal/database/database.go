package database

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/lib/pq"
)

type Database struct {
	DB *gorm.DB
}

func New(databaseURL string) (*Database, error) {
	var db *gorm.DB
	var err error

	isSQLite := strings.HasPrefix(databaseURL, "sqlite://")

	if isSQLite {
		// SQLite for development
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	} else {
		// PostgreSQL for production
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Create tables manually with raw SQL; each driver gets its own
	// dialect since sqlite has no gen_random_uuid or TIMESTAMPTZ.
	createTablesSQL := postgresSchema
	if isSQLite {
		createTablesSQL = sqliteSchema
	}

	err = db.Exec(createTablesSQL).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Database{DB: db}, nil
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS tenants (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		shop_domain TEXT,
		access_token TEXT,
		last_synced_at TIMESTAMPTZ,
		sync_status TEXT DEFAULT 'IDLE',
		sync_error TEXT,
		product_count INTEGER DEFAULT 0,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		external_id TEXT,
		title TEXT NOT NULL,
		short_title TEXT,
		handle TEXT,
		product_url TEXT,
		image_url TEXT,
		vendor TEXT,
		product_type TEXT,
		tags TEXT,
		description TEXT,
		price DECIMAL(10,2) DEFAULT 0,
		compare_at_price DECIMAL(10,2),
		collections TEXT,
		bullet_points TEXT,
		source TEXT DEFAULT 'ADMIN_SYNC',
		status TEXT DEFAULT 'active',
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_products_tenant_external
		ON products (tenant_id, external_id) WHERE external_id <> '';

	CREATE TABLE IF NOT EXISTS sync_attempts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		status TEXT DEFAULT 'RUNNING',
		error TEXT,
		full_sync BOOLEAN DEFAULT false,
		created INTEGER DEFAULT 0,
		updated INTEGER DEFAULT 0,
		processed INTEGER DEFAULT 0,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);
	`

// Application code always supplies ids and timestamps through the model
// hooks, so the sqlite dialect carries no server-side defaults for them.
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		shop_domain TEXT DEFAULT '',
		access_token TEXT DEFAULT '',
		last_synced_at DATETIME,
		sync_status TEXT DEFAULT 'IDLE',
		sync_error TEXT DEFAULT '',
		product_count INTEGER DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		external_id TEXT,
		title TEXT NOT NULL,
		short_title TEXT,
		handle TEXT,
		product_url TEXT,
		image_url TEXT,
		vendor TEXT,
		product_type TEXT,
		tags TEXT,
		description TEXT,
		price REAL DEFAULT 0,
		compare_at_price REAL,
		collections TEXT,
		bullet_points TEXT,
		source TEXT DEFAULT 'ADMIN_SYNC',
		status TEXT DEFAULT 'active',
		created_at DATETIME,
		updated_at DATETIME
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_products_tenant_external
		ON products (tenant_id, external_id) WHERE external_id <> '';

	CREATE TABLE IF NOT EXISTS sync_attempts (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT DEFAULT 'RUNNING',
		error TEXT DEFAULT '',
		full_sync BOOLEAN DEFAULT 0,
		created INTEGER DEFAULT 0,
		updated INTEGER DEFAULT 0,
		processed INTEGER DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);
	`

// OpenSQL opens a plain database/sql handle for maintenance queries that
// bypass gorm. Only valid for PostgreSQL URLs.
func OpenSQL(databaseURL string) (*sql.DB, error) {
	if strings.HasPrefix(databaseURL, "sqlite://") {
		return nil, fmt.Errorf("raw SQL maintenance handle requires PostgreSQL")
	}
	return sql.Open("postgres", databaseURL)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
