package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/semmidev/keeper/internal/config"
	"github.com/semmidev/keeper/internal/domain"
)

const (
	itemsCreateTableQuery = `
		CREATE TABLE IF NOT EXISTS items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL
		)
	`

	itemsSelectAllQuery = `
		SELECT id, name
		FROM items
		ORDER BY id
	`

	itemsInsertQuery = `INSERT INTO items (name) VALUES (?)`

	itemsTruncateQuery = `TRUNCATE TABLE items`
)

// DSN builds the driver connection string for cfg.
func DSN(cfg *config.DatabaseConfig) string {
	dsn := mysql.NewConfig()
	dsn.User = cfg.Username
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dsn.DBName = cfg.Database
	dsn.ParseTime = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}

	return dsn.FormatDSN()
}

// OpenMySQL opens a lazily connected pool. Use WaitReady to block until the
// server accepts connections.
func OpenMySQL(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type RetryLogger interface {
	Warnf(template string, args ...interface{})
}

// WaitReady pings p up to attempts times, sleeping delay between failures.
func WaitReady(ctx context.Context, p Pinger, attempts int, delay time.Duration, logger RetryLogger) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = p.Ping(ctx); err == nil {
			return nil
		}

		logger.Warnf("Database not ready (attempt %d/%d): %v", attempt, attempts, err)

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("database not ready after %d attempts: %w", attempts, err)
}

type ItemRepository struct {
	db *sqlx.DB
}

func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, itemsCreateTableQuery); err != nil {
		return fmt.Errorf("failed to create items table: %w", err)
	}
	return nil
}

func (r *ItemRepository) List(ctx context.Context) ([]domain.Item, error) {
	items := []domain.Item{}

	if err := r.db.SelectContext(ctx, &items, itemsSelectAllQuery); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return items, nil
}

func (r *ItemRepository) Create(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, itemsInsertQuery, name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read item id: %w", err)
	}

	return id, nil
}

func (r *ItemRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, itemsTruncateQuery); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}
	return nil
}

func (r *ItemRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
