package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"
)

// Env holds the database credentials read from the environment.
type Env struct {
	Host     string `env:"FULFILLMENT_PG_HOST" envDefault:"postgres"`
	Port     int    `env:"FULFILLMENT_PG_PORT" envDefault:"5432"`
	User     string `env:"FULFILLMENT_PG_USER,required"`
	Password string `env:"FULFILLMENT_PG_PASSWORD,required"`
	DB       string `env:"FULFILLMENT_PG_DB,required"`
	SSLMode  string `env:"FULFILLMENT_PG_SSLMODE" envDefault:"disable"`
}

func (e Env) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		e.Host, e.Port, e.User, e.Password, e.DB, e.SSLMode,
	)
}

// Querier is the statement surface shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client represents a Postgres client.
type Client struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (p *Client) Pool() *pgxpool.Pool {
	return p.pool
}

// Close closes the database connection for graceful shutdown.
func (p *Client) Close() {
	p.pool.Close()
}

// MustNewClient connects to Postgres and applies migrations.
func MustNewClient() *Client {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		panic(fmt.Sprintf("Failed to parse Postgres env: %v", err))
	}

	config, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		panic(err)
	}
	if maxConns := viper.GetInt32("postgres.max_conns"); maxConns > 0 {
		config.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		panic(err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		panic(err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		panic(err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := goose.Up(db, viper.GetString("postgres.migrations_path")); err != nil &&
		!errors.Is(err, goose.ErrNoNextVersion) {
		panic(err)
	}

	slog.Info("Postgres connected", "host", cfg.Host, "db", cfg.DB)

	return &Client{
		pool: pool,
	}
}
