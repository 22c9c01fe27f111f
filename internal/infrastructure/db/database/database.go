// Package database is the single place that hands out SQL access: a raw
// query client, a connection pool for multi-statement transactions, and an
// ORM client. The deployment mode is fixed at construction.
//
// In serverless mode no connection outlives a call: raw queries open and
// close their own connection, the pool is unavailable, and transactions run
// through the ORM. In pooled mode a pgx pool is created on first use and kept
// for the process lifetime.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tablewise/restaurant-backoffice/internal/pkg/metrics"
)

// Mode selects the connection strategy.
type Mode string

const (
	ModeServerless Mode = "serverless"
	ModePooled     Mode = "pooled"
)

var (
	ErrInvalidConnectionString = errors.New("database: invalid connection string")
	ErrPoolUnavailable         = errors.New("database: connection pool is not available in serverless mode")
)

// Config captures the settings resolved once at startup.
type Config struct {
	URL        string
	Mode       Mode
	MaxConns   int32
	Production bool
}

// Statement is one parameterized SQL statement of a transaction.
type Statement struct {
	SQL  string
	Args []any
}

// Stmt builds a Statement.
func Stmt(sql string, args ...any) Statement {
	return Statement{SQL: sql, Args: args}
}

// Option customises a Manager.
type Option func(*Manager)

// WithDialector replaces the ORM dialector. The raw SQL client is unaffected.
func WithDialector(d gorm.Dialector) Option {
	return func(m *Manager) { m.dialector = d }
}

// Manager owns the process-wide database clients. Each client is built at
// most once, on first use; a failed build is retried on the next call.
type Manager struct {
	cfg       Config
	url       string
	connCfg   *pgx.ConnConfig
	poolCfg   *pgxpool.Config
	dialector gorm.Dialector
	log       zerolog.Logger

	sqlMu sync.Mutex
	sql   SQLClient

	poolMu sync.Mutex
	pool   *pgxpool.Pool

	ormMu sync.Mutex
	orm   *gorm.DB
}

// New validates the connection string and returns a Manager. No connection
// is opened here.
func New(cfg Config, log zerolog.Logger, opts ...Option) (*Manager, error) {
	if cfg.Mode != ModeServerless && cfg.Mode != ModePooled {
		return nil, fmt.Errorf("database: unknown mode %q", cfg.Mode)
	}

	url, err := NormalizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	connCfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	m := &Manager{
		cfg:     cfg,
		url:     url,
		connCfg: connCfg,
		log:     log.With().Str("component", "database").Str("mode", string(cfg.Mode)).Logger(),
	}

	if cfg.Mode == ModePooled {
		poolCfg, err := pgxpool.ParseConfig(url)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
		}
		if cfg.MaxConns > 0 {
			poolCfg.MaxConns = cfg.MaxConns
		}
		m.poolCfg = poolCfg
	}

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NormalizeURL cleans a connection string copied from a dashboard or shell:
// surrounding whitespace and quotes are removed, as is a leading
// "DATABASE_URL=" or "psql " prefix.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	for range 2 {
		s = strings.Trim(s, `"'`)
		s = strings.TrimPrefix(s, "DATABASE_URL=")
		s = strings.TrimPrefix(s, "psql ")
		s = strings.TrimSpace(s)
	}

	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidConnectionString)
	}
	if !strings.HasPrefix(s, "postgres://") && !strings.HasPrefix(s, "postgresql://") {
		return "", fmt.Errorf("%w: expected postgres:// or postgresql:// scheme", ErrInvalidConnectionString)
	}
	return s, nil
}

// Mode returns the connection strategy chosen at construction.
func (m *Manager) Mode() Mode { return m.cfg.Mode }

// SQLClient returns the raw query client.
func (m *Manager) SQLClient() SQLClient {
	m.sqlMu.Lock()
	defer m.sqlMu.Unlock()

	if m.sql == nil {
		if m.cfg.Mode == ModeServerless {
			m.sql = &serverlessClient{cfg: m.connCfg}
		} else {
			m.sql = &poolClient{m: m}
		}
		m.log.Debug().Msg("sql client created")
	}
	return m.sql
}

// Pool returns the shared connection pool. It fails with ErrPoolUnavailable
// in serverless mode.
func (m *Manager) Pool() (*pgxpool.Pool, error) {
	if m.cfg.Mode == ModeServerless {
		return nil, ErrPoolUnavailable
	}

	m.poolMu.Lock()
	defer m.poolMu.Unlock()

	if m.pool != nil {
		return m.pool, nil
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), m.poolCfg)
	if err != nil {
		m.log.Error().Err(err).Msg("connection pool creation failed")
		return nil, fmt.Errorf("create pool: %w", err)
	}
	m.pool = pool
	m.log.Info().Int32("max_conns", m.poolCfg.MaxConns).Msg("connection pool created")
	return m.pool, nil
}

// ORM returns the shared GORM client bound to the same database.
func (m *Manager) ORM() (*gorm.DB, error) {
	m.ormMu.Lock()
	defer m.ormMu.Unlock()

	if m.orm != nil {
		return m.orm, nil
	}

	dialector := m.dialector
	if dialector == nil {
		dialector = postgres.New(postgres.Config{DSN: m.url})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(m.log, m.cfg.Production),
		TranslateError: true,
	})
	if err != nil {
		m.log.Error().Err(err).Msg("orm client creation failed")
		return nil, fmt.Errorf("open orm: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("orm connection pool: %w", err)
	}
	if m.cfg.Mode == ModeServerless {
		sqlDB.SetMaxIdleConns(0)
	} else if m.cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(int(m.cfg.MaxConns))
	}

	m.orm = db
	m.log.Info().Msg("orm client created")
	return m.orm, nil
}

// ExecuteQuery runs one statement. Failures are logged with the query and its
// parameters and returned unchanged.
func (m *Manager) ExecuteQuery(ctx context.Context, query string, args ...any) ([]Row, error) {
	start := time.Now()
	rows, err := m.SQLClient().Query(ctx, query, args...)
	metrics.ObserveDB("query", start, err)
	if err != nil {
		m.log.Error().
			Err(err).
			Str("query", query).
			Interface("params", args).
			Msg("database query failed")
		return nil, err
	}
	return rows, nil
}

// ExecuteTransaction runs all statements atomically: either every statement
// takes effect or none does.
func (m *Manager) ExecuteTransaction(ctx context.Context, stmts []Statement) error {
	if len(stmts) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	if m.cfg.Mode == ModeServerless {
		err = m.ormTransaction(ctx, stmts)
	} else {
		err = m.poolTransaction(ctx, stmts)
	}
	metrics.ObserveDB("transaction", start, err)

	if err != nil {
		queries := make([]string, len(stmts))
		for i, s := range stmts {
			queries[i] = s.SQL
		}
		m.log.Error().Err(err).Strs("queries", queries).Msg("database transaction failed")
		return err
	}
	return nil
}

func (m *Manager) ormTransaction(ctx context.Context, stmts []Statement) error {
	db, err := m.ORM()
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, s := range stmts {
			if err := tx.Exec(s.SQL, s.Args...).Error; err != nil {
				return fmt.Errorf("statement %d: %w", i, err)
			}
		}
		return nil
	})
}

// txConn is the part of a pooled connection a transaction needs.
type txConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Release()
}

var _ txConn = (*pgxpool.Conn)(nil)

func (m *Manager) poolTransaction(ctx context.Context, stmts []Statement) error {
	pool, err := m.Pool()
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	return batchTransaction(ctx, conn, stmts)
}

// batchTransaction pipelines every statement in one batch inside an explicit
// transaction on conn. The connection is released on every path.
func batchTransaction(ctx context.Context, conn txConn, stmts []Statement) (err error) {
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	batch := &pgx.Batch{}
	for _, s := range stmts {
		batch.Queue(Rebind(s.SQL), s.Args...)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range stmts {
		if _, err = results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Ping checks connectivity with a trivial query.
func (m *Manager) Ping(ctx context.Context) error {
	_, err := m.ExecuteQuery(ctx, "SELECT 1")
	return err
}

// Close drains the pool and closes the ORM connections. Clients are rebuilt
// if used again afterwards.
func (m *Manager) Close() error {
	m.poolMu.Lock()
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
		m.log.Info().Msg("connection pool closed")
	}
	m.poolMu.Unlock()

	m.ormMu.Lock()
	defer m.ormMu.Unlock()
	if m.orm == nil {
		return nil
	}
	sqlDB, err := m.orm.DB()
	if err != nil {
		return fmt.Errorf("orm connection pool: %w", err)
	}
	m.orm = nil
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close orm: %w", err)
	}
	m.log.Info().Msg("orm client closed")
	return nil
}
