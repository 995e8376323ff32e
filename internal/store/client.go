// SPDX-License-Identifier: Apache-2.0

// Package store owns the database connection pool and all user/token
// persistence. Access is funneled through [Client], which gates every
// acquisition behind an explicit readiness state machine, and through DAOs
// registered on it, which are the only components permitted to touch their
// entity family's rows.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ItsRqtl/TeachCraft/internal/config"
	"github.com/ItsRqtl/TeachCraft/internal/crypto"
	"github.com/ItsRqtl/TeachCraft/internal/logger"
	"github.com/ItsRqtl/TeachCraft/migrations"
)

// DBTX is the subset of database/sql used by DAO queries.
// Both *sql.Conn and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DAO is the capability contract every registered data-access object must
// honor. Initialize is the schema bootstrap hook invoked by
// [Client.Initialize] before the ready flag is set.
type DAO interface {
	Name() string
	Initialize(ctx context.Context) error
}

// DAOFactory constructs a DAO bound to the client that owns it.
type DAOFactory func(c *Client) DAO

// Client owns the pooled database connection resource. It exposes scoped
// connection and transaction acquisition, gated behind a readiness state
// machine:
//
//	UNINITIALIZED → Initialize → READY → Close → CLOSED
//
// CLOSED may transition back to READY via a fresh Initialize, since Close
// clears both the pool and the ready flag. All state is per-instance;
// independent clients (e.g. in tests) never share state.
type Client struct {
	cfg     config.DB
	keyring *crypto.Keyring
	logger  *logger.Logger

	daos map[string]DAO

	mu      sync.Mutex
	db      *sql.DB
	ready   bool
	readyCh chan struct{}

	// openDB opens the pool; replaced in tests to inject a mock database.
	openDB func(dsn string) (*sql.DB, error)
}

// NewClient constructs a Client with the keyring injected and every DAO
// factory instantiated and registered by name.
//
// Construction fails with [ErrDuplicateDAO] if two DAOs claim the same name
// and with [ErrNilDAO] if a factory returns nil. Both are configuration
// errors that must abort startup.
func NewClient(cfg config.DB, keyring *crypto.Keyring, log *logger.Logger, factories ...DAOFactory) (*Client, error) {
	c := &Client{
		cfg:     cfg,
		keyring: keyring,
		logger:  log,
		daos:    make(map[string]DAO, len(factories)),
		readyCh: make(chan struct{}),
		openDB:  openPostgres,
	}

	for _, factory := range factories {
		dao := factory(c)
		if dao == nil {
			return nil, ErrNilDAO
		}
		if _, exists := c.daos[dao.Name()]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDAO, dao.Name())
		}
		c.daos[dao.Name()] = dao
	}

	return c, nil
}

// openPostgres opens a pgx-backed *sql.DB for the given DSN.
func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)

	return db, nil
}

// Initialize opens the connection pool, runs each registered DAO's schema
// bootstrap hook in pool-bypassing mode, and finally sets the ready flag.
//
// Valid only while the pool is absent and the ready flag is clear; calling
// it on an already-initialized client returns [ErrAlreadyInitialized]. A
// pool-open or ping failure is fatal to startup and leaves the client in
// its uninitialized state, so a retry is possible.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.db != nil || c.ready {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}

	db, err := c.openDB(c.cfg.DSN())
	if err != nil {
		c.mu.Unlock()
		c.logger.Err(err).Str("func", "*Client.Initialize").Msg("error occured during database connection")
		return fmt.Errorf("error occured during database connection: %w", err)
	}
	c.db = db
	c.mu.Unlock()

	if err := db.PingContext(ctx); err != nil {
		c.teardown()
		c.logger.Err(err).Str("func", "*Client.Initialize").Msg("error connecting database (ping)")
		return fmt.Errorf("error connecting database (ping): %w", err)
	}

	// Schema bootstrap runs before the ready flag is set; DAO hooks use
	// initializing-mode acquisition to bypass the readiness gate.
	for name, dao := range c.daos {
		if err := dao.Initialize(ctx); err != nil {
			c.teardown()
			c.logger.Err(err).Str("dao", name).Msg("DAO schema bootstrap failed")
			return fmt.Errorf("initializing %q dao: %w", name, err)
		}
	}

	c.mu.Lock()
	c.ready = true
	close(c.readyCh)
	c.mu.Unlock()

	c.logger.Info().Str("func", "*Client.Initialize").Msg("connected to database successfully")
	return nil
}

// teardown reverts a partially completed Initialize.
func (c *Client) teardown() {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.mu.Unlock()

	if db != nil {
		_ = db.Close()
	}
}

// WaitUntilReady suspends the caller until the ready flag is set or ctx is
// cancelled. It never times out on its own.
//
// Readiness is not guaranteed to persist after the caller resumes: a
// concurrent Close may race in, in which case subsequent acquisitions will
// correctly fail with [ErrNotReady].
func (c *Client) WaitUntilReady(ctx context.Context) error {
	c.mu.Lock()
	ch := c.readyCh
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close clears the ready flag first, so new acquisitions are rejected
// immediately, then closes the pool, waiting for in-flight connections to
// drain. Returns [ErrNotReady] if the client is not currently ready.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.ready || c.db == nil {
		c.mu.Unlock()
		return ErrNotReady
	}
	c.ready = false
	c.readyCh = make(chan struct{}) // future waiters block until re-Initialize
	db := c.db
	c.db = nil
	c.mu.Unlock()

	if err := db.Close(); err != nil {
		return fmt.Errorf("closing connection pool: %w", err)
	}

	c.logger.Info().Str("func", "*Client.Close").Msg("database connection pool closed")
	return nil
}

// Acquire checks out one pooled connection. It returns [ErrNotReady] unless
// the ready flag is set or initializing is true (bootstrap mode, used by DAO
// schema hooks before readiness).
//
// The caller owns the connection for the duration of its scope and must
// close it on every exit path; prefer [Client.WithConn] which guarantees it.
func (c *Client) Acquire(ctx context.Context, initializing bool) (*sql.Conn, error) {
	c.mu.Lock()
	db := c.db
	ok := c.ready || initializing
	c.mu.Unlock()

	if db == nil || !ok {
		return nil, ErrNotReady
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}

	return conn, nil
}

// WithConn runs fn with one pooled connection and returns it to the pool on
// every exit path, including panic.
func (c *Client) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	conn, err := c.Acquire(ctx, false)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// WithTx runs fn inside a transaction on one pooled connection: begin, fn,
// commit on success, rollback on error or panic (panics are rethrown). The
// original error from fn is re-surfaced after rollback. No transaction is
// ever left open past the scope boundary: cancellation mid-transaction
// still rolls back before the connection is released.
func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) (err error) {
	conn, err := c.Acquire(ctx, false)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("%w: %w", ErrCommittingTransaction, cerr)
		}
	}()

	err = fn(ctx, tx)
	return err
}

// migrate applies the embedded schema migrations. Used by DAO bootstrap
// hooks during Initialize; requires the pool to be open.
func (c *Client) migrate(ctx context.Context) error {
	c.mu.Lock()
	db := c.db
	c.mu.Unlock()

	if db == nil {
		return ErrNotReady
	}

	return migrations.Migrate(ctx, db)
}

// Keyring returns the keyring injected at construction.
func (c *Client) Keyring() *crypto.Keyring {
	return c.keyring
}

// Users returns the registered users DAO, or nil if it was not registered.
func (c *Client) Users() *UsersDAO {
	dao, _ := c.daos[usersDAOName].(*UsersDAO)
	return dao
}
