// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ItsRqtl/TeachCraft/internal/config"
	"github.com/ItsRqtl/TeachCraft/internal/logger"
)

// stubDAO records bootstrap invocations so tests can assert the Initialize
// ordering contract without touching a real schema.
type stubDAO struct {
	name    string
	initErr error
	inits   int
}

func (s *stubDAO) Name() string { return s.name }

func (s *stubDAO) Initialize(ctx context.Context) error {
	s.inits++
	return s.initErr
}

func stubFactory(s *stubDAO) DAOFactory {
	return func(c *Client) DAO { return s }
}

// newTestClient builds a client whose openDB seam hands out sqlmock pools,
// one per Initialize call.
func newTestClient(t *testing.T, factories ...DAOFactory) (*Client, func() sqlmock.Sqlmock) {
	t.Helper()

	c, err := NewClient(config.DB{Host: "localhost", Database: "test"}, nil, logger.Nop(), factories...)
	if err != nil {
		t.Fatalf("unexpected error constructing client: %v", err)
	}

	var mocks []sqlmock.Sqlmock
	c.openDB = func(dsn string) (*sql.DB, error) {
		db, mock, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		mock.MatchExpectationsInOrder(false)
		mock.ExpectClose()
		mocks = append(mocks, mock)
		return db, nil
	}

	latest := func() sqlmock.Sqlmock {
		if len(mocks) == 0 {
			t.Fatal("no pool has been opened yet")
		}
		return mocks[len(mocks)-1]
	}
	return c, latest
}

func TestNewClient_DuplicateDAO(t *testing.T) {
	_, err := NewClient(config.DB{}, nil, logger.Nop(),
		stubFactory(&stubDAO{name: "users"}),
		stubFactory(&stubDAO{name: "users"}),
	)
	if !errors.Is(err, ErrDuplicateDAO) {
		t.Fatalf("expected ErrDuplicateDAO, got %v", err)
	}
}

func TestNewClient_NilDAO(t *testing.T) {
	_, err := NewClient(config.DB{}, nil, logger.Nop(), func(c *Client) DAO { return nil })
	if !errors.Is(err, ErrNilDAO) {
		t.Fatalf("expected ErrNilDAO, got %v", err)
	}
}

func TestClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	dao := &stubDAO{name: "users"}
	c, _ := newTestClient(t, stubFactory(dao))

	// acquisition before Initialize is rejected
	if _, err := c.Acquire(ctx, false); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady before Initialize, got %v", err)
	}

	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("unexpected error initializing: %v", err)
	}
	if dao.inits != 1 {
		t.Errorf("expected 1 DAO bootstrap call, got %d", dao.inits)
	}

	if err := c.Initialize(ctx); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized on second Initialize, got %v", err)
	}

	conn, err := c.Acquire(ctx, false)
	if err != nil {
		t.Fatalf("unexpected error acquiring while ready: %v", err)
	}
	conn.Close()

	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}

	if _, err := c.Acquire(ctx, false); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady after Close, got %v", err)
	}
	if err := c.Close(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady on double Close, got %v", err)
	}

	// CLOSED transitions back to READY through a fresh Initialize
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("unexpected error re-initializing: %v", err)
	}
	if dao.inits != 2 {
		t.Errorf("expected 2 DAO bootstrap calls, got %d", dao.inits)
	}
}

func TestClient_InitializeOpenError(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	boom := errors.New("connection refused")
	open := c.openDB
	c.openDB = func(dsn string) (*sql.DB, error) { return nil, boom }

	if err := c.Initialize(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected open error, got %v", err)
	}

	// a failed Initialize leaves the client retryable
	c.openDB = open
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("unexpected error retrying Initialize: %v", err)
	}
}

func TestClient_InitializeDAOError(t *testing.T) {
	ctx := context.Background()
	dao := &stubDAO{name: "users", initErr: errors.New("schema bootstrap failed")}
	c, _ := newTestClient(t, stubFactory(dao))

	if err := c.Initialize(ctx); !errors.Is(err, dao.initErr) {
		t.Fatalf("expected DAO bootstrap error, got %v", err)
	}
	if _, err := c.Acquire(ctx, false); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady after failed Initialize, got %v", err)
	}

	dao.initErr = nil
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("unexpected error retrying Initialize: %v", err)
	}
}

func TestClient_AcquireInitializing(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	c.db = db

	// bootstrap mode bypasses the readiness gate while the pool is open
	conn, err := c.Acquire(ctx, true)
	if err != nil {
		t.Fatalf("unexpected error acquiring in bootstrap mode: %v", err)
	}
	conn.Close()

	if _, err := c.Acquire(ctx, false); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady outside bootstrap mode, got %v", err)
	}
}

func TestClient_WaitUntilReady(t *testing.T) {
	c, _ := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.WaitUntilReady(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error while not ready, got %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.WaitUntilReady(context.Background())
	}()

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error initializing: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error from waiter: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not resume after Initialize")
	}
}

func TestClient_WithTxCommit(t *testing.T) {
	ctx := context.Background()
	c, latest := newTestClient(t)
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("unexpected error initializing: %v", err)
	}
	mock := latest()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := c.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, "UPDATE users SET verified = TRUE WHERE id = $1", "x")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClient_WithTxRollbackOnError(t *testing.T) {
	ctx := context.Background()
	c, latest := newTestClient(t)
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("unexpected error initializing: %v", err)
	}
	mock := latest()

	boom := errors.New("constraint violated")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := c.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClient_WithTxRollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	c, latest := newTestClient(t)
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("unexpected error initializing: %v", err)
	}
	mock := latest()

	mock.ExpectBegin()
	mock.ExpectRollback()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the panic to be rethrown")
			}
		}()
		_ = c.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
			panic("boom")
		})
	}()

	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
