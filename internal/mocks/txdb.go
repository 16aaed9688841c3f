package mocks

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
)

// TxRecorder observes transaction lifecycle events on a database handle
// created with NewTxDB. It lets service tests assert that work ran inside a
// transaction without a real database: the stores under test are mocks, so
// no statements ever reach the driver, only Begin/Commit/Rollback do.
type TxRecorder struct {
	mu        sync.Mutex
	begins    int
	commits   int
	rollbacks int

	// BeginErr, when set, makes every transaction fail to begin.
	BeginErr error

	// CommitErr, when set, makes every commit fail.
	CommitErr error
}

func (r *TxRecorder) Begins() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.begins
}

func (r *TxRecorder) Commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

func (r *TxRecorder) Rollbacks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rollbacks
}

// NewTxDB returns a database handle whose only supported operations are
// transaction begin, commit, and rollback, all recorded on rec.
func NewTxDB(rec *TxRecorder) *sql.DB {
	return sql.OpenDB(&txConnector{rec: rec})
}

type txConnector struct {
	rec *TxRecorder
}

func (c *txConnector) Connect(context.Context) (driver.Conn, error) {
	return &txConn{rec: c.rec}, nil
}

func (c *txConnector) Driver() driver.Driver {
	return txDriver{}
}

type txDriver struct{}

func (txDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("txdb supports OpenConnector only")
}

type txConn struct {
	rec *TxRecorder
}

func (c *txConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("txdb does not support statements")
}

func (c *txConn) Close() error {
	return nil
}

func (c *txConn) Begin() (driver.Tx, error) {
	c.rec.mu.Lock()
	defer c.rec.mu.Unlock()
	if c.rec.BeginErr != nil {
		return nil, c.rec.BeginErr
	}
	c.rec.begins++
	return &txHandle{rec: c.rec}, nil
}

type txHandle struct {
	rec *TxRecorder
}

func (t *txHandle) Commit() error {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	if t.rec.CommitErr != nil {
		return t.rec.CommitErr
	}
	t.rec.commits++
	return nil
}

func (t *txHandle) Rollback() error {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	t.rec.rollbacks++
	return nil
}
