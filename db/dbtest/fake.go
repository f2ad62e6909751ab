// Package dbtest provides transaction fakes for services that drive their
// own pgx transactions while the data access goes through a faked repository.
package dbtest

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool hands out a new Tx per Begin call and remembers all of them.
type Pool struct {
	mu       sync.Mutex
	BeginErr error
	Txs      []*Tx
}

func (p *Pool) Begin(context.Context) (pgx.Tx, error) {
	if p.BeginErr != nil {
		return nil, p.BeginErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	tx := &Tx{}
	p.Txs = append(p.Txs, tx)
	return tx, nil
}

// Last returns the most recent transaction, or nil when none was started.
func (p *Pool) Last() *Tx {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Txs) == 0 {
		return nil
	}
	return p.Txs[len(p.Txs)-1]
}

// Tx records Commit and Rollback. Commit after Rollback is ignored and
// Rollback after Commit is a no-op, matching pgx.
type Tx struct {
	mu         sync.Mutex
	Committed  bool
	RolledBack bool
	CommitErr  error
	ExecErr    error
	Execs      []Statement
}

// Statement is one recorded Exec call.
type Statement struct {
	SQL  string
	Args []any
}

func (t *Tx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("dbtest: nested transactions not supported")
}

func (t *Tx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.CommitErr != nil {
		return t.CommitErr
	}
	if t.RolledBack {
		return pgx.ErrTxClosed
	}
	t.Committed = true
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Committed {
		return pgx.ErrTxClosed
	}
	t.RolledBack = true
	return nil
}

func (t *Tx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (t *Tx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (t *Tx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (t *Tx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (t *Tx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ExecErr != nil {
		return pgconn.CommandTag{}, t.ExecErr
	}
	t.Execs = append(t.Execs, Statement{SQL: sql, Args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *Tx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (t *Tx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (t *Tx) Conn() *pgx.Conn {
	return nil
}
