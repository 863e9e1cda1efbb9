package composables

import (
	"context"
	"sync"

	"github.com/iota-uz/precinct/pkg/constants"
)

// Transactor runs a unit of work atomically. Services depend on it instead of
// a concrete database so that the same code runs against Postgres and the
// in-memory store.
type Transactor interface {
	InTx(ctx context.Context, fn func(context.Context) error) error
}

func InTxResult[T any](ctx context.Context, t Transactor, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := t.InTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}

// PoolTransactor uses the pgx pool bound to ctx.
type PoolTransactor struct{}

func NewPoolTransactor() PoolTransactor { return PoolTransactor{} }

func (PoolTransactor) InTx(ctx context.Context, fn func(context.Context) error) error {
	return InTenantTx(ctx, fn)
}

// MemoryTransactor serializes units of work over the in-memory repositories.
// Repositories register undo steps with OnRollback so a failed unit leaves
// no partial writes behind.
type MemoryTransactor struct {
	mu sync.Mutex
}

func NewMemoryTransactor() *MemoryTransactor {
	return &MemoryTransactor{}
}

func (m *MemoryTransactor) InTx(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(constants.AfterCommitKey).(*txState); ok {
		return fn(ctx)
	}

	state := &txState{}
	if err := m.run(withTxState(ctx, state), state, fn); err != nil {
		return err
	}
	state.commit(ctx)
	return nil
}

// run holds the lock for fn only. A panicking fn is rolled back and the
// panic propagates with the lock released.
func (m *MemoryTransactor) run(ctx context.Context, state *txState, fn func(context.Context) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			state.rollback()
			panic(r)
		}
	}()
	if err = fn(ctx); err != nil {
		state.rollback()
	}
	return err
}

type txState struct {
	mu          sync.Mutex
	afterCommit []func(context.Context)
	undo        []func()
}

func withTxState(ctx context.Context, s *txState) context.Context {
	return context.WithValue(ctx, constants.AfterCommitKey, s)
}

func (s *txState) commit(ctx context.Context) {
	s.mu.Lock()
	hooks := s.afterCommit
	s.afterCommit = nil
	s.undo = nil
	s.mu.Unlock()
	// Hooks outlive the request that triggered them.
	bg := context.WithoutCancel(ctx)
	bg = context.WithValue(bg, constants.AfterCommitKey, nil)
	bg = context.WithValue(bg, constants.TxKey, nil)
	for _, h := range hooks {
		h(bg)
	}
}

func (s *txState) rollback() {
	s.mu.Lock()
	undo := s.undo
	s.undo = nil
	s.afterCommit = nil
	s.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

// AfterCommit schedules fn to run once the surrounding transaction commits.
// Without a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	s, ok := ctx.Value(constants.AfterCommitKey).(*txState)
	if !ok || s == nil {
		fn(ctx)
		return
	}
	s.mu.Lock()
	s.afterCommit = append(s.afterCommit, fn)
	s.mu.Unlock()
}

// OnRollback registers an undo step for the surrounding in-memory unit of work.
func OnRollback(ctx context.Context, undo func()) {
	s, ok := ctx.Value(constants.AfterCommitKey).(*txState)
	if !ok || s == nil {
		return
	}
	s.mu.Lock()
	s.undo = append(s.undo, undo)
	s.mu.Unlock()
}
