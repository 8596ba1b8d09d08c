package uow

import (
	"context"
	"errors"
	"sync"

	"github.com/invoicing/backend/internal/domain/shared"
)

type state int

const (
	stateOpen state = iota
	stateCommitted
	stateRolledBack
)

// Lifecycle implements the commit/rollback/close state machine shared by
// every Scope implementation. Implementations embed it and supply the
// engine-specific commit and rollback.
type Lifecycle struct {
	mu       sync.Mutex
	state    state
	commit   func(ctx context.Context) error
	rollback func(ctx context.Context) error
}

// Bind wires the engine hooks. It must be called before the scope is used.
func (l *Lifecycle) Bind(commit, rollback func(ctx context.Context) error) {
	l.commit = commit
	l.rollback = rollback
}

// Commit runs the commit hook once. After a failed commit the scope is
// decided and will not be rolled back again.
func (l *Lifecycle) Commit(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case stateCommitted:
		return nil
	case stateRolledBack:
		return shared.ServiceFailure("commit called on a rolled back unit of work")
	}
	l.state = stateCommitted
	if err := l.commit(ctx); err != nil {
		return shared.StorageFailure("commit", err)
	}
	return nil
}

// Rollback runs the rollback hook unless the scope is already decided
func (l *Lifecycle) Rollback(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rollbackLocked(ctx)
}

func (l *Lifecycle) rollbackLocked(ctx context.Context) error {
	if l.state != stateOpen {
		return nil
	}
	l.state = stateRolledBack
	if err := l.rollback(ctx); err != nil {
		return shared.StorageFailure("rollback", err)
	}
	return nil
}

// Close rolls back an undecided scope. A rollback failure takes precedence
// over err since it leaves the storage state unknown.
func (l *Lifecycle) Close(ctx context.Context, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rbErr := l.rollbackLocked(ctx); rbErr != nil {
		if err == nil {
			return rbErr
		}
		return errors.Join(rbErr, err)
	}
	return err
}

// Committed reports whether Commit was called
func (l *Lifecycle) Committed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == stateCommitted
}
