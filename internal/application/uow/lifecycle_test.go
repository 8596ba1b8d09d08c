package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hooks struct {
	commits, rollbacks int
	commitErr          error
	rollbackErr        error
}

func (h *hooks) bind() *Lifecycle {
	l := &Lifecycle{}
	l.Bind(
		func(context.Context) error { h.commits++; return h.commitErr },
		func(context.Context) error { h.rollbacks++; return h.rollbackErr },
	)
	return l
}

func TestLifecycle_CommitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := &hooks{}
	l := h.bind()

	require.NoError(t, l.Commit(ctx))
	require.NoError(t, l.Commit(ctx))
	require.NoError(t, l.Rollback(ctx))
	require.NoError(t, l.Close(ctx, nil))

	assert.Equal(t, 1, h.commits)
	assert.Zero(t, h.rollbacks)
	assert.True(t, l.Committed())
}

func TestLifecycle_CloseRollsBackUndecided(t *testing.T) {
	ctx := context.Background()
	h := &hooks{}
	l := h.bind()
	handlerErr := shared.Validation("bad input")

	err := l.Close(ctx, handlerErr)

	assert.Same(t, handlerErr, err)
	assert.Equal(t, 1, h.rollbacks)
	assert.False(t, l.Committed())
	assert.ErrorIs(t, l.Commit(ctx), shared.ErrService)
	assert.Zero(t, h.commits)
}

func TestLifecycle_RollbackFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("joined with the handler error", func(t *testing.T) {
		h := &hooks{rollbackErr: errors.New("conn lost")}
		handlerErr := shared.NotFound("invoices")

		err := h.bind().Close(ctx, handlerErr)

		assert.ErrorIs(t, err, shared.ErrStorage)
		assert.ErrorIs(t, err, handlerErr)
	})

	t.Run("reported on its own", func(t *testing.T) {
		h := &hooks{rollbackErr: errors.New("conn lost")}
		err := h.bind().Close(ctx, nil)
		assert.Equal(t, shared.CodeStorage, shared.CodeOf(err))
	})
}

func TestLifecycle_FailedCommitIsDecided(t *testing.T) {
	ctx := context.Background()
	h := &hooks{commitErr: errors.New("serialization failure")}
	l := h.bind()

	err := l.Commit(ctx)
	assert.ErrorIs(t, err, shared.ErrStorage)

	require.NoError(t, l.Close(ctx, nil))
	assert.Zero(t, h.rollbacks)
}

type fakeUoW struct {
	h *hooks
}

type fakeScope struct {
	Repositories
	*Lifecycle
}

func (f fakeUoW) Begin(context.Context) (Scope, error) {
	return fakeScope{Lifecycle: f.h.bind()}, nil
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		h := &hooks{}
		require.NoError(t, Execute(ctx, fakeUoW{h}, func(Scope) error { return nil }))
		assert.Equal(t, 1, h.commits)
		assert.Zero(t, h.rollbacks)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		h := &hooks{}
		err := Execute(ctx, fakeUoW{h}, func(Scope) error { return shared.Validation("no") })
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Zero(t, h.commits)
		assert.Equal(t, 1, h.rollbacks)
	})
}
