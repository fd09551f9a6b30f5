package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExecutor struct{ Executor }

func TestBindNilLeavesContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, Bind(ctx, nil))

	_, ok := Active(ctx)
	assert.False(t, ok)
}

func TestPick(t *testing.T) {
	fallback := &fakeExecutor{}

	t.Run("no transaction uses fallback", func(t *testing.T) {
		assert.Same(t, fallback, Pick(context.Background(), fallback))
	})

	t.Run("bound transaction wins", func(t *testing.T) {
		tx := &sql.Tx{}
		ctx := Bind(context.Background(), tx)
		got, ok := Active(ctx)
		assert.True(t, ok)
		assert.Same(t, tx, got)
		assert.Equal(t, Executor(tx), Pick(ctx, fallback))
	})
}
