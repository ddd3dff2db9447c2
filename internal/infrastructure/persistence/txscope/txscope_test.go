package txscope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAfterCommit_RunsOnCommitInOrder(t *testing.T) {
	parent := context.Background()
	ctx, scope := Begin(parent)
	var ran []string

	assert.True(t, Active(ctx))
	assert.True(t, AfterCommit(ctx, func(context.Context) { ran = append(ran, "first") }))
	assert.True(t, AfterCommit(ctx, func(context.Context) { ran = append(ran, "second") }))
	assert.Empty(t, ran)

	scope.Committed(parent)

	assert.Equal(t, []string{"first", "second"}, ran)
	assert.False(t, Active(ctx))
	assert.False(t, AfterCommit(ctx, func(context.Context) {}))
}

func TestAfterCommit_DroppedOnRollback(t *testing.T) {
	ctx, scope := Begin(context.Background())
	ran := false
	AfterCommit(ctx, func(context.Context) { ran = true })

	scope.Discard()
	scope.Committed(context.Background())

	assert.False(t, ran)
}

func TestAfterCommit_NoTransaction(t *testing.T) {
	ctx := context.Background()

	assert.False(t, Active(ctx))
	assert.False(t, AfterCommit(ctx, func(context.Context) { t.Fatal("must not be queued") }))
}
