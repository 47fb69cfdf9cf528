package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ossy/pkg/errors"
)

func TestRegistry(t *testing.T) {
	echo := New("echo", "Echo the arguments", Schema{"type": "object"}, func(ctx context.Context, args string) (string, error) {
		return args, nil
	})
	registry := NewRegistry(NewFilterTokensTool(&mockFilter{}), echo)

	assert.Equal(t, []string{"echo", "filterTokens"}, registry.List())

	got, ok := registry.Get("echo")
	require.True(t, ok)
	out, err := got.Call(context.Background(), `{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)

	_, err = registry.Lookup("missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	defs := registry.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "filterTokens", defs[1].Name)
	assert.NotEmpty(t, defs[1].Parameters["properties"])
}

func TestFunctionTool_NoHandler(t *testing.T) {
	_, err := New("empty", "", nil, nil).Call(context.Background(), "{}")
	assert.ErrorIs(t, err, errors.ErrInternal)
}
