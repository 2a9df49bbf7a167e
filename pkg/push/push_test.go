package push

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tokens := make([]string, 1201)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%d", i)
	}

	batches := chunk(tokens, multicastLimit)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 500)
	assert.Len(t, batches[1], 500)
	assert.Len(t, batches[2], 201)
	assert.Equal(t, "tok-1200", batches[2][200])

	assert.Empty(t, chunk(nil, multicastLimit))
}

func TestTokenPrefix(t *testing.T) {
	assert.Equal(t, "short", tokenPrefix("short"))
	assert.Equal(t, "0123456789...", tokenPrefix("0123456789abcdef"))
}

func TestNewFCM_RequiresCredentials(t *testing.T) {
	_, err := NewFCM(context.Background(), "")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	res, err := Noop{}.Send(context.Background(), Message{Title: "t", Tokens: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}
