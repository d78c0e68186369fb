package worktoken

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kachery/gateway/internal/server/admission"
)

const testHash = "da39a3ee5e6b4b0d3255bfef95601890afd80709"

func TestMine_ProducesValidToken(t *testing.T) {
	// Low difficulty keeps the test fast; one in 2^6 candidates passes.
	token, err := Mine(context.Background(), testHash, 6)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, admission.Valid(testHash, token, 6))
}

func TestMine_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	_, err := Mine(ctx, testHash, 30)
	require.Error(t, err)
}
