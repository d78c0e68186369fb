// Package worktoken mines upload work tokens by brute force: random
// candidates are drawn until one satisfies the gateway's proof-of-work
// difficulty for the given content hash.
package worktoken

import (
	"context"
	"encoding/hex"

	"crypto/rand"

	"github.com/kachery/gateway/internal/server/admission"
)

// Mine returns a work token valid for hash at the given difficulty. At the
// default difficulty this takes on the order of 2^13 attempts. ctx bounds
// the search.
func Mine(ctx context.Context, hash string, difficulty int) (string, error) {
	buf := make([]byte, 8)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		token := hex.EncodeToString(buf)
		if admission.Valid(hash, token, difficulty) {
			return token, nil
		}
	}
}
