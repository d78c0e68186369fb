// Package admission implements the proof-of-work check performed before any
// upload is initiated. Requiring the client to burn a little CPU per upload
// bounds the cost of spam attempts without any server-side rate-limit state.
package admission

import (
	"crypto/sha1"
	"fmt"
	"math/bits"

	"github.com/kachery/gateway/internal/common"
)

// DefaultDifficulty is the required number of leading zero bits in
// SHA1(hash ++ workToken). 13 bits is around 15 milliseconds of client-side
// work.
const DefaultDifficulty = 13

// Gate verifies work tokens. The check is stateless and deterministic: the
// same (hash, token) pair always yields the same verdict.
type Gate struct {
	difficulty int
}

// New returns a gate requiring the given difficulty; a non-positive value
// selects DefaultDifficulty.
func New(difficulty int) *Gate {
	if difficulty <= 0 {
		difficulty = DefaultDifficulty
	}
	return &Gate{difficulty: difficulty}
}

// Difficulty returns the required number of leading zero bits.
func (g *Gate) Difficulty() int { return g.difficulty }

// Check rejects the work token unless SHA1(hash ++ workToken) starts with
// the required number of zero bits.
func (g *Gate) Check(hash, workToken string) error {
	if !Valid(hash, workToken, g.difficulty) {
		return fmt.Errorf("%w: invalid work token", common.ErrValidation)
	}
	return nil
}

// Valid reports whether workToken satisfies the given difficulty for hash.
func Valid(hash, workToken string, difficulty int) bool {
	sum := sha1.Sum([]byte(hash + workToken))
	return leadingZeroBits(sum[:]) >= difficulty
}

func leadingZeroBits(b []byte) int {
	n := 0
	for _, x := range b {
		if x == 0 {
			n += 8
			continue
		}
		n += bits.LeadingZeros8(x)
		break
	}
	return n
}
