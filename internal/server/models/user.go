package models

import (
	"fmt"

	"github.com/kachery/gateway/internal/common"
)

// User is an identity record. The id is an external identity string such as
// "github|login".
type User struct {
	ID                  string
	Name                string
	Email               string
	ResearchDescription string
	// APIKey is the single active API credential, empty if none.
	// Regenerating it invalidates the previous one for all purposes,
	// including cached lookups keyed by it.
	APIKey string
}

// Validate checks the shape of a user read back from the record store.
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user has empty id", common.ErrInternalConsistency)
	}
	return nil
}

// UserUpdate is a partial update of a user.
type UserUpdate struct {
	Name                Field[string]
	Email               Field[string]
	ResearchDescription Field[string]
	APIKey              Field[string]
}
