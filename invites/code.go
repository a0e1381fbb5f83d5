package invites

import (
	"strings"

	"github.com/google/uuid"
)

const CodeLength = 8

// NewCode returns an invite code of CodeLength uppercase hex characters cut
// from a random UUID.
func NewCode() string {
	return strings.ToUpper(uuid.NewString()[:CodeLength])
}
