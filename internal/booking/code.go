package booking

import (
	"strings"

	"github.com/google/uuid"
)

const codeLength = 8

// NewConfirmationCode returns an 8-character uppercase hex code derived from
// a random UUID. Codes are unique per booking; the column carries a unique
// constraint as the backstop.
func NewConfirmationCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:codeLength])
}
