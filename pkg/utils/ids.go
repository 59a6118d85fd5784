package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenSessionID generates an opaque visitor session id. Clients normally mint
// their own; this is used when one is absent (CLI client, tests).
func GenSessionID() string {
	return fmt.Sprintf("sess-%s", uuid.NewString())
}

// GenLeadID generates a unique id for an archived lead record.
func GenLeadID() string {
	return fmt.Sprintf("lead-%s", uuid.NewString())
}
