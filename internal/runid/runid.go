// Package runid generates identifiers for verification runs.
package runid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a new run ID of the form "run-<uuid>", unique across
// concurrent invocations on this or any other host.
func New() string {
	return fmt.Sprintf("run-%s", uuid.NewString())
}
