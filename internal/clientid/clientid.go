// Package clientid generates MQTT client identifiers for callers that don't
// supply their own. MQTT 3.1.1 requires the identifier to be non-empty and
// broker-unique; a random UUID satisfies both without any coordination.
package clientid

import (
	"github.com/google/uuid"
)

// prefix keeps generated ids recognizable in broker logs.
const prefix = "nanomqtt-"

// Generate returns a random client identifier of the form "nanomqtt-<uuid>".
func Generate() string {
	return prefix + uuid.New().String()
}
