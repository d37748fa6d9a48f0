package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex rinv_01HZX3K6B9V7Q2YJ4T8R5M0NDE
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	UUID_PREFIX_RECURRING_INVOICE           = "rinv"
	UUID_PREFIX_RECURRING_INVOICE_GENERATED = "rgen"
	UUID_PREFIX_WEBHOOK_EVENT               = "webhook"
)
