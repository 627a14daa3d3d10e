package id

import (
	"strings"

	"github.com/google/uuid"
)

const orderIDPrefix = "ORD-"

// Generator issues the identifiers used across the app.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

// NewUID returns a canonical uuid, used for user identities.
func (*Generator) NewUID() string {
	return uuid.NewString()
}

// NewOrderID returns an order identifier of the form ORD-<12 hex chars>.
// It doubles as the correlation key carried in provider session metadata.
func (*Generator) NewOrderID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return orderIDPrefix + raw[:12]
}

// NewProductID returns a 24-hex-character product identifier.
func (*Generator) NewProductID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:24]
}
