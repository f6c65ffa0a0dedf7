package model

import "fmt"

// SchemaID selects the pre-runtime digest byte layout.
type SchemaID uint8

const (
	// SchemaCurrent carries both the public key and the reward address.
	SchemaCurrent SchemaID = iota
	// SchemaLegacy carries the public key only.
	SchemaLegacy
)

func (s SchemaID) String() string {
	switch s {
	case SchemaCurrent:
		return "current"
	case SchemaLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("schema(%d)", uint8(s))
	}
}
