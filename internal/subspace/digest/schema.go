package digest

import (
	"fmt"

	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
)

// legacyGenesis lists networks launched before the solution carried a reward address.
// Append a network here once its genesis hash is confirmed against an archive node.
var legacyGenesis = map[model.Hash]string{}

// SelectSchema picks the digest layout for the chain with the given genesis hash.
// extraLegacy extends the built-in table with operator-supplied genesis hashes.
func SelectSchema(genesis model.Hash, extraLegacy ...model.Hash) model.SchemaID {
	if _, ok := legacyGenesis[genesis]; ok {
		return model.SchemaLegacy
	}
	for _, h := range extraLegacy {
		if h == genesis {
			return model.SchemaLegacy
		}
	}
	return model.SchemaCurrent
}

// Mode is the operator's schema choice.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeLegacy  Mode = "legacy"
	ModeCurrent Mode = "current"
)

// Resolve applies the mode, consulting SelectSchema only in auto mode.
func (m Mode) Resolve(genesis model.Hash, extraLegacy ...model.Hash) (model.SchemaID, error) {
	switch m {
	case ModeAuto, "":
		return SelectSchema(genesis, extraLegacy...), nil
	case ModeLegacy:
		return model.SchemaLegacy, nil
	case ModeCurrent:
		return model.SchemaCurrent, nil
	default:
		return 0, fmt.Errorf("%w: unknown schema mode %q", model.ErrConfig, string(m))
	}
}
