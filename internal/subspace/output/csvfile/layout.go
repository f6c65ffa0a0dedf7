package csvfile

import (
	"fmt"
	"strconv"

	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
)

// Column renders one field of an output row.
type Column struct {
	Name  string
	Value func(model.OutputRow) string
}

// Layout fixes the columns and delimiter of one output profile.
type Layout struct {
	Name      string
	Delimiter rune
	Columns   []Column
}

var (
	blockNumberColumn = Column{Name: "block_number", Value: func(r model.OutputRow) string {
		return strconv.FormatUint(r.BlockNumber, 10)
	}}
	authorTypeColumn = Column{Name: "author_type", Value: func(r model.OutputRow) string {
		return string(r.Kind)
	}}
	slotColumn = Column{Name: "slot", Value: func(r model.OutputRow) string {
		if r.Slot == nil {
			return ""
		}
		return strconv.FormatUint(*r.Slot, 10)
	}}
	publicKeyColumn = Column{Name: "public_key", Value: func(r model.OutputRow) string {
		if r.PublicKey == nil {
			return ""
		}
		return r.PublicKey.String()
	}}
	rewardAddressColumn = Column{Name: "reward_address", Value: func(r model.OutputRow) string {
		return r.RewardAddress.String()
	}}
	estimatedSpaceColumn = Column{Name: "estimated_space", Value: func(r model.OutputRow) string {
		if r.EstimatedSpace == nil {
			return ""
		}
		return strconv.FormatFloat(*r.EstimatedSpace, 'f', -1, 64)
	}}
)

var (
	// Basic is the minimal profile: who was rewarded for which block.
	Basic = Layout{
		Name:      "basic",
		Delimiter: ',',
		Columns:   []Column{blockNumberColumn, authorTypeColumn, rewardAddressColumn},
	}
	// Full adds the slot, the farmer public key and the space estimate.
	Full = Layout{
		Name:      "full",
		Delimiter: ';',
		Columns: []Column{
			blockNumberColumn,
			authorTypeColumn,
			slotColumn,
			publicKeyColumn,
			rewardAddressColumn,
			estimatedSpaceColumn,
		},
	}
)

// ParseLayout resolves a profile by name.
func ParseLayout(name string) (Layout, error) {
	switch name {
	case Basic.Name:
		return Basic, nil
	case Full.Name:
		return Full, nil
	default:
		return Layout{}, fmt.Errorf("unknown output profile %q", name)
	}
}

// WithDelimiter returns a copy of l using delimiter d.
func (l Layout) WithDelimiter(d rune) Layout {
	l.Delimiter = d
	return l
}

// Header returns the column names.
func (l Layout) Header() []string {
	names := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		names[i] = c.Name
	}
	return names
}

// Fields renders row in column order.
func (l Layout) Fields(row model.OutputRow) []string {
	fields := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		fields[i] = c.Value(row)
	}
	return fields
}
