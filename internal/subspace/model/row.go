package model

// RowKind is the author_type column value.
type RowKind string

var (
	RowBlock RowKind = "block"
	RowVote  RowKind = "vote"
)

// OutputRow is one attributable event written to the output file.
type OutputRow struct {
	BlockNumber    uint64
	Kind           RowKind
	Slot           *uint64
	PublicKey      *AccountID
	RewardAddress  AccountID
	EstimatedSpace *float64
}
