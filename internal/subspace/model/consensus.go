package model

import "github.com/holiman/uint256"

// Solution identifies the farmer credited with a block.
type Solution struct {
	PublicKey     AccountID
	RewardAddress AccountID
	// ExplicitRewardAddress is false when the digest layout carries no reward
	// address and RewardAddress was filled from PublicKey.
	ExplicitRewardAddress bool
}

// PreDigest is the decoded consensus pre-runtime digest.
type PreDigest struct {
	Slot     uint64
	Solution Solution
}

// VoteEvent is a decoded subspace.FarmerVote event.
type VoteEvent struct {
	PublicKey     AccountID
	RewardAddress AccountID
	Height        uint64
	ParentHash    Hash
}

// Event is a runtime event with its fields kept as raw encoded bytes.
type Event struct {
	Section string
	Method  string
	Data    [][]byte
}

// IsFarmerVote reports whether the event is a subspace.FarmerVote.
func (e Event) IsFarmerVote() bool {
	return e.Section == "subspace" && e.Method == "FarmerVote"
}

// SolutionRanges is the Subspace.SolutionRanges storage value at some block.
type SolutionRanges struct {
	Current *uint256.Int
}
