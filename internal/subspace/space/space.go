// Package space converts a consensus solution range into an estimate of pledged storage.
package space

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrZeroSolutionRange is returned for a zero or missing solution range.
var ErrZeroSolutionRange = errors.New("solution range must be positive")

// Constants holds the protocol parameters of one era.
type Constants struct {
	Name string
	// PieceSize is the on-disk size of a single piece in bytes.
	PieceSize uint64
	// SlotProbability is the chance that a slot has a solution, as num/den.
	SlotProbabilityNum uint64
	SlotProbabilityDen uint64
	// PiecesPerSector * NumChunks / NumSBuckets is the packing factor.
	PiecesPerSector uint64
	NumChunks       uint64
	NumSBuckets     uint64
}

var (
	// FlatPieces is the era where every audited piece is stored flat.
	FlatPieces = Constants{
		Name:               "flat",
		PieceSize:          4096,
		SlotProbabilityNum: 1,
		SlotProbabilityDen: 6,
		PiecesPerSector:    1,
		NumChunks:          1,
		NumSBuckets:        1,
	}
	// Sectors is the era where pieces are packed into plotted sectors.
	Sectors = Constants{
		Name:               "sector",
		PieceSize:          1048672,
		SlotProbabilityNum: 1,
		SlotProbabilityDen: 6,
		PiecesPerSector:    1000,
		NumChunks:          1 << 15,
		NumSBuckets:        1 << 16,
	}
)

// ParseEra resolves an era by name.
func ParseEra(name string) (Constants, error) {
	switch name {
	case FlatPieces.Name:
		return FlatPieces, nil
	case Sectors.Name:
		return Sectors, nil
	default:
		return Constants{}, fmt.Errorf("unknown space era %q", name)
	}
}

// PackingFactor returns PiecesPerSector * NumChunks / NumSBuckets.
func (c Constants) PackingFactor() *uint256.Int {
	f := new(uint256.Int).Mul(uint256.NewInt(c.PiecesPerSector), uint256.NewInt(c.NumChunks))
	return f.Div(f, uint256.NewInt(c.NumSBuckets))
}

// Estimate returns the pledged space in bytes implied by solutionRange.
// Every division is integer division on 256-bit values; the result is converted
// to float64 only after the final multiplication.
func (c Constants) Estimate(solutionRange *uint256.Int) (float64, error) {
	if solutionRange == nil || solutionRange.IsZero() {
		return 0, ErrZeroSolutionRange
	}
	if c.SlotProbabilityDen == 0 || c.NumSBuckets == 0 {
		return 0, fmt.Errorf("space era %q has a zero denominator", c.Name)
	}
	packing := c.PackingFactor()
	if packing.IsZero() {
		return 0, fmt.Errorf("space era %q has a zero packing factor", c.Name)
	}

	v := uint256.NewInt(math.MaxUint64)
	v.Mul(v, uint256.NewInt(c.SlotProbabilityNum))
	v.Div(v, uint256.NewInt(c.SlotProbabilityDen))
	v.Div(v, packing)
	v.Div(v, solutionRange)
	v.Mul(v, uint256.NewInt(c.PieceSize))

	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f, nil
}
