package substrate

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/digest"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
	"github.com/stretchr/testify/require"
)

func filled(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

type testVote struct {
	publicKey, rewardAddress, parentHash byte
	height                               uint32
}

// testEvents encodes System.Events holding one ExtrinsicSuccess followed by the given votes.
func testEvents(votes ...testVote) []byte {
	var w scaleWriter
	w.compact(uint64(1 + len(votes)))

	w.u8(2) // Phase::Initialization
	w.u8(0) // System
	w.u8(0) // ExtrinsicSuccess
	w.u32(5)
	w.compact(0)

	for i, v := range votes {
		w.u8(0) // Phase::ApplyExtrinsic
		w.u32(uint32(i + 1))
		w.u8(subspacePalletIndex)
		w.u8(0) // FarmerVote
		w.raw(filled(v.publicKey))
		w.raw(filled(v.rewardAddress))
		w.u32(v.height)
		w.raw(filled(v.parentHash))
		w.compact(1)
		w.raw(filled(0xee))
	}
	return w.buf
}

func testDecoder(t *testing.T) *EventDecoder {
	t.Helper()
	dec, err := NewEventDecoder(testMetadata())
	require.NoError(t, err)
	return dec
}

func TestEventDecoderDecode(t *testing.T) {
	dec := testDecoder(t)

	events, err := dec.Decode(testEvents(
		testVote{publicKey: 0x01, rewardAddress: 0x02, parentHash: 0x03, height: 7},
		testVote{publicKey: 0x04, rewardAddress: 0x05, parentHash: 0x06, height: 8},
	))
	require.NoError(t, err)
	require.Len(t, events, 3)

	weight := binary.LittleEndian.AppendUint32(nil, 5)
	require.Equal(t, model.Event{Section: "system", Method: "ExtrinsicSuccess", Data: [][]byte{weight}}, events[0])
	require.False(t, events[0].IsFarmerVote())

	height := binary.LittleEndian.AppendUint32(nil, 7)
	require.Equal(t, model.Event{
		Section: "subspace",
		Method:  "FarmerVote",
		Data:    [][]byte{filled(0x01), filled(0x02), height, filled(0x03)},
	}, events[1])
	require.True(t, events[1].IsFarmerVote())

	vote, err := digest.DecodeVoteEvent(events[2].Data)
	require.NoError(t, err)
	require.Equal(t, uint64(8), vote.Height)
	require.Equal(t, model.AccountID(filled(0x04)), vote.PublicKey)
	require.Equal(t, model.AccountID(filled(0x05)), vote.RewardAddress)
	require.Equal(t, model.Hash(filled(0x06)), vote.ParentHash)
}

func TestEventDecoderEmpty(t *testing.T) {
	events, err := testDecoder(t).Decode([]byte{0})
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestEventDecoderErrors(t *testing.T) {
	valid := testEvents(testVote{publicKey: 1, rewardAddress: 2, parentHash: 3, height: 4})

	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: nil},
		{name: "truncated", raw: valid[:len(valid)-10]},
		{name: "unknown pallet", raw: []byte{4, 2, 0x63, 0, 0}},
		{name: "count beyond input", raw: []byte{0x08, 2, 0, 0, 0}},
		{name: "huge count", raw: []byte{0x13, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testDecoder(t).Decode(tt.raw)
			require.ErrorIs(t, err, model.ErrDecode)
		})
	}
}

func TestEncodeValue(t *testing.T) {
	got, err := encodeValue([]any{types.NewU8(1), types.NewU8(2)})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, got)

	got, err = encodeValue(nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGuardRecoversPanics(t *testing.T) {
	err := guard("events", func() error {
		var b []byte
		_ = b[3]
		return nil
	})
	require.ErrorIs(t, err, model.ErrDecode)
	require.ErrorContains(t, err, "events")
}

func TestLowerFirst(t *testing.T) {
	require.Equal(t, "subspace", lowerFirst("Subspace"))
	require.Equal(t, "transactionPayment", lowerFirst("TransactionPayment"))
	require.Equal(t, "", lowerFirst(""))
}
