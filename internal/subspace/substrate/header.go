package substrate

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
	"github.com/goodnatureofminers/farmerledger/pkg/safe"
)

// rpcHeader is the JSON shape returned by chain_getHeader.
type rpcHeader struct {
	ParentHash model.Hash `json:"parentHash"`
	Number     string     `json:"number"`
	Digest     struct {
		Logs []hexutil.Bytes `json:"logs"`
	} `json:"digest"`
}

func (h rpcHeader) toModel(hash model.Hash) (*model.BlockHeader, error) {
	number, err := parseNumber(h.Number)
	if err != nil {
		return nil, err
	}
	header := &model.BlockHeader{
		Number:     number,
		Hash:       hash,
		ParentHash: h.ParentHash,
		Digest:     make([]model.DigestItem, 0, len(h.Digest.Logs)),
	}
	for i, raw := range h.Digest.Logs {
		item, err := DecodeDigestItem(raw)
		if err != nil {
			return nil, fmt.Errorf("block %d digest log %d: %w", number, i, err)
		}
		header.Digest = append(header.Digest, item)
	}
	return header, nil
}

// parseNumber accepts the hex block numbers nodes emit, with or without leading zeros.
func parseNumber(s string) (uint64, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if digits == "" {
		return 0, fmt.Errorf("%w: empty block number %q", model.ErrDecode, s)
	}
	n, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: block number %q: %v", model.ErrDecode, s, err)
	}
	return n, nil
}

// DecodeDigestItem decodes one SCALE-encoded header digest log.
func DecodeDigestItem(raw []byte) (model.DigestItem, error) {
	r := bytes.NewReader(raw)
	dec := scale.NewDecoder(r)
	tag, err := dec.ReadOneByte()
	if err != nil {
		return model.DigestItem{}, fmt.Errorf("%w: digest tag: %v", model.ErrDecode, err)
	}
	item := model.DigestItem{Kind: model.DigestKind(tag)}
	switch item.Kind {
	case model.DigestPreRuntime, model.DigestConsensus, model.DigestSeal:
		if err := dec.Read(item.Engine[:]); err != nil {
			return model.DigestItem{}, fmt.Errorf("%w: %s engine id: %v", model.ErrDecode, item.Kind, err)
		}
		if item.Data, err = readByteVec(dec, r); err != nil {
			return model.DigestItem{}, fmt.Errorf("%w: %s payload: %v", model.ErrDecode, item.Kind, err)
		}
	case model.DigestOther:
		if item.Data, err = readByteVec(dec, r); err != nil {
			return model.DigestItem{}, fmt.Errorf("%w: other payload: %v", model.ErrDecode, err)
		}
	case model.DigestRuntimeEnvironmentUpdated:
	default:
		return model.DigestItem{}, fmt.Errorf("%w: unknown digest tag %d", model.ErrDecode, tag)
	}
	if r.Len() != 0 {
		return model.DigestItem{}, fmt.Errorf("%w: %d trailing bytes in %s digest", model.ErrDecode, r.Len(), item.Kind)
	}
	return item, nil
}

// readByteVec reads a length-prefixed byte vector whose length must fit in the remaining input.
func readByteVec(dec *scale.Decoder, r *bytes.Reader) ([]byte, error) {
	n, err := dec.DecodeUintCompact()
	if err != nil {
		return nil, err
	}
	if !n.IsUint64() || n.Uint64() > uint64(r.Len()) {
		return nil, fmt.Errorf("length %s exceeds %d remaining bytes", n, r.Len())
	}
	size, err := safe.Int(n.Uint64())
	if err != nil {
		return nil, err
	}
	b := make([]byte, size)
	if size == 0 {
		return b, nil
	}
	if err := dec.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// EncodeDigestItem is the inverse of DecodeDigestItem.
func EncodeDigestItem(item model.DigestItem) ([]byte, error) {
	out := []byte{byte(item.Kind)}
	switch item.Kind {
	case model.DigestPreRuntime, model.DigestConsensus, model.DigestSeal:
		out = append(out, item.Engine[:]...)
		fallthrough
	case model.DigestOther:
		payload, err := codec.Encode(types.NewBytes(item.Data))
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", item.Kind, err)
		}
		out = append(out, payload...)
	}
	return out, nil
}
