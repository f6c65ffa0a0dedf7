package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig reports missing or invalid configuration.
	ErrConfig = errors.New("invalid configuration")
	// ErrTransport reports a network or RPC failure; it is the only retryable class.
	ErrTransport = errors.New("transport failure")
	// ErrMissingDigest reports a header without a pre-runtime digest item.
	ErrMissingDigest = errors.New("missing pre-runtime digest")
	// ErrDecode reports bytes that do not match the expected layout.
	ErrDecode = errors.New("decode failure")
	// ErrMissingChainState reports a storage query that returned no value.
	ErrMissingChainState = errors.New("missing chain state")
	// ErrStateUnavailable reports state the node has pruned.
	ErrStateUnavailable = errors.New("state unavailable")
)

// BlockError attaches traversal context to a fatal error.
type BlockError struct {
	Number uint64
	Hash   Hash
	Schema SchemaID
	Err    error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d (%s, schema %s): %v", e.Number, e.Hash, e.Schema, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}
