package substrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
)

// prunedMarkers are substrings of node errors for state that is no longer retained.
var prunedMarkers = []string{
	"State already discarded",
	"UnknownBlock",
	"Unknown block",
	"Header was not found",
}

// classify maps a client error to the extractor's error taxonomy. Responses
// that fail to unmarshal are decode errors and are not retried.
func classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, model.ErrDecode) {
		return fmt.Errorf("%s: %w: %w", op, model.ErrDecode, err)
	}
	var rpcErr gethRpc.Error
	if errors.As(err, &rpcErr) {
		msg := rpcErr.Error()
		for _, marker := range prunedMarkers {
			if strings.Contains(msg, marker) {
				return fmt.Errorf("%s: %w: %w", op, model.ErrStateUnavailable, err)
			}
		}
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrTransport, err)
}
