package substrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
	"github.com/stretchr/testify/require"
)

type jsonError struct {
	code int
	msg  string
}

func (e jsonError) Error() string  { return e.msg }
func (e jsonError) ErrorCode() int { return e.code }

func TestClassify(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		err     error
		wantErr error
	}{
		{
			name:    "pruned state",
			ctx:     context.Background(),
			err:     jsonError{code: 4003, msg: "Client error: State already discarded for 0xabc"},
			wantErr: model.ErrStateUnavailable,
		},
		{
			name:    "unknown block",
			ctx:     context.Background(),
			err:     jsonError{code: 4003, msg: "Client error: UnknownBlock: header not found"},
			wantErr: model.ErrStateUnavailable,
		},
		{
			name:    "other rpc error",
			ctx:     context.Background(),
			err:     jsonError{code: -32603, msg: "internal error"},
			wantErr: model.ErrTransport,
		},
		{
			name:    "connection error",
			ctx:     context.Background(),
			err:     errors.New("dial tcp: connection refused"),
			wantErr: model.ErrTransport,
		},
		{
			name:    "malformed json",
			ctx:     context.Background(),
			err:     &json.SyntaxError{Offset: 3},
			wantErr: model.ErrDecode,
		},
		{
			name:    "unexpected json type",
			ctx:     context.Background(),
			err:     &json.UnmarshalTypeError{Value: "number", Type: reflect.TypeOf("")},
			wantErr: model.ErrDecode,
		},
		{
			name:    "malformed hash",
			ctx:     context.Background(),
			err:     fmt.Errorf("%w: hash %q has 2 bytes, want 32", model.ErrDecode, "0x1234"),
			wantErr: model.ErrDecode,
		},
		{
			name:    "canceled",
			ctx:     canceled,
			err:     errors.New("context canceled"),
			wantErr: context.Canceled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.ctx, "chain_getHeader", tt.err)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorContains(t, err, "chain_getHeader")
		})
	}
}
