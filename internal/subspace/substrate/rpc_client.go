// Package substrate reads headers, events and storage from a Substrate node over JSON-RPC.
package substrate

import (
	"context"
	"time"

	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/ratelimit"
)

type (
	// Caller performs a single JSON-RPC call.
	Caller interface {
		CallContext(ctx context.Context, result any, method string, args ...any) error
	}

	// RPCMetrics records metrics for RPC calls.
	RPCMetrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// RPCClient wraps a JSON-RPC client with rate limiting and metrics instrumentation.
type RPCClient struct {
	client     Caller
	limiter    ratelimit.Limiter
	rpcMetrics RPCMetrics
}

// Dial connects to a node over ws(s) or http(s).
func Dial(ctx context.Context, url string) (*gethRpc.Client, error) {
	return gethRpc.DialContext(ctx, url)
}

// NewRPCClient constructs an instrumented RPC client. rps <= 0 disables rate limiting.
func NewRPCClient(client Caller, rps int, rpcMetrics RPCMetrics) *RPCClient {
	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}
	return &RPCClient{
		client:     client,
		limiter:    limiter,
		rpcMetrics: rpcMetrics,
	}
}

// CallContext waits for the rate limiter and performs the call.
func (r *RPCClient) CallContext(ctx context.Context, result any, method string, args ...any) (err error) {
	r.limiter.Take()
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe(method, err, started)
	}()
	return r.client.CallContext(ctx, result, method, args...)
}
