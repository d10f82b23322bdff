// Package rpc provides the HTTP transport shared by the upstream clients.
//
// Every request is a single JSON POST with no retry. Failures are classified
// into three sentinels so callers can tell them apart with errors.Is:
//   - ErrTransport: the request never produced a response (dial, TLS, timeout)
//   - ErrProtocol:  non-2xx status, invalid JSON, or an unexpected response shape
//   - ErrDecode:    a field was present but its value could not be decoded
//
// # Quick Start
//
//	p := rpc.NewHTTPProvider("chain", rpcURL, 10*time.Second)
//	result, err := p.Call(ctx, "eth_blockNumber", []any{})
package rpc

import "errors"

var (
	ErrTransport = errors.New("transport failure")
	ErrProtocol  = errors.New("protocol failure")
	ErrDecode    = errors.New("decode failure")
)
