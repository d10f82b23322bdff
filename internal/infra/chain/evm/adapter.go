package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/vietddude/subgraph-monitor/internal/core/domain"
	"github.com/vietddude/subgraph-monitor/internal/infra/rpc"
)

// RPCCaller issues a single JSON-RPC call.
type RPCCaller interface {
	Call(ctx context.Context, method string, params []any) (gjson.Result, error)
}

// Client reads the chain head from an EVM-compatible JSON-RPC node.
type Client struct {
	caller RPCCaller
}

func NewClient(caller RPCCaller) *Client {
	return &Client{caller: caller}
}

// FetchChainHead issues one eth_blockNumber call. There is no retry.
func (c *Client) FetchChainHead(ctx context.Context) (*domain.ChainHead, error) {
	result, err := c.caller.Call(ctx, "eth_blockNumber", []any{})
	if err != nil {
		return nil, fmt.Errorf("eth_blockNumber failed: %w", err)
	}

	if result.Type != gjson.String {
		return nil, fmt.Errorf("%w: invalid block number response: %s", rpc.ErrProtocol, result.Raw)
	}

	height, err := parseHexString(result.String())
	if err != nil {
		return nil, err
	}

	return &domain.ChainHead{BlockHeight: height}, nil
}

func parseHexString(hexStr string) (int64, error) {
	digits := hexStr
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	if digits == "" || strings.ContainsAny(digits, "+-") {
		return 0, fmt.Errorf("%w: invalid hex: %q", rpc.ErrDecode, hexStr)
	}

	n := new(big.Int)
	if _, ok := n.SetString(digits, 16); !ok {
		return 0, fmt.Errorf("%w: invalid hex: %q", rpc.ErrDecode, hexStr)
	}
	if !n.IsInt64() {
		return 0, fmt.Errorf("%w: block number out of range: %q", rpc.ErrDecode, hexStr)
	}
	return n.Int64(), nil
}
