package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// maxErrorBody bounds how much of an error response body ends up in an error message.
const maxErrorBody = 256

// HTTPProvider posts JSON payloads to a single upstream endpoint.
type HTTPProvider struct {
	name     string
	endpoint string
	client   *resty.Client
}

// NewHTTPProvider creates a provider for endpoint. A zero timeout leaves requests unbounded.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPProvider{
		name:     name,
		endpoint: endpoint,
		client:   client,
	}
}

// Post sends payload and returns the body of a 2xx response.
func (p *HTTPProvider) Post(ctx context.Context, payload []byte) ([]byte, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request: %w", ErrTransport, p.name, err)
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s http %d: %s", ErrProtocol, p.name, resp.StatusCode(), truncate(body))
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s returned invalid json: %s", ErrProtocol, p.name, truncate(body))
	}

	return body, nil
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

// Call makes a single JSON-RPC 2.0 call and returns its result field.
func (p *HTTPProvider) Call(ctx context.Context, method string, params []any) (gjson.Result, error) {
	if params == nil {
		params = []any{}
	}

	payload, err := json.Marshal(jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	body, err := p.Post(ctx, payload)
	if err != nil {
		return gjson.Result{}, err
	}

	if rpcErr := gjson.GetBytes(body, "error"); rpcErr.Exists() && rpcErr.Type != gjson.Null {
		msg := rpcErr.Get("message").String()
		if msg == "" {
			msg = rpcErr.Raw
		}
		return gjson.Result{}, fmt.Errorf("%w: %s rpc error: %s", ErrProtocol, method, msg)
	}

	result := gjson.GetBytes(body, "result")
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s response has no result", ErrProtocol, method)
	}

	return result, nil
}

// Name returns the provider's name.
func (p *HTTPProvider) Name() string {
	return p.name
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.GetClient().CloseIdleConnections()
	return nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
