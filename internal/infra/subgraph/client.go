// Package subgraph queries a graph-node subgraph for its indexing status.
package subgraph

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/vietddude/subgraph-monitor/internal/core/domain"
	"github.com/vietddude/subgraph-monitor/internal/infra/rpc"
)

// metaQuery asks for the latest indexed block and the indexing-error flag.
const metaQuery = `{"query": "{_meta{block{number hash}hasIndexingErrors}}"}`

// Poster sends a JSON payload and returns the 2xx response body.
type Poster interface {
	Post(ctx context.Context, payload []byte) ([]byte, error)
}

// Client fetches indexing status from a subgraph GraphQL endpoint.
type Client struct {
	poster Poster
}

func NewClient(poster Poster) *Client {
	return &Client{poster: poster}
}

// FetchIndexingStatus issues one _meta query. There is no retry.
func (c *Client) FetchIndexingStatus(ctx context.Context) (*domain.IndexingStatus, error) {
	body, err := c.poster.Post(ctx, []byte(metaQuery))
	if err != nil {
		return nil, fmt.Errorf("subgraph _meta query failed: %w", err)
	}
	return parseMeta(body)
}

func parseMeta(body []byte) (*domain.IndexingStatus, error) {
	meta := gjson.GetBytes(body, "data._meta")
	if !meta.Exists() || meta.Type == gjson.Null {
		if errs := gjson.GetBytes(body, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
			return nil, fmt.Errorf("%w: graphql error: %s", rpc.ErrProtocol, errs.Array()[0].Get("message").String())
		}
		return nil, fmt.Errorf("%w: response has no data._meta", rpc.ErrProtocol)
	}

	number := meta.Get("block.number")
	if number.Type != gjson.Number {
		return nil, fmt.Errorf("%w: _meta.block.number missing or not a number: %s", rpc.ErrProtocol, number.Raw)
	}
	if float64(number.Int()) != number.Num {
		return nil, fmt.Errorf("%w: _meta.block.number is not an integer: %s", rpc.ErrDecode, number.Raw)
	}

	hasErrors := meta.Get("hasIndexingErrors")
	if hasErrors.Type != gjson.True && hasErrors.Type != gjson.False {
		return nil, fmt.Errorf("%w: _meta.hasIndexingErrors missing or not a boolean: %s", rpc.ErrProtocol, hasErrors.Raw)
	}

	return &domain.IndexingStatus{
		SyncedBlock:       number.Int(),
		BlockHash:         meta.Get("block.hash").String(),
		HasIndexingErrors: hasErrors.Bool(),
	}, nil
}
