package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// HandlerFor adapts a typed business function to the byte-level Handler
// contract: JSON decode, invoke, JSON encode. Business failures are carried
// inside Resp's success/message fields, not as handler errors.
func HandlerFor[Req, Resp any](fn func(context.Context, Req) Resp) Handler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("decode request: %w", err)
			}
		}
		return json.Marshal(fn(ctx, req))
	}
}
