package rpc

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/chatmesh/chatmesh/internal/protocol/frame"
	"github.com/chatmesh/chatmesh/internal/tracectx"
)

// Client performs one-shot calls: every call opens a fresh connection,
// exchanges a single request/response pair and closes it. There is no
// pooling or keep-alive.
type Client struct {
	// DialTimeout bounds connection establishment. Zero means no timeout,
	// matching the baseline behavior.
	DialTimeout time.Duration
	Limits      frame.Limits
}

var defaultClient = &Client{}

// Call invokes msgType on the service at addr with the default client.
func Call(ctx context.Context, addr, msgType string, req, resp any) error {
	return defaultClient.Call(ctx, addr, msgType, req, resp)
}

// Call JSON-encodes req, sends it with the caller's current trace context
// embedded in the frame, and JSON-decodes the single-segment response into
// resp. The connection is closed unconditionally before returning.
func (c *Client) Call(ctx context.Context, addr, msgType string, req, resp any) error {
	limits := c.Limits
	if limits == (frame.Limits{}) {
		limits = frame.DefaultLimits()
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return &CallError{Kind: KindEncode, Addr: addr, Type: msgType, Err: err}
	}

	dialer := net.Dialer{Timeout: c.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &CallError{Kind: KindConnect, Addr: addr, Type: msgType, Err: err}
	}
	defer conn.Close()

	wireReq := frame.Request{
		Trace:   tracectx.Binary(ctx),
		Type:    msgType,
		Payload: payload,
	}
	if err := frame.WriteRequest(conn, wireReq, limits); err != nil {
		return &CallError{Kind: KindProtocol, Addr: addr, Type: msgType, Err: err}
	}

	body, err := frame.ReadResponse(conn, limits)
	if err != nil {
		return &CallError{Kind: KindProtocol, Addr: addr, Type: msgType, Err: err}
	}
	if err := json.Unmarshal(body, resp); err != nil {
		return &CallError{Kind: KindDecode, Addr: addr, Type: msgType, Err: err}
	}
	return nil
}
