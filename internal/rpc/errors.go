package rpc

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateHandler = errors.New("rpc: handler already registered for message type")
	ErrServerStarted    = errors.New("rpc: server already started")
)

// Envelope is the structured error reply sent for failed requests. Business
// responses carry the same two fields plus call-specific ones.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Kind classifies a client call failure.
type Kind int

const (
	KindConnect Kind = iota + 1
	KindEncode
	KindProtocol
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindEncode:
		return "encode"
	case KindProtocol:
		return "protocol"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// CallError is the failure of a single client call.
type CallError struct {
	Kind Kind
	Addr string
	Type string
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("rpc: %s %s to %s: %v", e.Kind, e.Type, e.Addr, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, or zero if err is not a
// CallError.
func KindOf(err error) Kind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
