// Package tracectx encodes the fixed 31-byte binary trace context carried in
// every RPC request frame.
//
// Layout:
//
//	0      4      6                22         30  31
//	┌──────┬──────┬────────────────┬──────────┬──┐
//	│magic │ver   │   trace_id     │ span_id  │fl│
//	│u32be │u16be │   16 bytes     │ 8 bytes  │u8│
//	└──────┴──────┴────────────────┴──────────┴──┘
//
// magic and version are written in network byte order; trace_id, span_id and
// flags are copied verbatim. A context whose trace_id is all zero decodes
// successfully but carries no trace data and is ignored on apply.
package tracectx

import (
	"context"
	"encoding/binary"

	"go.opentelemetry.io/otel/trace"
)

const (
	// Magic identifies a trace-context segment on the wire ('OTLY').
	Magic uint32 = 0x4F544C59
	// Version is the current codec version. Decoding accepts any version
	// up to and including this one.
	Version uint16 = 0x0001
	// EncodedLen is the exact wire size of an encoded TraceContext.
	EncodedLen = 4 + 2 + 16 + 8 + 1
)

// TraceContext is the binary form of a span context exchanged between
// services. It is a value type; never persisted.
type TraceContext struct {
	Magic   uint32
	Version uint16
	TraceID [16]byte
	SpanID  [8]byte
	Flags   byte
}

// New returns a TraceContext with magic and version set and zero trace data.
func New() TraceContext {
	return TraceContext{Magic: Magic, Version: Version}
}

// FromSpanContext captures the identifier triple of sc. An invalid sc yields
// a context with zero trace data.
func FromSpanContext(sc trace.SpanContext) TraceContext {
	tc := New()
	if !sc.IsValid() {
		return tc
	}
	tc.TraceID = sc.TraceID()
	tc.SpanID = sc.SpanID()
	tc.Flags = byte(sc.TraceFlags())
	return tc
}

// HasValidTraceData reports whether the trace id is non-zero.
func (tc TraceContext) HasValidTraceData() bool {
	return tc.TraceID != [16]byte{}
}

// SpanContext converts tc into a remote span context suitable for parenting
// a local span.
func (tc TraceContext) SpanContext() trace.SpanContext {
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID(tc.TraceID),
		SpanID:     trace.SpanID(tc.SpanID),
		TraceFlags: trace.TraceFlags(tc.Flags),
		Remote:     true,
	})
}

// Encode serializes tc into its fixed 31-byte wire form.
func (tc TraceContext) Encode() []byte {
	buf := make([]byte, EncodedLen)
	binary.BigEndian.PutUint32(buf[0:4], tc.Magic)
	binary.BigEndian.PutUint16(buf[4:6], tc.Version)
	copy(buf[6:22], tc.TraceID[:])
	copy(buf[22:30], tc.SpanID[:])
	buf[30] = tc.Flags
	return buf
}

// Decode parses the 31-byte wire form. It returns ok=false and a zero-value
// context if b is shorter than EncodedLen, the magic does not match, or the
// version is newer than this codec. Extra trailing bytes are ignored.
func Decode(b []byte) (TraceContext, bool) {
	if len(b) < EncodedLen {
		return TraceContext{}, false
	}
	tc := TraceContext{
		Magic:   binary.BigEndian.Uint32(b[0:4]),
		Version: binary.BigEndian.Uint16(b[4:6]),
	}
	if tc.Magic != Magic || tc.Version > Version {
		return TraceContext{}, false
	}
	copy(tc.TraceID[:], b[6:22])
	copy(tc.SpanID[:], b[22:30])
	tc.Flags = b[30]
	return tc, true
}

// Binary serializes the span context active in ctx. When no span is active,
// or its context carries no valid trace id, the result is the zero-valued
// context with magic and version still set, so the receiver can tell a
// well-formed empty context from garbage.
func Binary(ctx context.Context) []byte {
	return FromSpanContext(trace.SpanContextFromContext(ctx)).Encode()
}

// ApplyBinary decodes b and installs the result as a remote span context in
// ctx, so that the next span started from the returned context is parented
// on the caller's span. Malformed data and contexts without trace data leave
// ctx untouched.
func ApplyBinary(ctx context.Context, b []byte) context.Context {
	tc, ok := Decode(b)
	if !ok || !tc.HasValidTraceData() {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, tc.SpanContext())
}
