// Package frame implements the length-prefixed wire framing for RPC
// exchanges.
//
// A request frame is three segments, each prefixed by its raw byte length as
// a 4-byte big-endian unsigned integer:
//
//	u32be len ‖ trace-context bytes ‖ u32be len ‖ message type ‖ u32be len ‖ payload
//
// A response frame is a single length-prefixed payload segment. A zero
// length is legal for any segment. Any read that yields fewer bytes than
// declared is a framing failure.
package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	ErrShortSegment    = errors.New("frame: short segment")
	ErrSegmentTooLarge = errors.New("frame: segment too large")
)

// Request is one decoded request frame.
type Request struct {
	Trace   []byte
	Type    string
	Payload []byte
}

// Limits constrains frame decode memory use.
type Limits struct {
	MaxTraceBytes   uint32
	MaxTypeBytes    uint32
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxTraceBytes:   1024,
		MaxTypeBytes:    1024,
		MaxPayloadBytes: 64 * 1024 * 1024,
	}
}

// WriteRequest encodes req and writes it to w as a single buffer, so the
// frame reaches the peer in one write call.
func WriteRequest(w io.Writer, req Request, limits Limits) error {
	if uint32(len(req.Trace)) > limits.MaxTraceBytes ||
		uint32(len(req.Type)) > limits.MaxTypeBytes ||
		uint32(len(req.Payload)) > limits.MaxPayloadBytes {
		return ErrSegmentTooLarge
	}
	buf := make([]byte, 0, 12+len(req.Trace)+len(req.Type)+len(req.Payload))
	buf = appendSegment(buf, req.Trace)
	buf = appendSegment(buf, []byte(req.Type))
	buf = appendSegment(buf, req.Payload)
	_, err := w.Write(buf)
	return err
}

// ReadRequest decodes one request frame from r.
func ReadRequest(r io.Reader, limits Limits) (Request, error) {
	trace, err := readSegment(r, limits.MaxTraceBytes)
	if err != nil {
		return Request{}, err
	}
	typ, err := readSegment(r, limits.MaxTypeBytes)
	if err != nil {
		return Request{}, err
	}
	payload, err := readSegment(r, limits.MaxPayloadBytes)
	if err != nil {
		return Request{}, err
	}
	return Request{Trace: trace, Type: string(typ), Payload: payload}, nil
}

// WriteResponse writes a single-segment response frame. No trace context or
// message type is echoed back.
func WriteResponse(w io.Writer, payload []byte, limits Limits) error {
	if uint32(len(payload)) > limits.MaxPayloadBytes {
		return ErrSegmentTooLarge
	}
	buf := appendSegment(make([]byte, 0, 4+len(payload)), payload)
	_, err := w.Write(buf)
	return err
}

// ReadResponse reads a single-segment response frame.
func ReadResponse(r io.Reader, limits Limits) ([]byte, error) {
	return readSegment(r, limits.MaxPayloadBytes)
}

func appendSegment(buf, seg []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(seg)))
	return append(buf, seg...)
}

func readSegment(r io.Reader, max uint32) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortSegment
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > max {
		return nil, ErrSegmentTooLarge
	}
	seg := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, seg); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrShortSegment
			}
			return nil, err
		}
	}
	return seg, nil
}
