package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	big := make([]byte, 3*1024*1024)
	for i := range big {
		big[i] = byte(i)
	}
	cases := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"one_byte", []byte{0x42}},
		{"multi_megabyte", big},
	}
	trace := bytes.Repeat([]byte{0xAB}, 31)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Request{Trace: trace, Type: "user.register", Payload: tc.payload}
			var buf bytes.Buffer
			if err := WriteRequest(&buf, in, DefaultLimits()); err != nil {
				t.Fatalf("write request: %v", err)
			}
			out, err := ReadRequest(&buf, DefaultLimits())
			if err != nil {
				t.Fatalf("read request: %v", err)
			}
			if !bytes.Equal(out.Trace, trace) {
				t.Fatalf("trace segment mismatch")
			}
			if out.Type != in.Type {
				t.Fatalf("type mismatch: got %q want %q", out.Type, in.Type)
			}
			if !bytes.Equal(out.Payload, tc.payload) {
				t.Fatalf("payload mismatch")
			}
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	payload := []byte(`{"success":true,"message":"ok"}`)
	var buf bytes.Buffer
	if err := WriteResponse(&buf, payload, DefaultLimits()); err != nil {
		t.Fatalf("write response: %v", err)
	}
	out, err := ReadResponse(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("payload mismatch: %q", out)
	}
}

func TestEmptyResponsePayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, nil, DefaultLimits()); err != nil {
		t.Fatalf("write response: %v", err)
	}
	out, err := ReadResponse(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty payload, got %d bytes", len(out))
	}
}

func TestReadRequestTruncated(t *testing.T) {
	var buf bytes.Buffer
	in := Request{Trace: bytes.Repeat([]byte{1}, 31), Type: "a", Payload: []byte("hello")}
	if err := WriteRequest(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write request: %v", err)
	}
	whole := buf.Bytes()
	// Every strict prefix must fail as a short segment, never succeed and
	// never read past the supplied bytes.
	for n := 0; n < len(whole); n++ {
		_, err := ReadRequest(bytes.NewReader(whole[:n]), DefaultLimits())
		if !errors.Is(err, ErrShortSegment) {
			t.Fatalf("prefix of %d bytes: expected ErrShortSegment, got %v", n, err)
		}
	}
}

func TestReadResponseTruncated(t *testing.T) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], 100)
	_, err := ReadResponse(bytes.NewReader(append(lenBuf[:], []byte("short")...)), DefaultLimits())
	if !errors.Is(err, ErrShortSegment) {
		t.Fatalf("expected ErrShortSegment, got %v", err)
	}
}

func TestSegmentLimits(t *testing.T) {
	limits := Limits{MaxTraceBytes: 31, MaxTypeBytes: 8, MaxPayloadBytes: 16}
	in := Request{Trace: make([]byte, 31), Type: "way.too.long.type", Payload: nil}
	if err := WriteRequest(&bytes.Buffer{}, in, limits); !errors.Is(err, ErrSegmentTooLarge) {
		t.Fatalf("expected ErrSegmentTooLarge on write, got %v", err)
	}

	var buf bytes.Buffer
	if err := WriteResponse(&buf, make([]byte, 64), DefaultLimits()); err != nil {
		t.Fatalf("write response: %v", err)
	}
	if _, err := ReadResponse(&buf, limits); !errors.Is(err, ErrSegmentTooLarge) {
		t.Fatalf("expected ErrSegmentTooLarge on read, got %v", err)
	}
}
