package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/chatmesh/chatmesh/internal/protocol/frame"
)

func TestCallConnectRefused(t *testing.T) {
	var out reply
	err := Call(context.Background(), "127.0.0.1:1", "A", struct{}{}, &out)
	if err == nil {
		t.Fatal("expected connect failure")
	}
	if KindOf(err) != KindConnect {
		t.Fatalf("expected KindConnect, got %v (%v)", KindOf(err), err)
	}
}

func TestCallEncodeFailure(t *testing.T) {
	var out reply
	// Channels are not JSON-encodable; no connection should be attempted.
	err := Call(context.Background(), "127.0.0.1:1", "A", make(chan int), &out)
	if KindOf(err) != KindEncode {
		t.Fatalf("expected KindEncode, got %v (%v)", KindOf(err), err)
	}
}

func TestCallTruncatedResponse(t *testing.T) {
	addr := fakeService(t, func(conn net.Conn) {
		if _, err := frame.ReadRequest(conn, frame.DefaultLimits()); err != nil {
			return
		}
		// Length prefix promises more bytes than the peer will ever see.
		_, _ = conn.Write([]byte{0x00, 0x00, 0x00, 0x10, 0xAB})
	})

	var out reply
	err := Call(context.Background(), addr, "A", struct{}{}, &out)
	if KindOf(err) != KindProtocol {
		t.Fatalf("expected KindProtocol, got %v (%v)", KindOf(err), err)
	}
}

func TestCallNonJSONResponse(t *testing.T) {
	addr := fakeService(t, func(conn net.Conn) {
		if _, err := frame.ReadRequest(conn, frame.DefaultLimits()); err != nil {
			return
		}
		_ = frame.WriteResponse(conn, []byte("not json"), frame.DefaultLimits())
	})

	var out reply
	err := Call(context.Background(), addr, "A", struct{}{}, &out)
	if KindOf(err) != KindDecode {
		t.Fatalf("expected KindDecode, got %v (%v)", KindOf(err), err)
	}
}

// fakeService runs serve for each accepted connection until the test ends.
func fakeService(t *testing.T, serve func(net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				serve(conn)
			}()
		}
	}()
	return ln.Addr().String()
}
