package users

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chatmesh/chatmesh/internal/chat"
	"github.com/chatmesh/chatmesh/internal/rpc"
)

func startUserService(t *testing.T) string {
	t.Helper()
	srv := rpc.NewServer(rpc.ServerConfig{
		Name:   "user-service",
		Addr:   "127.0.0.1:0",
		Logger: zerolog.Nop(),
	})
	if err := NewService(zerolog.Nop()).Register(srv); err != nil {
		t.Fatalf("register handlers: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })
	return srv.Addr().String()
}

func register(t *testing.T, addr, username, password string) chat.RegisterResponse {
	t.Helper()
	var resp chat.RegisterResponse
	req := chat.RegisterRequest{Username: username, Password: password, Email: username + "@example.com"}
	if err := rpc.Call(context.Background(), addr, "user.register", req, &resp); err != nil {
		t.Fatalf("user.register: %v", err)
	}
	return resp
}

func TestRegisterAndDuplicateUsername(t *testing.T) {
	addr := startUserService(t)

	resp := register(t, addr, "alice", "s3cret")
	if !resp.Success {
		t.Fatalf("registration failed: %q", resp.Message)
	}
	if resp.UserID == "" || resp.Token == "" {
		t.Fatalf("missing credentials in response: %+v", resp)
	}
	if len(resp.Token) != 32 {
		t.Fatalf("token length = %d, want 32", len(resp.Token))
	}

	dup := register(t, addr, "alice", "other")
	if dup.Success {
		t.Fatal("duplicate username must be rejected")
	}
	if dup.Message != "username already taken" {
		t.Fatalf("unexpected message: %q", dup.Message)
	}
}

func TestLogin(t *testing.T) {
	addr := startUserService(t)
	created := register(t, addr, "bob", "hunter2")

	var resp chat.LoginResponse
	req := chat.LoginRequest{Username: "bob", Password: "wrong"}
	if err := rpc.Call(context.Background(), addr, "user.login", req, &resp); err != nil {
		t.Fatalf("user.login: %v", err)
	}
	if resp.Success || resp.Message != "wrong password" {
		t.Fatalf("bad password accepted: %+v", resp)
	}

	req.Password = "hunter2"
	if err := rpc.Call(context.Background(), addr, "user.login", req, &resp); err != nil {
		t.Fatalf("user.login: %v", err)
	}
	if !resp.Success {
		t.Fatalf("login failed: %q", resp.Message)
	}
	if resp.UserID != created.UserID || resp.Token != created.Token {
		t.Fatalf("identity mismatch: %+v vs %+v", resp, created)
	}

	req.Username = "nobody"
	if err := rpc.Call(context.Background(), addr, "user.login", req, &resp); err != nil {
		t.Fatalf("user.login: %v", err)
	}
	if resp.Success || resp.Message != "user not found" {
		t.Fatalf("unknown user accepted: %+v", resp)
	}
}

func TestGetUser(t *testing.T) {
	addr := startUserService(t)
	created := register(t, addr, "carol", "pw")

	var info chat.UserInfo
	if err := rpc.Call(context.Background(), addr, "user.get", chat.GetUserRequest{UserID: created.UserID}, &info); err != nil {
		t.Fatalf("user.get: %v", err)
	}
	if !info.Success || info.Username != "carol" || info.Status != "active" {
		t.Fatalf("unexpected user info: %+v", info)
	}
	if info.CreatedAt == 0 || info.LastActive == 0 {
		t.Fatalf("timestamps not set: %+v", info)
	}

	if err := rpc.Call(context.Background(), addr, "user.get", chat.GetUserRequest{UserID: "missing"}, &info); err != nil {
		t.Fatalf("user.get: %v", err)
	}
	if info.Success || info.Message != "user not found" {
		t.Fatalf("missing user lookup: %+v", info)
	}
}
