package notifications

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chatmesh/chatmesh/internal/chat"
	"github.com/chatmesh/chatmesh/internal/rpc"
)

func stubUserService(t *testing.T, known ...string) string {
	t.Helper()
	ids := make(map[string]bool, len(known))
	for _, id := range known {
		ids[id] = true
	}
	srv := rpc.NewServer(rpc.ServerConfig{
		Name:   "user-service",
		Addr:   "127.0.0.1:0",
		Logger: zerolog.Nop(),
	})
	err := srv.Register("user.get", rpc.HandlerFor(func(ctx context.Context, req chat.GetUserRequest) chat.UserInfo {
		if !ids[req.UserID] {
			return chat.UserInfo{Success: false, Message: "user not found"}
		}
		return chat.UserInfo{Success: true, UserID: req.UserID}
	}))
	if err != nil {
		t.Fatalf("register stub handler: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start stub: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })
	return srv.Addr().String()
}

func startNotificationService(t *testing.T, userAddr string) string {
	t.Helper()
	srv := rpc.NewServer(rpc.ServerConfig{
		Name:   "notification-service",
		Addr:   "127.0.0.1:0",
		Logger: zerolog.Nop(),
	})
	svc := NewService(Config{UserServiceAddr: userAddr, Logger: zerolog.Nop()})
	if err := svc.Register(srv); err != nil {
		t.Fatalf("register handlers: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })
	return srv.Addr().String()
}

func TestSendNotification(t *testing.T) {
	userAddr := stubUserService(t, "alice")
	addr := startNotificationService(t, userAddr)

	var resp chat.NotificationResponse
	req := chat.NotificationRequest{
		UserID:   "alice",
		Title:    "friend request",
		Content:  "bob wants to connect",
		Type:     "social",
		Metadata: map[string]string{"from": "bob"},
	}
	if err := rpc.Call(context.Background(), addr, "notification.send", req, &resp); err != nil {
		t.Fatalf("notification.send: %v", err)
	}
	if !resp.Success || resp.NotificationID == "" || resp.Timestamp == 0 {
		t.Fatalf("send failed: %+v", resp)
	}

	req.UserID = "ghost"
	if err := rpc.Call(context.Background(), addr, "notification.send", req, &resp); err != nil {
		t.Fatalf("notification.send: %v", err)
	}
	if resp.Success || resp.Message != "user not found" {
		t.Fatalf("unknown user accepted: %+v", resp)
	}
}

func TestGetNotifications(t *testing.T) {
	userAddr := stubUserService(t, "alice")
	addr := startNotificationService(t, userAddr)

	for _, title := range []string{"first", "second", "third"} {
		var resp chat.NotificationResponse
		req := chat.NotificationRequest{UserID: "alice", Title: title, Type: "system"}
		if err := rpc.Call(context.Background(), addr, "notification.send", req, &resp); err != nil {
			t.Fatalf("notification.send: %v", err)
		}
		if !resp.Success {
			t.Fatalf("send %q failed: %+v", title, resp)
		}
	}

	var got chat.GetNotificationsResponse
	req := chat.GetNotificationsRequest{UserID: "alice"}
	if err := rpc.Call(context.Background(), addr, "notification.get", req, &got); err != nil {
		t.Fatalf("notification.get: %v", err)
	}
	if !got.Success || len(got.Notifications) != 3 || got.HasMore {
		t.Fatalf("fetch: %+v", got)
	}
	for i := 1; i < len(got.Notifications); i++ {
		if got.Notifications[i-1].Timestamp < got.Notifications[i].Timestamp {
			t.Fatalf("notifications not newest first: %+v", got.Notifications)
		}
	}

	req.Limit = 2
	if err := rpc.Call(context.Background(), addr, "notification.get", req, &got); err != nil {
		t.Fatalf("notification.get: %v", err)
	}
	if len(got.Notifications) != 2 || !got.HasMore {
		t.Fatalf("limit not applied: %+v", got)
	}

	req = chat.GetNotificationsRequest{UserID: "ghost"}
	if err := rpc.Call(context.Background(), addr, "notification.get", req, &got); err != nil {
		t.Fatalf("notification.get: %v", err)
	}
	if got.Success || got.Message != "user not found" {
		t.Fatalf("unknown user accepted: %+v", got)
	}
}
