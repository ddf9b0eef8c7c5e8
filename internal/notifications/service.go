// Package notifications owns notification storage and retrieval, exposed as
// the notification.* message types.
package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chatmesh/chatmesh/internal/chat"
	"github.com/chatmesh/chatmesh/internal/rpc"
)

// Config wires the notification service to its backing user service.
type Config struct {
	UserServiceAddr string
	Logger          zerolog.Logger
}

type Service struct {
	mu     sync.Mutex
	store  Store
	cfg    Config
	client *rpc.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

func NewService(cfg Config) *Service {
	return &Service{
		store:  NewMemoryStore(),
		cfg:    cfg,
		client: &rpc.Client{},
		tracer: otel.Tracer("notification-service"),
		logger: cfg.Logger.With().Str("component", "notifications").Logger(),
	}
}

// Register wires the notification.* handlers into srv. Must run before
// srv.Start.
func (s *Service) Register(srv *rpc.Server) error {
	if err := srv.Register("notification.send", rpc.HandlerFor(s.send)); err != nil {
		return err
	}
	return srv.Register("notification.get", rpc.HandlerFor(s.get))
}

func (s *Service) send(ctx context.Context, req chat.NotificationRequest) chat.NotificationResponse {
	ctx, span := s.tracer.Start(ctx, "notification_service.send_notification")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("notification_type", req.Type),
		attribute.String("protocol", "tcp"),
	)

	span.AddEvent("validating_user")
	if !s.validateUser(ctx, req.UserID) {
		span.SetStatus(codes.Error, "user not found")
		return chat.NotificationResponse{Success: false, Message: "user not found"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	span.AddEvent("creating_notification")
	n := chat.Notification{
		NotificationID: uuid.NewString(),
		UserID:         req.UserID,
		Title:          req.Title,
		Content:        req.Content,
		Type:           req.Type,
		Timestamp:      time.Now().UnixMilli(),
		Metadata:       req.Metadata,
	}
	s.store.Put(n)

	span.SetAttributes(attribute.String("notification_id", n.NotificationID))
	span.SetStatus(codes.Ok, "")
	span.AddEvent("notification_sent")
	s.logger.Info().Str("notification_id", n.NotificationID).Str("user_id", n.UserID).Msg("notification_stored")

	return chat.NotificationResponse{
		Success:        true,
		Message:        "notification sent",
		NotificationID: n.NotificationID,
		Timestamp:      n.Timestamp,
	}
}

func (s *Service) get(ctx context.Context, req chat.GetNotificationsRequest) chat.GetNotificationsResponse {
	ctx, span := s.tracer.Start(ctx, "notification_service.get_notifications")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("protocol", "tcp"),
	)

	span.AddEvent("validating_user")
	if !s.validateUser(ctx, req.UserID) {
		span.SetStatus(codes.Error, "user not found")
		return chat.GetNotificationsResponse{Success: false, Message: "user not found"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	span.AddEvent("fetching_notifications")
	ids := s.store.IndexByUser(req.UserID)
	list := make([]chat.Notification, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.store.ByID(id); ok {
			list = append(list, n)
		}
	}
	// Newest first.
	sort.Slice(list, func(i, j int) bool { return list[i].Timestamp > list[j].Timestamp })

	hasMore := false
	if req.Limit > 0 && len(list) > int(req.Limit) {
		list = list[:req.Limit]
		hasMore = true
	}

	span.SetAttributes(attribute.Int("notification_count", len(list)))
	span.SetStatus(codes.Ok, "")
	span.AddEvent("notifications_retrieved")

	return chat.GetNotificationsResponse{
		Success:       true,
		Notifications: list,
		HasMore:       hasMore,
		TotalCount:    len(list),
	}
}

// validateUser asks the user service whether id exists. Any transport
// failure counts as not found; there are no retries.
func (s *Service) validateUser(ctx context.Context, id string) bool {
	var info chat.UserInfo
	err := s.client.Call(ctx, s.cfg.UserServiceAddr, "user.get", chat.GetUserRequest{UserID: id}, &info)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", id).Msg("user_validation_failed")
		return false
	}
	return info.Success
}
