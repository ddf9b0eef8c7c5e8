// Package messages owns chat message storage and retrieval, exposed as the
// message.* message types. Sender and receiver are validated against the
// user service over RPC, so the trace of a send spans both services.
package messages

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

// Config wires the message service to its backing user service.
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
		tracer: otel.Tracer("message-service"),
		logger: cfg.Logger.With().Str("component", "messages").Logger(),
	}
}

// Register wires the message.* handlers into srv. Must run before srv.Start.
func (s *Service) Register(srv *rpc.Server) error {
	if err := srv.Register("message.send", rpc.HandlerFor(s.send)); err != nil {
		return err
	}
	if err := srv.Register("message.get", rpc.HandlerFor(s.get)); err != nil {
		return err
	}
	return srv.Register("message.mark_read", rpc.HandlerFor(s.markRead))
}

func (s *Service) send(ctx context.Context, req chat.SendMessageRequest) chat.SendMessageResponse {
	ctx, span := s.tracer.Start(ctx, "message_service.send_message")
	defer span.End()
	span.SetAttributes(
		attribute.String("sender_id", req.SenderID),
		attribute.String("receiver_id", req.ReceiverID),
		attribute.Int("message_length", len(req.Content)),
		attribute.String("protocol", "tcp"),
	)

	span.AddEvent("validating_sender")
	if !s.validateUser(ctx, req.SenderID) {
		span.SetStatus(codes.Error, "sender not found")
		return chat.SendMessageResponse{Success: false, Message: "sender not found"}
	}
	span.AddEvent("validating_receiver")
	if !s.validateUser(ctx, req.ReceiverID) {
		span.SetStatus(codes.Error, "receiver not found")
		return chat.SendMessageResponse{Success: false, Message: "receiver not found"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	span.AddEvent("creating_message")
	msg := chat.Message{
		MessageID:   uuid.NewString(),
		SenderID:    req.SenderID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		MessageType: req.MessageType,
		Timestamp:   time.Now().UnixMilli(),
	}
	s.store.Put(msg)

	span.SetAttributes(attribute.String("message_id", msg.MessageID))
	span.SetStatus(codes.Ok, "")
	span.AddEvent("message_sent")
	s.logger.Info().Str("message_id", msg.MessageID).Str("sender_id", msg.SenderID).Msg("message_stored")

	return chat.SendMessageResponse{
		Success:   true,
		Message:   "message sent",
		MessageID: msg.MessageID,
		Timestamp: msg.Timestamp,
	}
}

func (s *Service) get(ctx context.Context, req chat.GetMessagesRequest) chat.GetMessagesResponse {
	ctx, span := s.tracer.Start(ctx, "message_service.get_messages")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("protocol", "tcp"),
	)
	if req.OtherUserID != "" {
		span.SetAttributes(attribute.String("other_user_id", req.OtherUserID))
	}

	span.AddEvent("validating_user")
	if !s.validateUser(ctx, req.UserID) {
		span.SetStatus(codes.Error, "user not found")
		return chat.GetMessagesResponse{Success: false, Message: "user not found"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	if req.OtherUserID != "" {
		span.AddEvent("fetching_conversation_messages")
		ids = s.store.IndexByConversation(req.UserID, req.OtherUserID)
	} else {
		span.AddEvent("fetching_all_messages")
		ids = s.store.IndexByUser(req.UserID)
	}

	msgs := make([]chat.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.store.ByID(id); ok {
			msgs = append(msgs, m)
		}
	}
	// Newest first.
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Timestamp > msgs[j].Timestamp })

	hasMore := false
	if req.Limit > 0 && len(msgs) > int(req.Limit) {
		msgs = msgs[:req.Limit]
		hasMore = true
	}

	span.SetAttributes(attribute.Int("message_count", len(msgs)))
	span.SetStatus(codes.Ok, "")
	span.AddEvent("messages_retrieved")

	return chat.GetMessagesResponse{
		Success:    true,
		Messages:   msgs,
		HasMore:    hasMore,
		TotalCount: len(msgs),
	}
}

func (s *Service) markRead(ctx context.Context, req chat.MarkMessageReadRequest) chat.MarkMessageReadResponse {
	ctx, span := s.tracer.Start(ctx, "message_service.mark_read")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("message_id", req.MessageID),
		attribute.String("protocol", "tcp"),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.store.ByID(req.MessageID)
	if !ok {
		span.SetStatus(codes.Error, "message not found")
		return chat.MarkMessageReadResponse{Success: false, Message: "message not found"}
	}
	// Only the receiver may mark a message read.
	if msg.ReceiverID != req.UserID {
		span.SetStatus(codes.Error, "not allowed")
		return chat.MarkMessageReadResponse{Success: false, Message: "not allowed to mark this message"}
	}

	msg.IsRead = true
	s.store.Put(msg)

	span.SetStatus(codes.Ok, "")
	span.AddEvent("message_marked_read")
	return chat.MarkMessageReadResponse{Success: true, Message: "message marked as read"}
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
