// Package users owns account state: registration, login, and profile
// lookup, exposed as the user.* message types.
package users

import (
	"context"
	"strings"
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

// Service holds all user state behind one mutex. Handlers are serialized by
// that mutex; the registration table itself needs no locking once the host
// has started.
type Service struct {
	mu     sync.Mutex
	store  Store
	tracer trace.Tracer
	logger zerolog.Logger
}

func NewService(logger zerolog.Logger) *Service {
	return &Service{
		store:  NewMemoryStore(),
		tracer: otel.Tracer("user-service"),
		logger: logger.With().Str("component", "users").Logger(),
	}
}

// Register wires the user.* handlers into srv. Must run before srv.Start.
func (s *Service) Register(srv *rpc.Server) error {
	if err := srv.Register("user.register", rpc.HandlerFor(s.register)); err != nil {
		return err
	}
	if err := srv.Register("user.login", rpc.HandlerFor(s.login)); err != nil {
		return err
	}
	return srv.Register("user.get", rpc.HandlerFor(s.get))
}

func (s *Service) register(ctx context.Context, req chat.RegisterRequest) chat.RegisterResponse {
	ctx, span := s.tracer.Start(ctx, "user_service.register")
	defer span.End()
	span.SetAttributes(
		attribute.String("username", req.Username),
		attribute.String("email", req.Email),
		attribute.String("protocol", "tcp"),
	)
	span.AddEvent("validating_registration")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.store.ByUsername(req.Username); exists {
		span.SetStatus(codes.Error, "username already taken")
		return chat.RegisterResponse{Success: false, Message: "username already taken"}
	}

	now := time.Now().UnixMilli()
	user := User{
		ID:         uuid.NewString(),
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Status:     "active",
		Token:      newAuthToken(),
		CreatedAt:  now,
		LastActive: now,
	}
	span.AddEvent("creating_user_record")
	s.store.Put(user)

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	span.AddEvent("user_registered")
	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user_registered")

	return chat.RegisterResponse{
		Success: true,
		Message: "registration successful",
		UserID:  user.ID,
		Token:   user.Token,
	}
}

func (s *Service) login(ctx context.Context, req chat.LoginRequest) chat.LoginResponse {
	ctx, span := s.tracer.Start(ctx, "user_service.login")
	defer span.End()
	span.SetAttributes(
		attribute.String("username", req.Username),
		attribute.String("protocol", "tcp"),
	)
	span.AddEvent("validating_credentials")

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.store.ByUsername(req.Username)
	if !ok {
		span.SetStatus(codes.Error, "user not found")
		return chat.LoginResponse{Success: false, Message: "user not found"}
	}
	if user.Password != req.Password {
		span.SetStatus(codes.Error, "wrong password")
		span.AddEvent("authentication_failed")
		return chat.LoginResponse{Success: false, Message: "wrong password"}
	}

	user.LastActive = time.Now().UnixMilli()
	s.store.Put(user)

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	span.AddEvent("user_authenticated")

	return chat.LoginResponse{
		Success:  true,
		Message:  "login successful",
		Token:    user.Token,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

func (s *Service) get(ctx context.Context, req chat.GetUserRequest) chat.UserInfo {
	ctx, span := s.tracer.Start(ctx, "user_service.get_user")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("protocol", "tcp"),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.store.ByID(req.UserID)
	if !ok {
		span.SetStatus(codes.Error, "user not found")
		return chat.UserInfo{Success: false, Message: "user not found"}
	}

	span.SetStatus(codes.Ok, "")
	span.AddEvent("user_info_retrieved")
	return chat.UserInfo{
		Success:    true,
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Status:     user.Status,
		CreatedAt:  user.CreatedAt,
		LastActive: user.LastActive,
	}
}

// newAuthToken returns a 32-character token.
func newAuthToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
