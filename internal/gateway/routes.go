package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/chatmesh/chatmesh/internal/chat"
	"github.com/chatmesh/chatmesh/internal/observability"
	"github.com/chatmesh/chatmesh/internal/rpc"
)

// extractor builds a backend request value for a read route from path and
// query parameters.
type extractor func(params gin.Params, query url.Values) (any, error)

// route maps one HTTP endpoint onto a backend message type. Write routes
// decode the HTTP body into newBody's value; read routes run extract.
type route struct {
	method      string
	path        string
	operation   string
	backend     string
	messageType string
	newBody     func() any
	extract     extractor
}

func (s *Server) routes() []route {
	return []route{
		{http.MethodPost, "/api/users/register", "user_register", s.cfg.UserServiceAddr, "user.register",
			func() any { return &chat.RegisterRequest{} }, nil},
		{http.MethodPost, "/api/users/login", "user_login", s.cfg.UserServiceAddr, "user.login",
			func() any { return &chat.LoginRequest{} }, nil},
		{http.MethodGet, "/api/users/:id", "user_get", s.cfg.UserServiceAddr, "user.get",
			nil, extractGetUser},
		{http.MethodPost, "/api/messages/send", "message_send", s.cfg.MessageServiceAddr, "message.send",
			func() any { return &chat.SendMessageRequest{} }, nil},
		{http.MethodGet, "/api/messages", "message_get", s.cfg.MessageServiceAddr, "message.get",
			nil, extractGetMessages},
		{http.MethodPost, "/api/messages/mark_read", "message_mark_read", s.cfg.MessageServiceAddr, "message.mark_read",
			func() any { return &chat.MarkMessageReadRequest{} }, nil},
		{http.MethodPost, "/api/notifications/send", "notification_send", s.cfg.NotificationServiceAddr, "notification.send",
			func() any { return &chat.NotificationRequest{} }, nil},
		{http.MethodGet, "/api/notifications", "notification_get", s.cfg.NotificationServiceAddr, "notification.get",
			nil, extractGetNotifications},
	}
}

// handle bridges one HTTP route onto the TCP backend: extract the inbound
// trace context, start the gateway span, build the request value, call the
// backend, and pass the JSON response through verbatim.
func (s *Server) handle(rt route) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(observability.RouteOperationKey, rt.operation)
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := s.tracer.Start(ctx, "gateway."+rt.operation)
		defer span.End()
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.url", c.Request.URL.Path),
			attribute.String("backend.service", rt.backend),
			attribute.String("backend.message_type", rt.messageType),
			attribute.String("protocol.frontend", "http"),
			attribute.String("protocol.backend", "tcp"),
		)

		reqVal, err := s.buildRequest(c, rt)
		if err != nil {
			s.fail(c, span, rt, err)
			return
		}

		span.AddEvent("calling_backend_service")
		var raw json.RawMessage
		if err := s.client.Call(ctx, rt.backend, rt.messageType, reqVal, &raw); err != nil {
			s.fail(c, span, rt, err)
			return
		}

		span.SetStatus(codes.Ok, "")
		span.AddEvent("backend_call_completed")
		c.Data(http.StatusOK, "application/json", raw)
	}
}

func (s *Server) buildRequest(c *gin.Context, rt route) (any, error) {
	if rt.newBody != nil {
		v := rt.newBody()
		// An absent body means the zero-valued request, same as the wire
		// contract's empty payload.
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(v); err != nil {
				return nil, fmt.Errorf("decode request body: %w", err)
			}
		}
		return v, nil
	}
	return rt.extract(c.Params, c.Request.URL.Query())
}

func (s *Server) fail(c *gin.Context, span trace.Span, rt route, err error) {
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("backend_call_failed", trace.WithAttributes(
		attribute.String("exception.type", fmt.Sprintf("%T", err)),
		attribute.String("exception.message", err.Error()),
	))
	s.logger.Error().Err(err).
		Str("operation", rt.operation).
		Str("backend", rt.backend).
		Msg("gateway_call_failed")
	c.JSON(http.StatusInternalServerError, rpc.Envelope{Success: false, Message: err.Error()})
}

func extractGetUser(params gin.Params, _ url.Values) (any, error) {
	id := params.ByName("id")
	if id == "" {
		return nil, errors.New("invalid user id")
	}
	return chat.GetUserRequest{UserID: id}, nil
}

func extractGetMessages(_ gin.Params, query url.Values) (any, error) {
	req := chat.GetMessagesRequest{
		UserID:      query.Get("user_id"),
		OtherUserID: query.Get("other_user_id"),
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse limit: %w", err)
		}
		req.Limit = int32(limit)
	}
	return req, nil
}

func extractGetNotifications(_ gin.Params, query url.Values) (any, error) {
	req := chat.GetNotificationsRequest{
		UserID: query.Get("user_id"),
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse limit: %w", err)
		}
		req.Limit = int32(limit)
	}
	return req, nil
}
