package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/chatmesh/chatmesh/internal/observability"
	"github.com/chatmesh/chatmesh/internal/protocol/frame"
	"github.com/chatmesh/chatmesh/internal/tracectx"
)

// Handler processes one decoded request payload and returns the response
// payload. A returned error is converted into the error envelope; the
// connection worker recovers panics the same way.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// ServerConfig configures one RPC listening socket.
//
// MaxConns, ReadTimeout, WriteTimeout and AcceptRate are opt-in protections;
// their zero values preserve the baseline behavior of unlimited concurrent
// connections with no deadlines.
type ServerConfig struct {
	Name string // service name, prefixes span names
	Addr string // bind address, host:port (port 0 picks an ephemeral port)

	MaxConns     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AcceptRate   rate.Limit
	AcceptBurst  int

	Limits frame.Limits
	Logger zerolog.Logger
}

// Server accepts connections and dispatches one request frame per connection
// to a registered handler.
type Server struct {
	cfg      ServerConfig
	limits   frame.Limits
	handlers map[string]Handler
	tracer   trace.Tracer
	logger   zerolog.Logger

	limiter *rate.Limiter
	sem     chan struct{}

	listener net.Listener
	acceptWG sync.WaitGroup
	stop     context.CancelFunc
	stopped  context.Context
	started  atomic.Bool
	shutdown atomic.Bool
}

func NewServer(cfg ServerConfig) *Server {
	limits := cfg.Limits
	if limits == (frame.Limits{}) {
		limits = frame.DefaultLimits()
	}
	s := &Server{
		cfg:      cfg,
		limits:   limits,
		handlers: make(map[string]Handler),
		tracer:   otel.Tracer(cfg.Name),
		logger:   cfg.Logger.With().Str("service", cfg.Name).Logger(),
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(cfg.AcceptRate, burst)
	}
	if cfg.MaxConns > 0 {
		s.sem = make(chan struct{}, cfg.MaxConns)
	}
	return s
}

// Register binds a handler to a message type. Every supported type must be
// registered before Start. Registering the same type twice is a programmer
// error and is rejected.
func (s *Server) Register(msgType string, h Handler) error {
	if s.started.Load() {
		return ErrServerStarted
	}
	if _, dup := s.handlers[msgType]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, msgType)
	}
	s.handlers[msgType] = h
	return nil
}

// Start binds the listening socket and launches the accept loop. The handler
// table is read-only from this point on.
func (s *Server) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrServerStarted
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		// Roll back so a later Stop is a no-op and Start may be retried.
		s.started.Store(false)
		return fmt.Errorf("rpc: listen %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.stopped, s.stop = context.WithCancel(context.Background())
	s.logger.Info().Str("addr", ln.Addr().String()).Int("handlers", len(s.handlers)).Msg("rpc_server_listening")

	s.acceptWG.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listening socket and waits for the accept loop to exit.
// In-flight connection workers are not joined; they finish on their own.
func (s *Server) Stop() error {
	if !s.started.Load() || !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	s.stop()
	err := s.listener.Close()
	s.acceptWG.Wait()
	s.logger.Info().Msg("rpc_server_stopped")
	return err
}

func (s *Server) acceptLoop() {
	defer s.acceptWG.Done()
	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(s.stopped); err != nil {
				return
			}
		}
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return
			}
			s.logger.Error().Err(err).Msg("rpc_accept_failed")
			return
		}
		if s.sem != nil {
			s.sem <- struct{}{}
		}
		go func() {
			defer func() {
				if s.sem != nil {
					<-s.sem
				}
			}()
			s.handleConn(conn)
		}()
	}
}

// handleConn serves exactly one request/response pair, then closes the
// connection. Framing failures drop the connection without a reply.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	start := time.Now()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout))
	}
	req, err := frame.ReadRequest(conn, s.limits)
	if err != nil {
		s.logger.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("rpc_frame_dropped")
		observability.RecordRPCRequest(s.cfg.Name, "", "framing_error", time.Since(start))
		return
	}

	ctx := tracectx.ApplyBinary(context.Background(), req.Trace)
	ctx, span := s.tracer.Start(ctx, s.cfg.Name+"."+req.Type)
	defer span.End()
	span.SetAttributes(
		attribute.String("message.type", req.Type),
		attribute.String("service.name", s.cfg.Name),
		attribute.String("protocol", "tcp"),
	)

	var payload []byte
	outcome := "ok"
	if h, ok := s.handlers[req.Type]; ok {
		resp, herr := s.invoke(ctx, h, req.Payload)
		if herr != nil {
			outcome = "handler_error"
			span.SetStatus(codes.Error, herr.Error())
			payload = errorPayload(herr.Error())
			s.logger.Warn().Err(herr).Str("type", req.Type).Msg("rpc_handler_failed")
		} else {
			span.SetStatus(codes.Ok, "")
			payload = resp
		}
	} else {
		outcome = "unknown_type"
		msg := "unknown message type: " + req.Type
		span.SetStatus(codes.Error, msg)
		payload = errorPayload(msg)
		s.logger.Warn().Str("type", req.Type).Msg("rpc_unknown_message_type")
	}

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := frame.WriteResponse(conn, payload, s.limits); err != nil {
		outcome = "write_error"
		s.logger.Debug().Err(err).Str("type", req.Type).Msg("rpc_response_write_failed")
	}
	observability.RecordRPCRequest(s.cfg.Name, req.Type, outcome, time.Since(start))
}

// invoke runs the handler with a panic guard so one failing request cannot
// take down the listener.
func (s *Server) invoke(ctx context.Context, h Handler, payload []byte) (resp []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, payload)
}

func errorPayload(msg string) []byte {
	b, _ := json.Marshal(Envelope{Success: false, Message: msg})
	return b
}
