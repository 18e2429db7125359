package server

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-handle/chain"
	"github.com/saiset-co/sai-handle/types"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

type Options struct {
	Logger types.Logger
	Order  chain.Order
	// OnError receives a non-nil chain result. Without it the error is logged
	// and the response is left as the handlers wrote it.
	OnError func(cx *Context, err error)
}

// Handler turns handlers into a fasthttp.RequestHandler. Every request gets
// its own Context and chain; the handlers themselves are shared. handlers[0]
// is the outermost under either order.
func Handler(handlers []types.Handler[Context, error], opts Options) fasthttp.RequestHandler {
	handlers = chain.Arrange(opts.Order, handlers)

	chainOpts := []chain.Option[Context, error]{chain.WithOrder[Context, error](opts.Order)}
	if opts.Logger != nil {
		chainOpts = append(chainOpts, chain.WithLogger[Context, error](opts.Logger))
	}

	return func(rc *fasthttp.RequestCtx) {
		cx := NewContext(rc, chain.New(chainOpts...))

		err := chain.Run(rc, cx, cx.chain, handlers...)
		if err == nil {
			return
		}

		if opts.OnError != nil {
			opts.OnError(cx, err)
			return
		}

		if opts.Logger != nil {
			opts.Logger.Error("Request chain failed",
				zap.String("pass", cx.Pass()),
				zap.ByteString("method", rc.Method()),
				zap.ByteString("path", rc.Path()),
				zap.Error(err),
			)
		}
	}
}

type Server struct {
	config          *types.ServerConfig
	logger          types.Logger
	handler         fasthttp.RequestHandler
	server          *fasthttp.Server
	listener        net.Listener
	state           atomic.Int32
	shutdownTimeout time.Duration
}

func NewServer(config *types.ServerConfig, logger types.Logger, handler fasthttp.RequestHandler) *Server {
	return &Server{
		config:          config,
		logger:          logger,
		handler:         handler,
		shutdownTimeout: 10 * time.Second,
	}
}

func (s *Server) Start() error {
	if !s.transitionState(StateStopped, StateStarting) {
		return types.ErrServerAlreadyRunning
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.setState(StateStopped)
		return types.WrapError(err, "failed to listen on "+addr)
	}

	s.listener = listener
	s.server = &fasthttp.Server{
		Handler:         s.handler,
		Name:            "sai-handle",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		TCPKeepalive:    true,
		CloseOnShutdown: true,
	}

	s.setState(StateRunning)

	go func() {
		if err := s.server.Serve(listener); err != nil {
			s.logger.Error("HTTP server failed", zap.Error(err))
			s.setState(StateStopped)
		}
	}()

	s.logger.Info("HTTP server started", zap.String("address", listener.Addr().String()))

	return nil
}

func (s *Server) Stop() error {
	if !s.transitionState(StateRunning, StateStopping) {
		return types.ErrServerNotRunning
	}
	defer s.setState(StateStopped)

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.ShutdownWithContext(ctx); err != nil {
		s.logger.Warn("HTTP server did not stop gracefully", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")

	return nil
}

// Addr is the address the server listens on, or "" when it is not running.
func (s *Server) Addr() string {
	if s.listener == nil || !s.IsRunning() {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) IsRunning() bool {
	return State(s.state.Load()) == StateRunning
}

func (s *Server) setState(state State) {
	s.state.Store(int32(state))
}

func (s *Server) transitionState(from, to State) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}
