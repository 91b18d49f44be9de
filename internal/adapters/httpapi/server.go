// Package httpapi serves the chat engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/application"
	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/logging"
	"github.com/bnema/finchat/internal/version"
)

const (
	ProfileHeader   = "X-Profile-ID"
	DefaultAddr     = "127.0.0.1:8089"
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 64 << 10
)

// Chatter runs one chat turn.
type Chatter interface {
	Chat(ctx context.Context, req application.ChatRequest) (application.ChatResponse, error)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
	Debug   bool   `json:"debug"`
}

type Server struct {
	addr   string
	chat   Chatter
	logger *zap.Logger
	engine *gin.Engine
}

func NewServer(addr string, chat Chatter, logger *zap.Logger) *Server {
	if strings.TrimSpace(addr) == "" {
		addr = DefaultAddr
	}
	s := &Server{addr: addr, chat: chat, logger: logging.OrNop(logger)}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.accessLog())

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.POST("/agent/chat", s.handleChat)
	return engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.String("addr", listener.Addr().String()))
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http api: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http api: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: version.Version})
}

func (s *Server) handleChat(c *gin.Context) {
	profileID, err := uuid.Parse(strings.TrimSpace(c.GetHeader(ProfileHeader)))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ProfileHeader + " must be a uuid"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	response, err := s.chat.Chat(c.Request.Context(), application.ChatRequest{
		ProfileID: profileID.String(),
		Message:   req.Message,
		Debug:     req.Debug,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
			return
		}
		s.logger.Error("chat turn failed", zap.String("profile_id", profileID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}
