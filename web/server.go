package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// UpdateHandler consumes one Telegram update; the bot satisfies it.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Server receives Telegram webhook posts and exposes a liveness probe.
// The path secret is the only authentication, matching how the webhook is
// registered with Telegram.
type Server struct {
	secret  string
	handler UpdateHandler
	srv     *http.Server
}

func NewServer(port int, secret string, handler UpdateHandler) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		secret:  secret,
		handler: handler,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/webhook/:secret", s.handleWebhook)

	return s
}

func (s *Server) handleWebhook(c *gin.Context) {
	if c.Param("secret") != s.secret {
		c.Status(http.StatusForbidden)
		return
	}
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Warn().Err(err).Msg("webhook decode failed")
		c.Status(http.StatusBadRequest)
		return
	}
	s.handler.HandleUpdate(c.Request.Context(), update)
	c.Status(http.StatusOK)
}

// Run blocks serving HTTP until Shutdown.
func (s *Server) Run() error {
	log.Info().Str("addr", s.srv.Addr).Msg("webhook server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
