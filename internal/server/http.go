// Package server wires the credential lifecycle service into an HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mymarket/backend/internal/devmail"
	"mymarket/backend/internal/security"
)

// Server is the HTTP front for the lifecycle service.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	handler    *Handler
	tokens     *security.TokenProvider
	devStore   devmail.Store
}

// New builds the router and returns a Server listening on addr when Run is
// called. Request spans come from the otelhttp wrapper around the router.
// devStore may be nil; the dev credential route is then not registered.
func New(addr string, handler *Handler, tokens *security.TokenProvider, devStore devmail.Store) (*Server, error) {
	router := gin.New()
	router.Use(gin.Recovery(), WithClientIP())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	s := &Server{
		router:   router,
		handler:  handler,
		tokens:   tokens,
		devStore: devStore,
	}
	s.routes()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(router, "mymarket.http"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.handler.Health)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/register", s.handler.Register)
		v1.POST("/login", s.handler.Login)
		v1.POST("/refresh", s.handler.Refresh)
		v1.POST("/verify", s.handler.ConfirmVerification)
		v1.POST("/verify/resend", s.handler.RequestVerification)
	}

	authed := v1.Group("")
	authed.Use(RequireAccessToken(s.tokens))
	{
		authed.POST("/otp/request", s.handler.RequestOTP)
		authed.POST("/otp/confirm", s.handler.ConfirmOTP)
		authed.POST("/password", s.handler.ChangePassword)
		authed.POST("/email", s.handler.ChangeEmail)
		authed.GET("/activity", s.handler.Activity)
	}

	if s.devStore != nil {
		s.router.GET("/dev/credentials", s.devCredentials)
	}
}

const devCredentialNote = "DEV MODE ONLY"

// devCredentials returns the last captured verification token or OTP for an
// email. Registered only when a dev store is wired (never in production).
func (s *Server) devCredentials(c *gin.Context) {
	email := c.Query("email")
	kind := c.Query("kind")
	if email == "" || (kind != devmail.KindVerificationToken && kind != devmail.KindOTP) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and kind (verification_token|otp) are required"})
		return
	}
	value, ok := s.devStore.Get(c.Request.Context(), email, kind)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "credential not found or expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value, "note": devCredentialNote})
}

// Run starts serving. Blocks until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
