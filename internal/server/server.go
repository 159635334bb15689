package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fitledger/internal/domain"
	"fitledger/internal/service"
)

// SessionVerifier checks the opaque session credential issued by the auth
// subsystem. This core only distinguishes valid from rejected; a rejection
// is domain.ErrSessionExpired regardless of why.
type SessionVerifier interface {
	Verify(ctx context.Context, credential string) (buyerID string, err error)
}

type Server struct {
	router   *gin.Engine
	orders   *service.OrderService
	captures *service.CaptureService
	access   *service.AccessService
	sessions SessionVerifier
	log      *slog.Logger
}

func New(
	corsOrigins []string,
	orders *service.OrderService,
	captures *service.CaptureService,
	access *service.AccessService,
	sessions SessionVerifier,
	log *slog.Logger,
) *Server {
	s := &Server{
		orders:   orders,
		captures: captures,
		access:   access,
		sessions: sessions,
		log:      log,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")
	api.POST("/orders", s.requireSession, s.createOrder)
	api.POST("/orders/:id/capture", s.requireSession, s.capturePayment)
	// Access checks answer false for anonymous callers instead of failing,
	// so content-serving code never has to special-case missing sessions.
	api.GET("/access/:itemId", s.optionalSession, s.checkAccess)
	api.GET("/course-access/:itemId", s.optionalSession, s.checkAccess)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router = r
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

const buyerIDKey = "buyerID"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) requireSession(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": domain.ErrSessionExpired.Error(),
			"code":  "SESSION_EXPIRED",
		})
		return
	}
	buyerID, err := s.sessions.Verify(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": domain.ErrSessionExpired.Error(),
			"code":  "SESSION_EXPIRED",
		})
		return
	}
	c.Set(buyerIDKey, buyerID)
}

func (s *Server) optionalSession(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		return
	}
	if buyerID, err := s.sessions.Verify(c.Request.Context(), token); err == nil {
		c.Set(buyerIDKey, buyerID)
	}
}
