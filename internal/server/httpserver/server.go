// Package httpserver exposes the user service over HTTP using gin.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/financa/internal/logging"
	"github.com/dmitrijs2005/financa/internal/server/auth"
	"github.com/dmitrijs2005/financa/internal/server/models"
	"github.com/dmitrijs2005/financa/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// UserService is the business logic the handlers call into.
type UserService interface {
	Create(ctx context.Context, in services.CreateUserInput) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, id int64, in services.UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// TokenVerifier checks bearer tokens presented by clients.
type TokenVerifier interface {
	Parse(token string) (*auth.Claims, error)
}

type Server struct {
	address  string
	users    UserService
	verifier TokenVerifier
	logger   logging.Logger
	engine   *gin.Engine
}

func NewServer(a string, l logging.Logger, us UserService, v TokenVerifier) *Server {
	s := &Server{
		address:  a,
		logger:   l.With("module", "http_server"),
		users:    us,
		verifier: v,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.requestLogger(), s.recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/users")
	api.POST("", s.createUser)
	api.POST("/login", s.login)
	api.GET("/me", RequireAuth(s.verifier), s.me)
	api.GET("/:id", s.getUser)
	api.PUT("/:id", s.updateUser)
	api.DELETE("/:id", s.deleteUser)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(context.Background(), "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
