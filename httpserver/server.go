package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"mflix/errs"
	"mflix/movie"
	"mflix/pkg/config"
	"mflix/pkg/otel"
	"mflix/pkg/sentry"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	defaultAddr           = ":3000"
	internalServerMessage = "Internal server error"
)

type Server struct {
	// Router is the Echo router instance
	Router *echo.Echo

	// Addr represents the address the server will listen on
	Addr string

	// Allowed origins for CORS
	AllowOrigins []string

	// StrictClientErrors answers invalid input with 400 instead of 500
	StrictClientErrors bool

	Logger *slog.Logger

	MovieService movie.Service
}

// New builds a server and applies options before any route or middleware is
// registered.
func New(options ...Options) (*Server, error) {
	s := Server{
		Router:       echo.New(),
		Addr:         defaultAddr,
		AllowOrigins: []string{"*"},
		Logger:       slog.Default(),
	}

	for _, fn := range options {
		if err := fn(&s); err != nil {
			return nil, err
		}
	}

	s.Router.HideBanner = true
	s.Router.HTTPErrorHandler = s.handleError
	s.RegisterGlobalMiddlewares()
	s.RegisterHealthRoutes()
	s.RegisterMovieRoutes()
	return &s, nil
}

func Default(cfg *config.Config) *Server {
	s, err := New(WithConfig(cfg))
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Server) RegisterGlobalMiddlewares() {
	s.Router.Use(middleware.Recover())
	s.Router.Use(middleware.Secure())
	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Gzip())
	s.Router.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	// CORS
	if len(s.AllowOrigins) > 0 {
		s.Router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.AllowOrigins,
		}))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	return s.Router.Start(s.Addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Router.Shutdown(ctx)
}

// handleError writes every failure as a single plain-text line. Only a
// not-found error keeps its message; everything else the store or the
// request produced collapses into a generic 500 unless StrictClientErrors
// is set.
func (s *Server) handleError(err error, c echo.Context) {
	code, message := s.statusFor(err)

	if code >= http.StatusInternalServerError {
		s.Logger.Error(err.Error(),
			slog.String("request_id", requestID(c)),
			slog.String("trace_id", otel.TraceID(c.Request().Context())),
			slog.String("method", c.Request().Method),
			slog.String("uri", c.Request().RequestURI),
		)
		sentry.WithContext(c).Error(err)
	}

	// Don't write response if already committed
	if c.Response().Committed {
		return
	}
	if err := c.String(code, message); err != nil {
		s.Logger.Error("write error response", slog.String("error", err.Error()))
	}
}

func (s *Server) statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}

	switch errs.ErrorCode(err) {
	case errs.ENOTFOUND:
		return http.StatusNotFound, errs.ErrorMessage(err)
	case errs.EINVALID:
		if s.StrictClientErrors {
			return http.StatusBadRequest, errs.ErrorMessage(err)
		}
	}
	return http.StatusInternalServerError, internalServerMessage
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
