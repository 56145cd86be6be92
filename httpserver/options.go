package httpserver

import (
	"errors"
	"fmt"
	"log/slog"

	"mflix/movie"
	"mflix/pkg/config"
)

type Options func(s *Server) error

// WithConfig copies the listen port, CORS origins and error policy from cfg.
// A zero port keeps the default address.
func WithConfig(cfg *config.Config) Options {
	return func(s *Server) error {
		if cfg == nil {
			return errors.New("httpserver: nil config")
		}
		if cfg.Port != 0 {
			s.Addr = fmt.Sprintf(":%d", cfg.Port)
		}
		s.AllowOrigins = cfg.Origins()
		s.StrictClientErrors = cfg.StrictClientErrors
		return nil
	}
}

func WithMovieService(svc movie.Service) Options {
	return func(s *Server) error {
		s.MovieService = svc
		return nil
	}
}

func WithLogger(logger *slog.Logger) Options {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("httpserver: nil logger")
		}
		s.Logger = logger
		return nil
	}
}
