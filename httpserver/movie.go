package httpserver

import (
	"fmt"
	"net/http"

	"mflix/errs"
	"mflix/movie"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterMovieRoutes() {
	r := s.Router
	r.GET("/movie", s.handleGetMovie, s.requireMovieService)
	r.POST("/movie", s.handleCreateMovie, s.requireMovieService)
	r.PUT("/movie", s.handleUpdateMovie, s.requireMovieService)
	r.DELETE("/movie", s.handleDeleteMovie, s.requireMovieService)
	r.GET("/genres", s.handleListGenres, s.requireMovieService)
	r.GET("/movies", s.handleListMovies, s.requireMovieService)
}

func (s *Server) requireMovieService(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.MovieService == nil {
			return errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured")
		}
		return next(c)
	}
}

// handleGetMovie returns one movie by its id query parameter.
//
//	GET /movie?id=573a1390f29313caabcd4135
func (s *Server) handleGetMovie(c echo.Context) error {
	m, err := s.MovieService.Get(c.Request().Context(), c.QueryParam("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleCreateMovie(c echo.Context) error {
	var req MovieRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	id, err := s.MovieService.Create(c.Request().Context(), req.ToMovie())
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, fmt.Sprintf("Success! Created document with _id: %s", id))
}

// handleUpdateMovie overwrites every field of the movie, including the ones
// missing from the body. A body that leaves the movie unchanged is a 404.
func (s *Server) handleUpdateMovie(c echo.Context) error {
	var req MovieRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := s.MovieService.Update(c.Request().Context(), c.QueryParam("id"), req.ToMovie()); err != nil {
		return err
	}
	return c.String(http.StatusOK, "Success! Updated document.")
}

func (s *Server) handleDeleteMovie(c echo.Context) error {
	if err := s.MovieService.Delete(c.Request().Context(), c.QueryParam("id")); err != nil {
		return err
	}
	return c.String(http.StatusOK, "Success! Deleted document.")
}

func (s *Server) handleListGenres(c echo.Context) error {
	genres, err := s.MovieService.Genres(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, genres)
}

// handleListMovies pages through movies matching at most one filter.
//
//	GET /movies?page=2&moviesPerPage=5&genre=Drama
func (s *Server) handleListMovies(c echo.Context) error {
	f := movie.NewFilter(
		c.QueryParam("title"),
		c.QueryParam("plot"),
		c.QueryParam("year"),
		c.QueryParam("genre"),
	)
	q := movie.NewQuery(c.QueryParam("page"), c.QueryParam("moviesPerPage"), f)

	movies, err := s.MovieService.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, movies)
}
