// nolint: funlen
package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"mflix/httpserver"
	"mflix/movie"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMovieService struct {
	mock.Mock
}

func (m *MockMovieService) Get(ctx context.Context, id string) (movie.Document, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(movie.Document), args.Error(1)
}

func (m *MockMovieService) Create(ctx context.Context, mv movie.Movie) (string, error) {
	args := m.Called(ctx, mv)
	return args.String(0), args.Error(1)
}

func (m *MockMovieService) Update(ctx context.Context, id string, mv movie.Movie) error {
	args := m.Called(ctx, id, mv)
	return args.Error(0)
}

func (m *MockMovieService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMovieService) Genres(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMovieService) List(ctx context.Context, q movie.Query) ([]movie.Document, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]movie.Document), args.Error(1)
}

const movieID = "573a1390f29313caabcd4135"

func intPtr(n int) *int { return &n }

func newMovieServer(t *testing.T) (*httpserver.Server, *MockMovieService) {
	t.Helper()
	svc := new(MockMovieService)
	server := httpserver.Default(testConfig())
	server.MovieService = svc
	t.Cleanup(func() { svc.AssertExpectations(t) })
	return server, svc
}

func serve(server *httpserver.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func newJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestGetMovie(t *testing.T) {
	t.Run("should returns 200 with the movie", func(t *testing.T) {
		server, svc := newMovieServer(t)
		m := movie.NewDocument(movie.Movie{
			ID:      movieID,
			Title:   "The Great Train Robbery",
			Plot:    "A group of bandits stage a brazen train hold-up.",
			Genres:  []string{"Short", "Western"},
			Runtime: intPtr(11),
			Rated:   "TV-G",
			Year:    intPtr(1903),
		})
		svc.On("Get", mock.Anything, movieID).Return(m, nil).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/movie?id="+movieID, nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.ElementsMatch(t,
			[]string{"_id", "title", "plot", "genres", "runtime", "rated", "year"},
			keys(body))
		assert.Equal(t, movieID, body["_id"])
		assert.Equal(t, float64(1903), body["year"])
	})

	t.Run("should returns null for empty fields", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Get", mock.Anything, movieID).Return(movie.NewDocument(movie.Movie{ID: movieID, Title: "Untitled"}), nil).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/movie?id="+movieID, nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.ElementsMatch(t,
			[]string{"_id", "title", "plot", "genres", "runtime", "rated", "year"},
			keys(body))
		assert.Nil(t, body["runtime"])
		assert.Nil(t, body["year"])
	})

	t.Run("should returns stored values unchanged", func(t *testing.T) {
		server, svc := newMovieServer(t)
		doc := movie.Document{ID: movieID, Fields: map[string]interface{}{"title": int32(1984), "year": "1999è"}}
		svc.On("Get", mock.Anything, movieID).Return(doc, nil).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/movie?id="+movieID, nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"_id":"573a1390f29313caabcd4135","title":1984,"year":"1999è"}`, rec.Body.String())
	})

	t.Run("should returns 404 when movie does not exist", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Get", mock.Anything, movieID).Return(movie.Document{}, movie.ErrNotFound).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/movie?id="+movieID, nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Movie not found", rec.Body.String())
	})

	t.Run("should returns 500 when id is malformed", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Get", mock.Anything, "not-an-id").Return(movie.Document{}, movie.ErrInvalidID).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/movie?id=not-an-id", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", rec.Body.String())
	})

	t.Run("should returns 400 for malformed id in strict mode", func(t *testing.T) {
		server, svc := newMovieServer(t)
		server.StrictClientErrors = true
		svc.On("Get", mock.Anything, "").Return(movie.Document{}, movie.ErrInvalidID).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/movie", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid movie id", rec.Body.String())
	})

	t.Run("should returns 500 when store fails", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Get", mock.Anything, movieID).Return(movie.Document{}, errors.New("server selection timeout")).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/movie?id="+movieID, nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", rec.Body.String())
	})
}

func TestCreateMovie(t *testing.T) {
	t.Run("should returns the new id as text", func(t *testing.T) {
		server, svc := newMovieServer(t)
		want := movie.Movie{
			Title:   "Heat",
			Plot:    "A group of professional bank robbers start to feel the heat.",
			Genres:  []string{"Action", "Crime"},
			Runtime: intPtr(170),
			Rated:   "R",
			Year:    intPtr(1995),
		}
		svc.On("Create", mock.Anything, want).Return("65f1c0ffee0000000000abcd", nil).Once()

		rec := serve(server, newJSONRequest(http.MethodPost, "/movie",
			`{"title":"Heat","plot":"A group of professional bank robbers start to feel the heat.",`+
				`"genres":["Action","Crime"],"runtime":"170","rated":"R","year":1995}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Success! Created document with _id: 65f1c0ffee0000000000abcd", rec.Body.String())
	})

	t.Run("should coerce loose integers", func(t *testing.T) {
		server, svc := newMovieServer(t)
		want := movie.Movie{Title: "Metropolis", Runtime: intPtr(153), Year: nil}
		svc.On("Create", mock.Anything, want).Return("id", nil).Once()

		rec := serve(server, newJSONRequest(http.MethodPost, "/movie",
			`{"title":"Metropolis","runtime":"153 min","year":"unknown"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should accept an empty body", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Create", mock.Anything, movie.Movie{}).Return("id", nil).Once()

		rec := serve(server, httptest.NewRequest(http.MethodPost, "/movie", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should accept loosely typed text fields", func(t *testing.T) {
		server, svc := newMovieServer(t)
		want := movie.Movie{Title: "1984", Genres: []string{"Drama"}}
		svc.On("Create", mock.Anything, want).Return("id", nil).Once()

		rec := serve(server, newJSONRequest(http.MethodPost, "/movie", `{"title":1984,"genres":"Drama","rated":{}}`))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should bind form bodies", func(t *testing.T) {
		server, svc := newMovieServer(t)
		want := movie.Movie{Title: "Nosferatu", Genres: []string{"Horror"}, Year: intPtr(1922)}
		svc.On("Create", mock.Anything, want).Return("id", nil).Once()
		form := url.Values{"title": {"Nosferatu"}, "genres": {"Horror"}, "year": {"1922"}}
		req := httptest.NewRequest(http.MethodPost, "/movie", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := serve(server, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should returns 400 when JSON is malformed", func(t *testing.T) {
		server, svc := newMovieServer(t)

		rec := serve(server, newJSONRequest(http.MethodPost, "/movie", `{"title": "Heat", invalid json`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Create")
	})

	t.Run("should returns 500 when store fails", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Create", mock.Anything, mock.Anything).Return("", errors.New("write concern error")).Once()

		rec := serve(server, newJSONRequest(http.MethodPost, "/movie", `{"title":"Heat"}`))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", rec.Body.String())
	})
}

func TestUpdateMovie(t *testing.T) {
	t.Run("should returns success text", func(t *testing.T) {
		server, svc := newMovieServer(t)
		want := movie.Movie{Title: "Heat", Year: intPtr(1995)}
		svc.On("Update", mock.Anything, movieID, want).Return(nil).Once()

		rec := serve(server, newJSONRequest(http.MethodPut, "/movie?id="+movieID, `{"title":"Heat","year":1995}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Success! Updated document.", rec.Body.String())
	})

	t.Run("should returns 404 when movie does not exist", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Update", mock.Anything, movieID, mock.Anything).Return(movie.ErrNotFound).Once()

		rec := serve(server, newJSONRequest(http.MethodPut, "/movie?id="+movieID, `{"title":"Heat"}`))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Movie not found", rec.Body.String())
	})

	t.Run("should returns 404 when nothing changed", func(t *testing.T) {
		server, svc := newMovieServer(t)
		want := movie.Movie{Title: "Heat", Year: intPtr(1995)}
		svc.On("Update", mock.Anything, movieID, want).Return(nil).Once()
		svc.On("Update", mock.Anything, movieID, want).Return(movie.ErrNotFound).Once()

		first := serve(server, newJSONRequest(http.MethodPut, "/movie?id="+movieID, `{"title":"Heat","year":1995}`))
		second := serve(server, newJSONRequest(http.MethodPut, "/movie?id="+movieID, `{"title":"Heat","year":1995}`))

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusNotFound, second.Code)
		assert.Equal(t, "Movie not found", second.Body.String())
	})
}

func TestDeleteMovie(t *testing.T) {
	t.Run("should returns success text then 404", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Delete", mock.Anything, movieID).Return(nil).Once()
		svc.On("Delete", mock.Anything, movieID).Return(movie.ErrNotFound).Once()

		first := serve(server, httptest.NewRequest(http.MethodDelete, "/movie?id="+movieID, nil))
		second := serve(server, httptest.NewRequest(http.MethodDelete, "/movie?id="+movieID, nil))

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, "Success! Deleted document.", first.Body.String())
		assert.Equal(t, http.StatusNotFound, second.Code)
		assert.Equal(t, "Movie not found", second.Body.String())
	})
}

func TestListGenres(t *testing.T) {
	t.Run("should returns a flat JSON array", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Genres", mock.Anything).Return([]string{"Action", "Comedy", "Drama"}, nil).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/genres", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `["Action","Comedy","Drama"]`, rec.Body.String())
	})

	t.Run("should returns an empty array", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("Genres", mock.Anything).Return([]string{}, nil).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/genres", nil))

		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestListMovies(t *testing.T) {
	tests := []struct {
		name   string
		target string
		query  movie.Query
	}{
		{
			name:   "defaults",
			target: "/movies",
			query:  movie.Query{Page: 1, PageSize: 10},
		},
		{
			name:   "second page of five",
			target: "/movies?page=2&moviesPerPage=5",
			query:  movie.Query{Page: 2, PageSize: 5},
		},
		{
			name:   "non-numeric paging falls back to defaults",
			target: "/movies?page=abc&moviesPerPage=0",
			query:  movie.Query{Page: 1, PageSize: 10},
		},
		{
			name:   "title wins over every other filter",
			target: "/movies?genre=Drama&year=1995&plot=heist&title=Heat",
			query:  movie.Query{Page: 1, PageSize: 10, Filter: movie.Filter{Field: movie.FieldTitle, Value: "Heat"}},
		},
		{
			name:   "plot wins over year and genre",
			target: "/movies?genre=Drama&year=1995&plot=heist",
			query:  movie.Query{Page: 1, PageSize: 10, Filter: movie.Filter{Field: movie.FieldPlot, Value: "heist"}},
		},
		{
			name:   "year wins over genre",
			target: "/movies?genre=Drama&year=1995",
			query: movie.Query{Page: 1, PageSize: 10,
				Filter: movie.Filter{Field: movie.FieldYear, Value: "1995", Year: intPtr(1995)}},
		},
		{
			name:   "genre",
			target: "/movies?genre=Drama",
			query:  movie.Query{Page: 1, PageSize: 10, Filter: movie.Filter{Field: movie.FieldGenre, Value: "Drama"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, svc := newMovieServer(t)
			result := []movie.Document{{ID: movieID, Fields: map[string]interface{}{"title": "Heat"}}}
			svc.On("List", mock.Anything, tt.query).Return(result, nil).Once()

			rec := serve(server, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `[{"_id":"573a1390f29313caabcd4135","title":"Heat"}]`, rec.Body.String())
		})
	}

	t.Run("should returns 500 for negative paging", func(t *testing.T) {
		server, svc := newMovieServer(t)
		svc.On("List", mock.Anything, mock.Anything).Return([]movie.Document(nil), movie.ErrInvalidPaging).Once()

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/movies?page=-1", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", rec.Body.String())
	})
}

func TestMovieRoutesWithoutService(t *testing.T) {
	server := httpserver.Default(testConfig())

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/genres", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", rec.Body.String())
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
