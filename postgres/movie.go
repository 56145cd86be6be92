package postgres

import (
	"context"
	"errors"
	"fmt"
	"mflix/movie"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MovieModel represents the database model for movies.
// runtime and year are nullable so non-numeric input can be kept as NULL.
type MovieModel struct {
	ID      string         `gorm:"type:uuid;primaryKey"`
	Title   *string        `gorm:"column:title"`
	Plot    *string        `gorm:"column:plot"`
	Genres  pq.StringArray `gorm:"column:genres;type:text[]"`
	Runtime *int           `gorm:"column:runtime"`
	Rated   *string        `gorm:"column:rated"`
	Year    *int           `gorm:"column:year"`
}

// TableName specifies the table name for GORM
func (MovieModel) TableName() string {
	return "movies"
}

// MovieRepository implements movie.Repository interface on PostgreSQL.
type MovieRepository struct {
	db *gorm.DB
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) FindMovie(ctx context.Context, id string) (movie.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return movie.Document{}, movie.ErrInvalidID
	}

	var model MovieModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return movie.Document{}, movie.ErrNotFound
	}
	if err != nil {
		return movie.Document{}, fmt.Errorf("postgres: find movie: %w", err)
	}

	return movie.NewDocument(model.toMovie()), nil
}

func (r *MovieRepository) InsertMovie(ctx context.Context, m movie.Movie) (string, error) {
	model := modelFromMovie(m)
	model.ID = uuid.NewString()

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", fmt.Errorf("postgres: insert movie: %w", err)
	}
	return model.ID, nil
}

func (r *MovieRepository) ReplaceMovie(ctx context.Context, id string, m movie.Movie) error {
	if _, err := uuid.Parse(id); err != nil {
		return movie.ErrInvalidID
	}

	model := modelFromMovie(m)
	// A map update writes NULL for nil values; struct updates would skip them.
	// Rows that already hold every value are left out so they count as a miss.
	res := r.db.WithContext(ctx).Model(&MovieModel{}).
		Where("id = ?", id).
		Where(changedPredicate,
			model.Title, model.Plot, model.Genres, model.Runtime, model.Rated, model.Year).
		Updates(map[string]interface{}{
		"title":   model.Title,
		"plot":    model.Plot,
		"genres":  model.Genres,
		"runtime": model.Runtime,
		"rated":   model.Rated,
		"year":    model.Year,
	})
	if res.Error != nil {
		return fmt.Errorf("postgres: update movie: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return movie.ErrNotFound
	}
	return nil
}

func (r *MovieRepository) DeleteMovie(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return movie.ErrInvalidID
	}

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&MovieModel{})
	if res.Error != nil {
		return fmt.Errorf("postgres: delete movie: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return movie.ErrNotFound
	}
	return nil
}

func (r *MovieRepository) DistinctGenres(ctx context.Context) ([]string, error) {
	const sql = `SELECT DISTINCT unnest(genres) AS genre FROM movies`

	var genres []string
	if err := r.db.WithContext(ctx).Raw(sql).Scan(&genres).Error; err != nil {
		return nil, fmt.Errorf("postgres: distinct genres: %w", err)
	}
	return genres, nil
}

func (r *MovieRepository) FindMovies(ctx context.Context, q movie.Query) ([]movie.Document, error) {
	tx := r.db.WithContext(ctx).Model(&MovieModel{})

	switch q.Filter.Field {
	case movie.FieldTitle:
		tx = tx.Where("title = ?", q.Filter.Value)
	case movie.FieldPlot:
		tx = tx.Where(`plot ILIKE ? ESCAPE '\'`, "%"+escapeLike(q.Filter.Value)+"%")
	case movie.FieldYear:
		if q.Filter.Year == nil {
			return []movie.Document{}, nil
		}
		tx = tx.Where("year = ?", *q.Filter.Year)
	case movie.FieldGenre:
		tx = tx.Where("? = ANY(genres)", q.Filter.Value)
	}

	var models []MovieModel
	if err := tx.Offset(int(q.Skip())).Limit(int(q.Limit())).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("postgres: find movies: %w", err)
	}

	movies := make([]movie.Document, len(models))
	for i, model := range models {
		movies[i] = movie.NewDocument(model.toMovie())
	}
	return movies, nil
}

const changedPredicate = `(title IS DISTINCT FROM ? OR plot IS DISTINCT FROM ? OR ` +
	`genres IS DISTINCT FROM ? OR runtime IS DISTINCT FROM ? OR ` +
	`rated IS DISTINCT FROM ? OR year IS DISTINCT FROM ?)`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func modelFromMovie(m movie.Movie) MovieModel {
	return MovieModel{
		ID:      m.ID,
		Title:   nullString(m.Title),
		Plot:    nullString(m.Plot),
		Genres:  pq.StringArray(m.Genres),
		Runtime: m.Runtime,
		Rated:   nullString(m.Rated),
		Year:    m.Year,
	}
}

func (model MovieModel) toMovie() movie.Movie {
	return movie.Movie{
		ID:      model.ID,
		Title:   derefString(model.Title),
		Plot:    derefString(model.Plot),
		Genres:  []string(model.Genres),
		Runtime: model.Runtime,
		Rated:   derefString(model.Rated),
		Year:    model.Year,
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
