package movie

import "context"

type Service interface {
	Get(ctx context.Context, id string) (Document, error)
	Create(ctx context.Context, m Movie) (string, error)
	Update(ctx context.Context, id string, m Movie) error
	Delete(ctx context.Context, id string) error
	Genres(ctx context.Context) ([]string, error)
	List(ctx context.Context, q Query) ([]Document, error)
}

// Repository is implemented by every store adapter. Implementations return
// ErrNotFound for a miss and ErrInvalidID for an id the store cannot parse.
// ReplaceMovie also returns ErrNotFound when the record already holds the
// submitted values.
type Repository interface {
	FindMovie(ctx context.Context, id string) (Document, error)
	InsertMovie(ctx context.Context, m Movie) (string, error)
	ReplaceMovie(ctx context.Context, id string, m Movie) error
	DeleteMovie(ctx context.Context, id string) error
	DistinctGenres(ctx context.Context) ([]string, error)
	FindMovies(ctx context.Context, q Query) ([]Document, error)
}

type Usecase struct {
	r Repository
}

func NewUsecase(r Repository) *Usecase {
	return &Usecase{r: r}
}

func (uc *Usecase) Get(ctx context.Context, id string) (Document, error) {
	return uc.r.FindMovie(ctx, id)
}

func (uc *Usecase) Create(ctx context.Context, m Movie) (string, error) {
	m.ID = ""
	return uc.r.InsertMovie(ctx, m)
}

func (uc *Usecase) Update(ctx context.Context, id string, m Movie) error {
	m.ID = ""
	return uc.r.ReplaceMovie(ctx, id, m)
}

func (uc *Usecase) Delete(ctx context.Context, id string) error {
	return uc.r.DeleteMovie(ctx, id)
}

func (uc *Usecase) Genres(ctx context.Context) ([]string, error) {
	genres, err := uc.r.DistinctGenres(ctx)
	if err != nil {
		return nil, err
	}
	if genres == nil {
		genres = []string{}
	}
	return genres, nil
}

func (uc *Usecase) List(ctx context.Context, q Query) ([]Document, error) {
	// Negative paging is rejected here rather than handed to the store,
	// where a negative limit would be read as its absolute value.
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Filter.MatchesNothing() || q.PageSize == 0 {
		return []Document{}, nil
	}

	movies, err := uc.r.FindMovies(ctx, q)
	if err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []Document{}
	}
	return movies, nil
}
