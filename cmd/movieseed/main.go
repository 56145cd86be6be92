package main

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mflix/movie"
	"mflix/pkg/config"
	"mflix/pkg/store"
)

const defaultMovieLensURL = "https://files.grouplens.org/datasets/movielens/ml-latest-small.zip"

// noGenres is how MovieLens marks a movie without genres.
const noGenres = "(no genres listed)"

var titleYear = regexp.MustCompile(`^(.*?)\s*\((\d{4})\)\s*$`)

func main() {
	var (
		csvPath string
		zipURL  string
		limit   int
	)

	flag.StringVar(&csvPath, "csv", "", "Path to movies.csv (skip download)")
	flag.StringVar(&zipURL, "url", defaultMovieLensURL, "MovieLens zip URL")
	flag.IntVar(&limit, "limit", 0, "Limit number of new movies to import (0 = all); stored movies are skipped")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	count, err := run(context.Background(), cfg, logger, csvPath, zipURL, limit)
	if err != nil {
		slog.Error("import failed", "rows", count, "error", err)
		os.Exit(1)
	}

	slog.Info("import completed", "rows", count, "store", cfg.StoreDriver)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, csvPath, zipURL string, limit int) (int, error) {
	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := closeStore(ctx); err != nil {
			logger.Error("store close failed", "error", err)
		}
	}()

	if csvPath == "" {
		path, cleanup, err := downloadAndExtract(zipURL)
		if err != nil {
			return 0, fmt.Errorf("download dataset: %w", err)
		}
		defer cleanup()
		csvPath = path
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return importMovies(ctx, repo, file, limit)
}

func downloadAndExtract(zipURL string) (string, func(), error) {
	if zipURL == "" {
		return "", func() {}, errors.New("dataset url is empty")
	}

	tmpDir, err := os.MkdirTemp("", "movielens-")
	if err != nil {
		return "", func() {}, err
	}

	cleanup := func() {
		_ = os.RemoveAll(tmpDir)
	}

	zipPath := filepath.Join(tmpDir, "dataset.zip")
	if err := downloadFile(zipURL, zipPath); err != nil {
		cleanup()
		return "", func() {}, err
	}

	csvPath, err := extractMoviesCSV(zipPath, tmpDir)
	if err != nil {
		cleanup()
		return "", func() {}, err
	}

	return csvPath, cleanup, nil
}

func downloadFile(url, dest string) error {
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(url) // nolint: noctx
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

func extractMoviesCSV(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, file := range r.File {
		if !strings.HasSuffix(file.Name, "movies.csv") {
			continue
		}

		src, err := file.Open()
		if err != nil {
			return "", err
		}
		defer src.Close()

		destPath := filepath.Join(destDir, filepath.Base(file.Name))
		out, err := os.Create(destPath)
		if err != nil {
			return "", err
		}

		if _, err := io.Copy(out, src); err != nil {
			_ = out.Close()
			return "", err
		}
		if err := out.Close(); err != nil {
			return "", err
		}

		return destPath, nil
	}

	return "", errors.New("movies.csv not found in zip")
}

// importMovies inserts one record per csv row. Rows without a usable title
// and movies already stored with the same title and year are skipped, so
// the import can be run again over the same file. The first store error
// stops the import.
func importMovies(ctx context.Context, repo movie.Repository, r io.Reader, limit int) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	idxTitle, idxGenres, err := parseMovieCSVHeader(reader)
	if err != nil {
		return 0, err
	}

	count := 0
	for limit <= 0 || count < limit {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, err
		}
		m, ok := parseMovieRecord(record, idxTitle, idxGenres)
		if !ok {
			continue
		}

		stored, err := alreadyStored(ctx, repo, m)
		if err != nil {
			return count, fmt.Errorf("lookup %q: %w", m.Title, err)
		}
		if stored {
			continue
		}

		if _, err := repo.InsertMovie(ctx, m); err != nil {
			return count, fmt.Errorf("insert %q: %w", m.Title, err)
		}

		count++
	}

	return count, nil
}

// existingPageSize bounds the lookup of same-titled movies. MovieLens reuses
// a title only for remakes, so one page is plenty.
const existingPageSize = 100

func alreadyStored(ctx context.Context, repo movie.Repository, m movie.Movie) (bool, error) {
	q := movie.Query{Page: 1, PageSize: existingPageSize, Filter: movie.NewFilter(m.Title, "", "", "")}
	docs, err := repo.FindMovies(ctx, q)
	if err != nil {
		return false, err
	}

	for _, doc := range docs {
		year, ok := doc.Int("year")
		if (m.Year == nil && !ok) || (m.Year != nil && ok && *m.Year == year) {
			return true, nil
		}
	}
	return false, nil
}

func parseMovieCSVHeader(reader *csv.Reader) (int, int, error) {
	header, err := reader.Read()
	if err != nil {
		return 0, 0, err
	}

	idxTitle, idxGenres := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "title":
			idxTitle = i
		case "genres":
			idxGenres = i
		}
	}
	if idxTitle == -1 || idxGenres == -1 {
		return 0, 0, errors.New("missing required columns in csv header")
	}

	return idxTitle, idxGenres, nil
}

// parseMovieRecord turns "Heat (1995)" and "Action|Crime|Thriller" into a
// movie with its year and genres split out.
func parseMovieRecord(record []string, idxTitle, idxGenres int) (movie.Movie, bool) {
	if idxTitle >= len(record) || idxGenres >= len(record) {
		return movie.Movie{}, false
	}

	m := movie.Movie{Title: strings.TrimSpace(record[idxTitle])}
	if match := titleYear.FindStringSubmatch(m.Title); match != nil {
		year, _ := strconv.Atoi(match[2])
		m.Title = match[1]
		m.Year = &year
	}
	if m.Title == "" {
		return movie.Movie{}, false
	}

	for _, g := range strings.Split(record[idxGenres], "|") {
		if g = strings.TrimSpace(g); g != "" && g != noGenres {
			m.Genres = append(m.Genres, g)
		}
	}
	return m, true
}
