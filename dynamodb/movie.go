package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"mflix/movie"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/segmentio/ksuid"
)

// API is the subset of *dynamodb.Client used by MovieRepository.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type MovieRepository struct {
	client API
	table  string
}

// movieItem is stored with nil fields as NULL attributes, so updates
// overwrite every field.
type movieItem struct {
	ID      string   `dynamodbav:"id"`
	Title   *string  `dynamodbav:"title"`
	Plot    *string  `dynamodbav:"plot"`
	Genres  []string `dynamodbav:"genres"`
	Runtime *int     `dynamodbav:"runtime"`
	Rated   *string  `dynamodbav:"rated"`
	Year    *int     `dynamodbav:"year"`
}

var movieProjection = expression.NamesList(
	expression.Name("id"),
	expression.Name("title"),
	expression.Name("plot"),
	expression.Name("genres"),
	expression.Name("runtime"),
	expression.Name("rated"),
	expression.Name("year"),
)

func NewMovieRepository(client API, table string) *MovieRepository {
	return &MovieRepository{
		client: client,
		table:  table,
	}
}

func (r *MovieRepository) FindMovie(ctx context.Context, id string) (movie.Document, error) {
	if err := validateTable(r.table); err != nil {
		return movie.Document{}, err
	}
	key, err := movieKey(id)
	if err != nil {
		return movie.Document{}, err
	}

	item, err := r.getItem(ctx, key, false)
	if err != nil {
		return movie.Document{}, err
	}
	return movie.NewDocument(item.toMovie()), nil
}

func (r *MovieRepository) getItem(ctx context.Context, key map[string]types.AttributeValue, consistent bool) (movieItem, error) {
	expr, err := expression.NewBuilder().WithProjection(movieProjection).Build()
	if err != nil {
		return movieItem{}, fmt.Errorf("dynamodb: build projection: %w", err)
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                &r.table,
		Key:                      key,
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
		ConsistentRead:           &consistent,
	})
	if err != nil {
		return movieItem{}, fmt.Errorf("dynamodb: get movie: %w", err)
	}
	if out.Item == nil {
		return movieItem{}, movie.ErrNotFound
	}

	var item movieItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return movieItem{}, fmt.Errorf("dynamodb: unmarshal movie: %w", err)
	}
	return item, nil
}

func (r *MovieRepository) InsertMovie(ctx context.Context, m movie.Movie) (string, error) {
	if err := validateTable(r.table); err != nil {
		return "", err
	}

	item := itemFromMovie(m)
	item.ID = ksuid.New().String()

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return "", fmt.Errorf("dynamodb: marshal movie: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.table,
		Item:      av,
	})
	if err != nil {
		return "", fmt.Errorf("dynamodb: put movie: %w", err)
	}

	return item.ID, nil
}

func (r *MovieRepository) ReplaceMovie(ctx context.Context, id string, m movie.Movie) error {
	if err := validateTable(r.table); err != nil {
		return err
	}
	key, err := movieKey(id)
	if err != nil {
		return err
	}

	// An update that leaves the item as it was counts as a miss.
	current, err := r.getItem(ctx, key, true)
	if err != nil {
		return err
	}
	item := itemFromMovie(m)
	item.ID = current.ID
	if reflect.DeepEqual(current, item) {
		return movie.ErrNotFound
	}

	update := expression.
		Set(expression.Name("title"), expression.Value(item.Title)).
		Set(expression.Name("plot"), expression.Value(item.Plot)).
		Set(expression.Name("genres"), expression.Value(item.Genres)).
		Set(expression.Name("runtime"), expression.Value(item.Runtime)).
		Set(expression.Name("rated"), expression.Value(item.Rated)).
		Set(expression.Name("year"), expression.Value(item.Year))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
	if err != nil {
		return fmt.Errorf("dynamodb: build update: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &r.table,
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return movie.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("dynamodb: update movie: %w", err)
	}
	return nil
}

func (r *MovieRepository) DeleteMovie(ctx context.Context, id string) error {
	if err := validateTable(r.table); err != nil {
		return err
	}
	key, err := movieKey(id)
	if err != nil {
		return err
	}

	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    &r.table,
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return fmt.Errorf("dynamodb: delete movie: %w", err)
	}
	if len(out.Attributes) == 0 {
		return movie.ErrNotFound
	}
	return nil
}

// DistinctGenres scans the whole table and keeps genres in first-seen order.
func (r *MovieRepository) DistinctGenres(ctx context.Context) ([]string, error) {
	if err := validateTable(r.table); err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name("genres"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("dynamodb: build projection: %w", err)
	}

	seen := make(map[string]struct{})
	genres := []string{}
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                &r.table,
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: scan genres: %w", err)
		}

		var items []movieItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("dynamodb: unmarshal genres: %w", err)
		}
		for _, item := range items {
			for _, g := range item.Genres {
				if _, ok := seen[g]; ok {
					continue
				}
				seen[g] = struct{}{}
				genres = append(genres, g)
			}
		}
	}

	return genres, nil
}

// FindMovies scans with a server side filter where DynamoDB has one and
// pages in memory. Plot matching is case-insensitive, which DynamoDB cannot
// express, so it is applied after the scan.
func (r *MovieRepository) FindMovies(ctx context.Context, q movie.Query) ([]movie.Document, error) {
	if err := validateTable(r.table); err != nil {
		return nil, err
	}

	builder := expression.NewBuilder().WithProjection(movieProjection)
	if cond, ok := scanFilter(q.Filter); ok {
		builder = builder.WithFilter(cond)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("dynamodb: build scan: %w", err)
	}

	skip, limit := int(q.Skip()), int(q.Limit())
	movies := []movie.Document{}
	matched := 0

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 &r.table,
		ProjectionExpression:      expr.Projection(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() && len(movies) < limit {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: scan movies: %w", err)
		}

		var items []movieItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("dynamodb: unmarshal movies: %w", err)
		}
		for _, item := range items {
			if !matchesPlot(q.Filter, item) {
				continue
			}
			matched++
			if matched <= skip {
				continue
			}
			movies = append(movies, movie.NewDocument(item.toMovie()))
			if len(movies) == limit {
				break
			}
		}
	}

	return movies, nil
}

func scanFilter(f movie.Filter) (expression.ConditionBuilder, bool) {
	switch f.Field {
	case movie.FieldTitle:
		return expression.Name("title").Equal(expression.Value(f.Value)), true
	case movie.FieldYear:
		if f.Year == nil {
			return expression.AttributeNotExists(expression.Name("id")), true
		}
		return expression.Name("year").Equal(expression.Value(*f.Year)), true
	case movie.FieldGenre:
		return expression.Name("genres").Contains(f.Value), true
	}
	return expression.ConditionBuilder{}, false
}

func matchesPlot(f movie.Filter, item movieItem) bool {
	if f.Field != movie.FieldPlot {
		return true
	}
	if item.Plot == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*item.Plot), strings.ToLower(f.Value))
}

func movieKey(id string) (map[string]types.AttributeValue, error) {
	if _, err := ksuid.Parse(id); err != nil {
		return nil, movie.ErrInvalidID
	}
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}, nil
}

func itemFromMovie(m movie.Movie) movieItem {
	return movieItem{
		ID:      m.ID,
		Title:   nullString(m.Title),
		Plot:    nullString(m.Plot),
		Genres:  m.Genres,
		Runtime: m.Runtime,
		Rated:   nullString(m.Rated),
		Year:    m.Year,
	}
}

func (item movieItem) toMovie() movie.Movie {
	return movie.Movie{
		ID:      item.ID,
		Title:   derefString(item.Title),
		Plot:    derefString(item.Plot),
		Genres:  item.Genres,
		Runtime: item.Runtime,
		Rated:   derefString(item.Rated),
		Year:    item.Year,
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
