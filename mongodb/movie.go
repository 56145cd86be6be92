package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mflix/movie"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// movieProjection limits every read to the fields of movie.Document.
var movieProjection = bson.D{
	{Key: "_id", Value: 1},
	{Key: "title", Value: 1},
	{Key: "plot", Value: 1},
	{Key: "genres", Value: 1},
	{Key: "runtime", Value: 1},
	{Key: "rated", Value: 1},
	{Key: "year", Value: 1},
}

// movieFields is what create and update write. Nil pointers and slices are
// stored as null so an update always overwrites every field.
type movieFields struct {
	Title   *string  `bson:"title"`
	Plot    *string  `bson:"plot"`
	Genres  []string `bson:"genres"`
	Runtime *int     `bson:"runtime"`
	Rated   *string  `bson:"rated"`
	Year    *int     `bson:"year"`
}

// MovieRepository implements movie.Repository on a MongoDB collection.
type MovieRepository struct {
	coll *mongo.Collection
}

func NewMovieRepository(db *mongo.Database, collection string) *MovieRepository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MovieRepository{coll: db.Collection(collection)}
}

func (r *MovieRepository) FindMovie(ctx context.Context, id string) (movie.Document, error) {
	oid, err := parseID(id)
	if err != nil {
		return movie.Document{}, err
	}

	raw, err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}},
		options.FindOne().SetProjection(movieProjection),
	).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return movie.Document{}, movie.ErrNotFound
	}
	if err != nil {
		return movie.Document{}, fmt.Errorf("mongodb: find movie: %w", err)
	}

	doc, err := toDocument(raw)
	if err != nil {
		return movie.Document{}, fmt.Errorf("mongodb: decode movie: %w", err)
	}
	return doc, nil
}

func (r *MovieRepository) InsertMovie(ctx context.Context, m movie.Movie) (string, error) {
	res, err := r.coll.InsertOne(ctx, fieldsFromMovie(m))
	if err != nil {
		return "", fmt.Errorf("mongodb: insert movie: %w", err)
	}

	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return fmt.Sprint(res.InsertedID), nil
	}
	return oid.Hex(), nil
}

func (r *MovieRepository) ReplaceMovie(ctx context.Context, id string, m movie.Movie) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: fieldsFromMovie(m)}},
	)
	if err != nil {
		return fmt.Errorf("mongodb: update movie: %w", err)
	}
	// An update that leaves the record as it was counts as a miss.
	if res.ModifiedCount == 0 {
		return movie.ErrNotFound
	}
	return nil
}

func (r *MovieRepository) DeleteMovie(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("mongodb: delete movie: %w", err)
	}
	if res.DeletedCount == 0 {
		return movie.ErrNotFound
	}
	return nil
}

// DistinctGenres unwinds genres server side; nested arrays left in old
// records are flattened here.
func (r *MovieRepository) DistinctGenres(ctx context.Context) ([]string, error) {
	var values []interface{}
	if err := r.coll.Distinct(ctx, "genres", bson.D{}).Decode(&values); err != nil {
		return nil, fmt.Errorf("mongodb: distinct genres: %w", err)
	}

	genres := make([]string, 0, len(values))
	return flattenGenres(genres, values), nil
}

func (r *MovieRepository) FindMovies(ctx context.Context, q movie.Query) ([]movie.Document, error) {
	opts := options.Find().
		SetProjection(movieProjection).
		SetSkip(q.Skip()).
		SetLimit(q.Limit())

	cursor, err := r.coll.Find(ctx, listFilter(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: find movies: %w", err)
	}
	defer cursor.Close(ctx)

	movies := []movie.Document{}
	for cursor.Next(ctx) {
		doc, err := toDocument(cursor.Current)
		if err != nil {
			return nil, fmt.Errorf("mongodb: decode movies: %w", err)
		}
		movies = append(movies, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongodb: find movies: %w", err)
	}
	return movies, nil
}

func listFilter(f movie.Filter) bson.D {
	switch f.Field {
	case movie.FieldTitle:
		return bson.D{{Key: "title", Value: f.Value}}
	case movie.FieldPlot:
		return bson.D{{Key: "plot", Value: bson.Regex{Pattern: regexp.QuoteMeta(f.Value), Options: "i"}}}
	case movie.FieldYear:
		if f.Year == nil {
			return bson.D{{Key: "_id", Value: bson.D{{Key: "$exists", Value: false}}}}
		}
		return bson.D{{Key: "year", Value: *f.Year}}
	case movie.FieldGenre:
		return bson.D{{Key: "genres", Value: f.Value}}
	}
	return bson.D{}
}

func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, movie.ErrInvalidID
	}
	return oid, nil
}

func flattenGenres(dst []string, values []interface{}) []string {
	for _, v := range values {
		switch g := v.(type) {
		case string:
			dst = append(dst, g)
		case bson.A:
			dst = flattenGenres(dst, g)
		case []interface{}:
			dst = flattenGenres(dst, g)
		case nil:
		default:
			dst = append(dst, fmt.Sprint(g))
		}
	}
	return dst
}

func fieldsFromMovie(m movie.Movie) movieFields {
	return movieFields{
		Title:   optionalString(m.Title),
		Plot:    optionalString(m.Plot),
		Genres:  m.Genres,
		Runtime: m.Runtime,
		Rated:   optionalString(m.Rated),
		Year:    m.Year,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// toDocument keeps each projected value with its stored type. Missing fields
// stay absent so the response matches what is in the collection.
func toDocument(raw bson.Raw) (movie.Document, error) {
	elems, err := raw.Elements()
	if err != nil {
		return movie.Document{}, err
	}

	doc := movie.Document{Fields: make(map[string]interface{}, len(movie.FieldNames))}
	for _, e := range elems {
		if e.Key() == "_id" {
			doc.ID = idString(e.Value())
			continue
		}
		v, err := plainValue(e.Value())
		if err != nil {
			return movie.Document{}, err
		}
		doc.Fields[e.Key()] = v
	}
	return doc, nil
}

func idString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return v.String()
}

// plainValue maps a BSON value onto the Go type encoding/json writes the same
// way the shell would print it. NaN and infinities have no JSON form and are
// written as null.
func plainValue(v bson.RawValue) (interface{}, error) {
	switch v.Type {
	case bson.TypeNull, bson.TypeUndefined:
		return nil, nil
	case bson.TypeString:
		return v.StringValue(), nil
	case bson.TypeBoolean:
		return v.Boolean(), nil
	case bson.TypeInt32:
		return v.Int32(), nil
	case bson.TypeInt64:
		return v.Int64(), nil
	case bson.TypeDouble:
		f := v.Double()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nil
		}
		return f, nil
	case bson.TypeDecimal128:
		return v.Decimal128().String(), nil
	case bson.TypeObjectID:
		return v.ObjectID().Hex(), nil
	case bson.TypeDateTime:
		return time.UnixMilli(v.DateTime()).UTC(), nil
	case bson.TypeArray:
		values, err := v.Array().Values()
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(values))
		for i, item := range values {
			if out[i], err = plainValue(item); err != nil {
				return nil, err
			}
		}
		return out, nil
	case bson.TypeEmbeddedDocument:
		elems, err := v.Document().Elements()
		if err != nil {
			return nil, err
		}
		out := make(map[string]interface{}, len(elems))
		for _, e := range elems {
			if out[e.Key()], err = plainValue(e.Value()); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return v.String(), nil
}
