package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/movie_mania_backend/models"
)

type MovieRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMovieRepository(db *mongo.Database) *MovieRepository {
	return &MovieRepository{
		collection: db.Collection("movies"),
		now:        time.Now,
	}
}

func (r *MovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	now := r.now()
	movie.CreatedAt = now
	movie.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, movie)
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		movie.ID = oid
	}
	return nil
}

func (r *MovieRepository) FindByID(ctx context.Context, id string) (*models.Movie, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrMovieNotFound
	}

	var movie models.Movie
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&movie); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to find movie: %w", err)
	}
	return &movie, nil
}

func (r *MovieRepository) List(ctx context.Context) ([]models.Movie, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movies: %w", err)
	}
	defer cursor.Close(ctx)

	movies := []models.Movie{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}
	return movies, nil
}

// Update replaces the stored document with movie
func (r *MovieRepository) Update(ctx context.Context, movie *models.Movie) error {
	movie.UpdatedAt = r.now()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": movie.ID}, movie)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrMovieNotFound
	}
	return nil
}

func (r *MovieRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrMovieNotFound
	}
	return nil
}

// DeleteByOwner removes every movie owned by userID and returns how many were removed
func (r *MovieRepository) DeleteByOwner(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete movies: %w", err)
	}
	return res.DeletedCount, nil
}
