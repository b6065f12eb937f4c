package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/HSouheill/movie_mania_backend/models"
)

func TestMovieRepository_CreateAndFind(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns id and timestamps", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewMovieRepository(mt.DB)
		movie := &models.Movie{UserID: primitive.NewObjectID(), Title: "The Matrix"}
		require.NoError(t, repo.Create(context.Background(), movie))

		assert.False(t, movie.ID.IsZero())
		assert.False(t, movie.CreatedAt.IsZero())
		assert.Equal(t, movie.CreatedAt, movie.UpdatedAt)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "moviemania.movies", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "title", Value: "The Matrix"},
			{Key: "releaseYear", Value: 1999},
		}))

		repo := NewMovieRepository(mt.DB)
		movie, err := repo.FindByID(context.Background(), id.Hex())
		require.NoError(t, err)
		assert.Equal(t, "The Matrix", movie.Title)
		assert.Equal(t, 1999, movie.ReleaseYear)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "moviemania.movies", mtest.FirstBatch))

		repo := NewMovieRepository(mt.DB)
		_, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, models.ErrMovieNotFound)
	})

	mt.Run("find bad id", func(mt *mtest.T) {
		repo := NewMovieRepository(mt.DB)
		_, err := repo.FindByID(context.Background(), "zzz")
		assert.ErrorIs(t, err, models.ErrMovieNotFound)
	})
}

func TestMovieRepository_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty collection yields empty slice", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "moviemania.movies", mtest.FirstBatch))

		repo := NewMovieRepository(mt.DB)
		movies, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, movies)
		assert.Empty(t, movies)
	})
}

func TestMovieRepository_UpdateDelete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("update matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		repo := NewMovieRepository(mt.DB)
		movie := &models.Movie{ID: primitive.NewObjectID(), Title: "Reloaded"}
		require.NoError(t, repo.Update(context.Background(), movie))
		assert.False(t, movie.UpdatedAt.IsZero())
	})

	mt.Run("update missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		repo := NewMovieRepository(mt.DB)
		err := repo.Update(context.Background(), &models.Movie{ID: primitive.NewObjectID()})
		assert.ErrorIs(t, err, models.ErrMovieNotFound)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		repo := NewMovieRepository(mt.DB)
		err := repo.Delete(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(t, err, models.ErrMovieNotFound)
	})

	mt.Run("delete by owner", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		repo := NewMovieRepository(mt.DB)
		n, err := repo.DeleteByOwner(context.Background(), primitive.NewObjectID())
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})
}
