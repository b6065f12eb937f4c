package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/HSouheill/movie_mania_backend/models"
	"github.com/HSouheill/movie_mania_backend/security"
)

func userDoc(id primitive.ObjectID, email, hash string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "username", Value: "neo"},
		{Key: "email", Value: email},
		{Key: "password", Value: hash},
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "moviemania.users", mtest.FirstBatch,
			userDoc(id, "neo@matrix.io", "hash")))

		repo := NewUserRepository(mt.DB)
		user, err := repo.FindByEmail(context.Background(), "  NEO@matrix.io ")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "neo@matrix.io", user.Email)
		assert.Equal(t, "hash", user.Password)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "moviemania.users", mtest.FirstBatch))

		repo := NewUserRepository(mt.DB)
		_, err := repo.FindByEmail(context.Background(), "ghost@x.io")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestUserRepository_FindByIDRejectsBadHex(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("bad id", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		_, err := repo.FindByID(context.Background(), "not-an-id")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestUserRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stores bcrypt hash", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "moviemania.users", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		repo := NewUserRepository(mt.DB)
		user, err := repo.Create(context.Background(), "neo", "Neo@Matrix.io", "", "redpill")
		require.NoError(t, err)

		assert.False(t, user.ID.IsZero())
		assert.Equal(t, "neo@matrix.io", user.Email)
		assert.NotEqual(t, "redpill", user.Password)
		assert.NoError(t, security.CheckPassword("redpill", user.Password))
		assert.False(t, user.CreatedAt.IsZero())
	})

	mt.Run("pre-check finds existing email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "moviemania.users", mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "neo@matrix.io", "hash")))

		repo := NewUserRepository(mt.DB)
		_, err := repo.Create(context.Background(), "neo", "neo@matrix.io", "", "redpill")
		assert.ErrorIs(t, err, models.ErrDuplicateEmail)
	})

	mt.Run("unique index violation", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "moviemania.users", mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error collection: moviemania.users index: email_1",
			}),
		)

		repo := NewUserRepository(mt.DB)
		_, err := repo.Create(context.Background(), "neo", "neo@matrix.io", "", "redpill")
		assert.ErrorIs(t, err, models.ErrDuplicateEmail)
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("rehashes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		repo := NewUserRepository(mt.DB)
		user := &models.User{ID: primitive.NewObjectID(), Password: "old"}
		require.NoError(t, repo.UpdatePassword(context.Background(), user, "bluepill"))

		assert.NotEqual(t, "bluepill", user.Password)
		assert.NoError(t, security.CheckPassword("bluepill", user.Password))
		assert.WithinDuration(t, time.Now(), user.UpdatedAt, time.Minute)
	})

	mt.Run("user vanished", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		repo := NewUserRepository(mt.DB)
		err := repo.UpdatePassword(context.Background(), &models.User{ID: primitive.NewObjectID()}, "bluepill")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns updated document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key: "value", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "username", Value: "trinity"},
				{Key: "email", Value: "neo@matrix.io"},
			},
		}))

		repo := NewUserRepository(mt.DB)
		user, err := repo.UpdateProfile(context.Background(), id.Hex(), models.ProfileUpdate{Username: "trinity"})
		require.NoError(t, err)
		assert.Equal(t, "trinity", user.Username)
	})

	mt.Run("email taken", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: "E11000 duplicate key error",
		}))

		repo := NewUserRepository(mt.DB)
		_, err := repo.UpdateProfile(context.Background(), primitive.NewObjectID().Hex(),
			models.ProfileUpdate{Email: "taken@matrix.io"})
		assert.ErrorIs(t, err, models.ErrDuplicateEmail)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewUserRepository(mt.DB)
		assert.NoError(t, repo.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("nothing to delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		repo := NewUserRepository(mt.DB)
		err := repo.Delete(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestUserRepository_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("all users", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "moviemania.users", mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "a@x.io", ""),
			userDoc(primitive.NewObjectID(), "b@x.io", ""),
		))

		repo := NewUserRepository(mt.DB)
		users, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "a@x.io", users[0].Email)
	})
}
