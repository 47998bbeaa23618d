package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"teahouse/internal/model"
)

func seedUser(t *testing.T, repo *MemoryUserRepository, username string) model.User {
	t.Helper()

	u := model.User{
		Username: username,
		Email:    username + "@example.com",
		Fullname: "Test " + username,
		Avatar:   model.MediaRef{URL: "http://media/" + username, PublicID: username},
		Password: "hash",
	}
	require.NoError(t, repo.Create(context.Background(), &u))
	return u
}

func TestMemoryUserRepositoryCreateRejectsDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryUserRepository()
	first := seedUser(t, repo, "mira")
	require.False(t, first.ID.IsZero())
	require.NotNil(t, first.WatchHistory)

	err := repo.Create(ctx, &model.User{Username: "mira", Email: "other@example.com"})
	require.ErrorIs(t, err, model.ErrDuplicateUsername)

	err = repo.Create(ctx, &model.User{Username: "other", Email: "mira@example.com"})
	require.ErrorIs(t, err, model.ErrDuplicateEmail)

	exists, err := repo.ExistsByUsernameOrEmail(ctx, "", "mira@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsernameOrEmail(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryUserRepositoryRefreshToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryUserRepository()
	u := seedUser(t, repo, "mira")

	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, "tok"))
	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.RefreshToken)

	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, ""))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RefreshToken)

	err = repo.SetRefreshToken(ctx, primitive.NewObjectID(), "tok")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestMemoryUserRepositoryUpdateAccountEmailTaken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryUserRepository()
	mira := seedUser(t, repo, "mira")
	seedUser(t, repo, "omar")

	_, err := repo.UpdateAccount(ctx, mira.ID, "Mira", "omar@example.com")
	require.ErrorIs(t, err, model.ErrDuplicateEmail)

	updated, err := repo.UpdateAccount(ctx, mira.ID, "Mira K", "mira.k@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Mira K", updated.Fullname)
	assert.Equal(t, "mira.k@example.com", updated.Email)
}

func TestMemoryUserRepositoryChannelProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryUserRepository()
	channel := seedUser(t, repo, "chaiwala")
	viewer := seedUser(t, repo, "mira")
	other := seedUser(t, repo, "omar")

	require.NoError(t, repo.Subscribe(ctx, viewer.ID, channel.ID))
	require.NoError(t, repo.Subscribe(ctx, viewer.ID, channel.ID))
	require.NoError(t, repo.Subscribe(ctx, other.ID, channel.ID))
	require.NoError(t, repo.Subscribe(ctx, channel.ID, other.ID))

	profile, err := repo.ChannelProfile(ctx, "chaiwala", viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.SubscribersCount)
	assert.Equal(t, 1, profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	require.NoError(t, repo.Unsubscribe(ctx, viewer.ID, channel.ID))
	profile, err = repo.ChannelProfile(ctx, "chaiwala", viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.SubscribersCount)
	assert.False(t, profile.IsSubscribed)

	_, err = repo.ChannelProfile(ctx, "nobody", viewer.ID)
	require.ErrorIs(t, err, model.ErrChannelNotFound)
}

func TestMemoryUserRepositoryWatchHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryUserRepository()
	owner := seedUser(t, repo, "chaiwala")
	viewer := seedUser(t, repo, "mira")

	history, err := repo.WatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.NotNil(t, history)
	require.Empty(t, history)

	video := repo.AddVideo(model.Video{Title: "Brewing oolong", Owner: owner.ID})
	require.NoError(t, repo.AddToWatchHistory(ctx, viewer.ID, video.ID))
	require.NoError(t, repo.AddToWatchHistory(ctx, viewer.ID, video.ID))

	err = repo.AddToWatchHistory(ctx, viewer.ID, primitive.NewObjectID())
	require.ErrorIs(t, err, model.ErrVideoNotFound)

	history, err = repo.WatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Brewing oolong", history[0].Title)
	require.NotNil(t, history[0].Owner)
	assert.Equal(t, "chaiwala", history[0].Owner.Username)
}
