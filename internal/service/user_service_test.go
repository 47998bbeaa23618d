package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"teahouse/internal/model"
	"teahouse/internal/repository"
	"teahouse/internal/storage"
)

type userFixture struct {
	auth  *authFixture
	svc   *UserService
	users *repository.MemoryUserRepository
	host  *storage.MockMediaHost
}

func newUserFixture(t *testing.T, users *repository.MemoryUserRepository, store UserStore) *userFixture {
	t.Helper()

	af := newAuthFixtureWithStore(t, users, store)
	if store == nil {
		store = af.users
	}
	media := NewMediaService(af.host, nil, 0, quietLogger())
	return &userFixture{
		auth:  af,
		svc:   NewUserService(store, media, quietLogger()),
		users: af.users,
		host:  af.host,
	}
}

// failingImageStore accepts uploads but refuses to persist them.
type failingImageStore struct {
	*repository.MemoryUserRepository
}

func (failingImageStore) UpdateImage(context.Context, primitive.ObjectID, model.ImageField, model.MediaRef) (model.User, error) {
	return model.User{}, errors.New("write conflict")
}

func TestUpdateAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUserFixture(t, nil, nil)
	mira := f.auth.register(t, "mira")
	f.auth.register(t, "omar")

	_, err := f.svc.UpdateAccount(ctx, mira.ID, model.UpdateAccountRequest{Fullname: "Mira"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.UpdateAccount(ctx, mira.ID, model.UpdateAccountRequest{Fullname: "Mira", Email: "not-an-email"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.UpdateAccount(ctx, mira.ID, model.UpdateAccountRequest{Fullname: "Mira", Email: "omar@example.com"})
	requireStatus(t, err, http.StatusConflict)

	updated, err := f.svc.UpdateAccount(ctx, mira.ID, model.UpdateAccountRequest{Fullname: " Mira K ", Email: "MIRA.K@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Mira K", updated.Fullname)
	assert.Equal(t, "mira.k@example.com", updated.Email)
	assert.Empty(t, updated.Password)
}

func TestUpdateImageDiscardsPrevious(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUserFixture(t, nil, nil)
	mira := f.auth.register(t, "mira")

	_, err := f.svc.UpdateImage(ctx, mira.ID, model.AvatarField, "", "")
	apiErr := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "Avatar image is required", apiErr.Message)

	staged := stageFile(t, "new.png")
	f.host.On("Upload", mock.Anything, staged, "image/png").
		Return(model.MediaRef{URL: "http://media/new.png", PublicID: "new.png"}, nil).Once()
	f.host.On("Delete", mock.Anything, "mira.png").Return(nil).Once()

	updated, err := f.svc.UpdateImage(ctx, mira.ID, model.AvatarField, staged, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "new.png", updated.Avatar.PublicID)
	assert.NoFileExists(t, staged)

	cover := stageFile(t, "cover.png")
	f.host.On("Upload", mock.Anything, cover, "image/png").
		Return(model.MediaRef{URL: "http://media/cover.png", PublicID: "cover.png"}, nil).Once()

	updated, err = f.svc.UpdateImage(ctx, mira.ID, model.CoverImageField, cover, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "cover.png", updated.CoverImage.PublicID)
	assert.Equal(t, "new.png", updated.Avatar.PublicID)

	f.host.AssertExpectations(t)
}

func TestUpdateImageFailedWriteDiscardsUpload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := repository.NewMemoryUserRepository()
	f := newUserFixture(t, users, failingImageStore{users})
	mira := f.auth.register(t, "mira")

	staged := stageFile(t, "new.png")
	f.host.On("Upload", mock.Anything, staged, "image/png").
		Return(model.MediaRef{URL: "http://media/new.png", PublicID: "new.png"}, nil).Once()
	f.host.On("Delete", mock.Anything, "new.png").Return(nil).Once()

	_, err := f.svc.UpdateImage(ctx, mira.ID, model.AvatarField, staged, "image/png")
	require.Error(t, err)
	assert.NoFileExists(t, staged)

	f.host.AssertExpectations(t)
	f.host.AssertNotCalled(t, "Delete", mock.Anything, "mira.png")
}

func TestChannelProfileAndSubscriptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUserFixture(t, nil, nil)
	channel := f.auth.register(t, "chaiwala")
	viewer := f.auth.register(t, "mira")

	_, err := f.svc.ChannelProfile(ctx, " ", viewer.ID)
	requireStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.ChannelProfile(ctx, "nobody", viewer.ID)
	apiErr := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "Channel not found", apiErr.Message)

	_, err = f.svc.Subscribe(ctx, viewer.ID, "mira")
	requireStatus(t, err, http.StatusBadRequest)

	profile, err := f.svc.Subscribe(ctx, viewer.ID, "ChaiWala")
	require.NoError(t, err)
	assert.Equal(t, channel.ID, profile.ID)
	assert.Equal(t, 1, profile.SubscribersCount)
	assert.True(t, profile.IsSubscribed)

	profile, err = f.svc.Subscribe(ctx, viewer.ID, "chaiwala")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.SubscribersCount)

	own, err := f.svc.ChannelProfile(ctx, "mira", channel.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, own.ChannelsSubscribedToCount)
	assert.False(t, own.IsSubscribed)

	profile, err = f.svc.Unsubscribe(ctx, viewer.ID, "chaiwala")
	require.NoError(t, err)
	assert.Equal(t, 0, profile.SubscribersCount)
	assert.False(t, profile.IsSubscribed)
}

func TestWatchHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUserFixture(t, nil, nil)
	owner := f.auth.register(t, "chaiwala")
	viewer := f.auth.register(t, "mira")

	history, err := f.svc.WatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.WatchHistoryEntry{}, history)

	err = f.svc.AddToWatchHistory(ctx, viewer.ID, "not-hex")
	requireStatus(t, err, http.StatusBadRequest)

	err = f.svc.AddToWatchHistory(ctx, viewer.ID, primitive.NewObjectID().Hex())
	requireStatus(t, err, http.StatusNotFound)

	video := f.users.AddVideo(model.Video{Title: "Steeping times", Owner: owner.ID, IsPublished: true})
	require.NoError(t, f.svc.AddToWatchHistory(ctx, viewer.ID, video.ID.Hex()))

	history, err = f.svc.WatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, video.ID, history[0].ID)
	require.NotNil(t, history[0].Owner)
	assert.Equal(t, owner.ID, history[0].Owner.ID)
}
