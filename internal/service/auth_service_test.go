package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"teahouse/internal/model"
	"teahouse/internal/repository"
	"teahouse/internal/storage"
)

type authFixture struct {
	svc    *AuthService
	users  *repository.MemoryUserRepository
	host   *storage.MockMediaHost
	tokens *TokenIssuer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	return newAuthFixtureWithStore(t, nil, nil)
}

// newAuthFixtureWithStore lets a test wrap users in a store that misbehaves.
func newAuthFixtureWithStore(t *testing.T, users *repository.MemoryUserRepository, store UserStore) *authFixture {
	t.Helper()

	if users == nil {
		users = repository.NewMemoryUserRepository()
	}
	if store == nil {
		store = users
	}
	host := new(storage.MockMediaHost)
	media := NewMediaService(host, nil, 0, quietLogger())
	tokens := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	return &authFixture{
		svc:    NewAuthService(store, media, tokens, nil, bcrypt.MinCost, quietLogger()),
		users:  users,
		host:   host,
		tokens: tokens,
	}
}

func (f *authFixture) register(t *testing.T, username string) model.User {
	t.Helper()

	avatar := stageFile(t, username+".png")
	f.host.On("Upload", mock.Anything, avatar, "image/png").
		Return(model.MediaRef{URL: "http://media/" + username + ".png", PublicID: username + ".png"}, nil).Once()

	user, err := f.svc.Register(context.Background(), model.RegisterInput{
		Fullname:   "Test " + username,
		Email:      username + "@example.com",
		Username:   username,
		Password:   "s3cret",
		AvatarPath: avatar,
		AvatarType: "image/png",
	})
	require.NoError(t, err)
	return user
}

// existenceBlindStore skips the pre-insert existence check so Create is the
// first place a duplicate is noticed.
type existenceBlindStore struct {
	*repository.MemoryUserRepository
}

func (existenceBlindStore) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestRegisterSuccess(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	avatar := stageFile(t, "avatar.png")
	cover := stageFile(t, "cover.png")
	f.host.On("Upload", mock.Anything, avatar, "image/png").
		Return(model.MediaRef{URL: "http://media/a.png", PublicID: "a.png"}, nil).Once()
	f.host.On("Upload", mock.Anything, cover, "image/png").
		Return(model.MediaRef{URL: "http://media/c.png", PublicID: "c.png"}, nil).Once()

	user, err := f.svc.Register(context.Background(), model.RegisterInput{
		Fullname:       "Mira K",
		Email:          " Mira@Example.com ",
		Username:       "MiraK",
		Password:       "s3cret",
		AvatarPath:     avatar,
		AvatarType:     "image/png",
		CoverImagePath: cover,
		CoverImageType: "image/png",
	})
	require.NoError(t, err)

	assert.Equal(t, "mirak", user.Username)
	assert.Equal(t, "mira@example.com", user.Email)
	assert.Equal(t, "a.png", user.Avatar.PublicID)
	assert.Equal(t, "c.png", user.CoverImage.PublicID)
	assert.Empty(t, user.Password)
	assert.Empty(t, user.RefreshToken)
	assert.NoFileExists(t, avatar)
	assert.NoFileExists(t, cover)

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret")))

	f.host.AssertExpectations(t)
}

func TestRegisterRejectsBeforeUploading(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	f.register(t, "mira")

	cases := []struct {
		name    string
		in      model.RegisterInput
		status  int
		message string
	}{
		{
			name:    "blank field",
			in:      model.RegisterInput{Fullname: " ", Email: "x@example.com", Username: "x", Password: "p"},
			status:  http.StatusBadRequest,
			message: "All fields are required",
		},
		{
			name:    "malformed email",
			in:      model.RegisterInput{Fullname: "X", Email: "not-an-email", Username: "x", Password: "p"},
			status:  http.StatusBadRequest,
			message: "Invalid registration details",
		},
		{
			name:    "password over 72 bytes",
			in:      model.RegisterInput{Fullname: "X", Email: "x@example.com", Username: "x", Password: strings.Repeat("p", 73)},
			status:  http.StatusBadRequest,
			message: "Password must be at most 72 bytes",
		},
		{
			name:    "existing username",
			in:      model.RegisterInput{Fullname: "X", Email: "x@example.com", Username: "MIRA", Password: "p"},
			status:  http.StatusConflict,
			message: "User already exists",
		},
		{
			name:    "existing email",
			in:      model.RegisterInput{Fullname: "X", Email: "mira@example.com", Username: "x", Password: "p"},
			status:  http.StatusConflict,
			message: "User already exists",
		},
		{
			name:    "missing avatar",
			in:      model.RegisterInput{Fullname: "X", Email: "x@example.com", Username: "x", Password: "p"},
			status:  http.StatusBadRequest,
			message: "Avatar file is missing",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			staged := ""
			if tc.in.AvatarPath == "" && tc.message != "Avatar file is missing" {
				staged = stageFile(t, "staged.png")
				tc.in.AvatarPath = staged
			}

			_, err := f.svc.Register(context.Background(), tc.in)
			apiErr := requireStatus(t, err, tc.status)
			assert.Equal(t, tc.message, apiErr.Message)
			if staged != "" {
				assert.NoFileExists(t, staged)
			}
		})
	}

	f.host.AssertExpectations(t)
}

func TestRegisterCoverFailureDiscardsAvatar(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	avatar := stageFile(t, "avatar.png")
	cover := stageFile(t, "cover.png")
	f.host.On("Upload", mock.Anything, avatar, "image/png").
		Return(model.MediaRef{URL: "http://media/a.png", PublicID: "a.png"}, nil).Once()
	f.host.On("Upload", mock.Anything, cover, "image/png").
		Return(model.MediaRef{}, errors.New("host down")).Once()
	f.host.On("Delete", mock.Anything, "a.png").Return(nil).Once()

	_, err := f.svc.Register(context.Background(), model.RegisterInput{
		Fullname: "Mira", Email: "mira@example.com", Username: "mira", Password: "p",
		AvatarPath: avatar, AvatarType: "image/png",
		CoverImagePath: cover, CoverImageType: "image/png",
	})
	requireStatus(t, err, http.StatusInternalServerError)
	assert.NoFileExists(t, avatar)
	assert.NoFileExists(t, cover)

	exists, err := f.users.ExistsByUsernameOrEmail(context.Background(), "mira", "")
	require.NoError(t, err)
	assert.False(t, exists)

	f.host.AssertExpectations(t)
}

func TestRegisterAvatarFailure(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	avatar := stageFile(t, "avatar.png")
	f.host.On("Upload", mock.Anything, avatar, "image/png").
		Return(model.MediaRef{}, errors.New("host down")).Once()

	_, err := f.svc.Register(context.Background(), model.RegisterInput{
		Fullname: "Mira", Email: "mira@example.com", Username: "mira", Password: "p",
		AvatarPath: avatar, AvatarType: "image/png",
	})
	requireStatus(t, err, http.StatusInternalServerError)
	assert.NoFileExists(t, avatar)
	f.host.AssertExpectations(t)
}

func TestRegisterDuplicateOnInsertDiscardsImages(t *testing.T) {
	t.Parallel()

	users := repository.NewMemoryUserRepository()
	f := newAuthFixtureWithStore(t, users, existenceBlindStore{users})
	f.register(t, "mira")

	avatar := stageFile(t, "again.png")
	f.host.On("Upload", mock.Anything, avatar, "image/png").
		Return(model.MediaRef{URL: "http://media/again.png", PublicID: "again.png"}, nil).Once()
	f.host.On("Delete", mock.Anything, "again.png").Return(nil).Once()

	_, err := f.svc.Register(context.Background(), model.RegisterInput{
		Fullname: "Other", Email: "other@example.com", Username: "mira", Password: "p",
		AvatarPath: avatar, AvatarType: "image/png",
	})
	apiErr := requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, "Username is already taken", apiErr.Message)

	f.host.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAuthFixture(t)
	registered := f.register(t, "mira")

	_, err := f.svc.Login(ctx, model.LoginRequest{Password: "s3cret"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Login(ctx, model.LoginRequest{Username: "ghost", Password: "s3cret"})
	apiErr := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "User does not exist", apiErr.Message)

	_, err = f.svc.Login(ctx, model.LoginRequest{Username: "mira", Password: "wrong"})
	apiErr = requireStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, "Invalid user credentials", apiErr.Message)

	stored, err := f.users.FindByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)

	result, err := f.svc.Login(ctx, model.LoginRequest{Email: "MIRA@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, result.User.ID)
	assert.Empty(t, result.User.Password)
	assert.NotEmpty(t, result.AccessToken)

	stored, err = f.users.FindByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, result.RefreshToken, stored.RefreshToken)
}

func TestRefreshRotatesOnlyOnSuccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAuthFixture(t)
	registered := f.register(t, "mira")

	login, err := f.svc.Login(ctx, model.LoginRequest{Username: "mira", Password: "s3cret"})
	require.NoError(t, err)

	storedToken := func() string {
		u, err := f.users.FindByID(ctx, registered.ID)
		require.NoError(t, err)
		return u.RefreshToken
	}

	_, err = f.svc.Refresh(ctx, "")
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = f.svc.Refresh(ctx, login.RefreshToken+"tampered")
	requireStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, login.RefreshToken, storedToken())

	_, err = f.svc.Refresh(ctx, login.AccessToken)
	requireStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, login.RefreshToken, storedToken())

	pair, err := f.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)
	assert.Equal(t, pair.RefreshToken, storedToken())

	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	requireStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, pair.RefreshToken, storedToken())
}

func TestRefreshRejectsExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAuthFixture(t)
	registered := f.register(t, "mira")

	f.tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	login, err := f.svc.Login(ctx, model.LoginRequest{Username: "mira", Password: "s3cret"})
	require.NoError(t, err)
	f.tokens.now = time.Now

	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	requireStatus(t, err, http.StatusUnauthorized)

	stored, err := f.users.FindByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, login.RefreshToken, stored.RefreshToken)
}

func TestLogoutEndsSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAuthFixture(t)
	f.register(t, "mira")

	login, err := f.svc.Login(ctx, model.LoginRequest{Username: "mira", Password: "s3cret"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, login.User))

	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAuthFixture(t)
	registered := f.register(t, "mira")

	login, err := f.svc.Login(ctx, model.LoginRequest{Username: "mira", Password: "s3cret"})
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, registered.ID, model.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "next"})
	apiErr := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "Invalid old password", apiErr.Message)

	err = f.svc.ChangePassword(ctx, registered.ID, model.ChangePasswordRequest{OldPassword: "s3cret", NewPassword: " "})
	requireStatus(t, err, http.StatusBadRequest)

	err = f.svc.ChangePassword(ctx, registered.ID, model.ChangePasswordRequest{OldPassword: "s3cret", NewPassword: strings.Repeat("é", 37)})
	apiErr = requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "Password must be at most 72 bytes", apiErr.Message)

	require.NoError(t, f.svc.ChangePassword(ctx, registered.ID, model.ChangePasswordRequest{OldPassword: "s3cret", NewPassword: "next"}))

	_, err = f.svc.Login(ctx, model.LoginRequest{Username: "mira", Password: "s3cret"})
	requireStatus(t, err, http.StatusUnauthorized)

	stored, err := f.users.FindByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, login.RefreshToken, stored.RefreshToken)

	_, err = f.svc.Login(ctx, model.LoginRequest{Username: "mira", Password: "next"})
	require.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAuthFixture(t)
	registered := f.register(t, "mira")

	login, err := f.svc.Login(ctx, model.LoginRequest{Username: "mira", Password: "s3cret"})
	require.NoError(t, err)

	user, err := f.svc.Authenticate(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.Password)
	assert.Empty(t, user.RefreshToken)

	_, err = f.svc.Authenticate(ctx, login.RefreshToken)
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = f.svc.Authenticate(ctx, "garbage")
	requireStatus(t, err, http.StatusUnauthorized)
}
