package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"teahouse/internal/event"
	"teahouse/internal/model"
	"teahouse/pkg/apierror"
)

const tokenFailureMessage = "Something went wrong while generating the access token"

type AuthService struct {
	users      UserStore
	media      *MediaService
	tokens     *TokenIssuer
	bus        event.Bus
	bcryptCost int
	logger     *slog.Logger
}

func NewAuthService(users UserStore, media *MediaService, tokens *TokenIssuer, bus event.Bus, bcryptCost int, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:      users,
		media:      media,
		tokens:     tokens,
		bus:        bus,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a user from a validated form and its staged images. Any
// failure after an upload discards what was already pushed to the host.
func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (model.User, error) {
	defer removeStaged(s.logger, in.AvatarPath, in.CoverImagePath)

	fullname := strings.TrimSpace(in.Fullname)
	email := normalizeIdentity(in.Email)
	username := normalizeIdentity(in.Username)
	password := strings.TrimSpace(in.Password)
	if fullname == "" || email == "" || username == "" || password == "" {
		return model.User{}, apierror.BadRequest("All fields are required")
	}
	if err := validateStruct("Invalid registration details", registerFields{
		Fullname: fullname,
		Email:    email,
		Username: username,
	}); err != nil {
		return model.User{}, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return model.User{}, err
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return model.User{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return model.User{}, apierror.Conflict("User already exists")
	}

	if in.AvatarPath == "" {
		return model.User{}, apierror.BadRequest("Avatar file is missing")
	}

	avatar, err := s.media.Upload(ctx, in.AvatarPath, in.AvatarType)
	if err != nil {
		s.logger.Error("avatar upload failed", "username", username, "error", err)
		return model.User{}, apierror.Internal("Failure uploading avatar")
	}

	var cover model.MediaRef
	if in.CoverImagePath != "" {
		cover, err = s.media.Upload(ctx, in.CoverImagePath, in.CoverImageType)
		if err != nil {
			s.logger.Error("cover image upload failed", "username", username, "error", err)
			s.media.Discard(ctx, avatar, "cover image upload failed")
			return model.User{}, apierror.Internal("Failure uploading cover image")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		s.discardAll(ctx, "password hashing failed", avatar, cover)
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		Username:   username,
		Email:      email,
		Fullname:   fullname,
		Avatar:     avatar,
		CoverImage: cover,
		Password:   string(hash),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		s.discardAll(ctx, "user insert failed", avatar, cover)
		switch {
		case errors.Is(err, model.ErrDuplicateUsername):
			return model.User{}, apierror.Conflict("Username is already taken")
		case errors.Is(err, model.ErrDuplicateEmail):
			return model.User{}, apierror.Conflict("Email is already registered")
		case errors.Is(err, model.ErrUserAlreadyExists):
			return model.User{}, apierror.Conflict("User already exists")
		}
		s.logger.Error("user insert failed", "username", username, "error", err)
		return model.User{}, apierror.Internal("Something went wrong while registering the user and images were deleted")
	}

	s.publish(event.TypeUserRegistered, user)
	return user.Public(), nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResult, error) {
	username := normalizeIdentity(req.Username)
	email := normalizeIdentity(req.Email)
	if username == "" && email == "" {
		return model.LoginResult{}, apierror.BadRequest("Username or email is required")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.LoginResult{}, apierror.NotFound("User does not exist")
	}
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return model.LoginResult{}, apierror.Unauthorized("Invalid user credentials")
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return model.LoginResult{}, err
	}

	s.publish(event.TypeUserLoggedIn, user)
	return model.LoginResult{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout drops the stored refresh token, ending the only active session.
func (s *AuthService) Logout(ctx context.Context, user model.User) error {
	if err := s.users.SetRefreshToken(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	s.publish(event.TypeUserLoggedOut, user)
	return nil
}

// Refresh exchanges the stored refresh token for a new pair. Every rejection
// is a 401 and leaves the stored token as it was.
func (s *AuthService) Refresh(ctx context.Context, token string) (model.TokenPair, error) {
	if strings.TrimSpace(token) == "" {
		return model.TokenPair{}, apierror.Unauthorized("Refresh token is required")
	}

	claims, err := s.tokens.ValidateRefresh(token)
	if err != nil {
		return model.TokenPair{}, apierror.Unauthorized("Invalid refresh token")
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return model.TokenPair{}, apierror.Unauthorized("Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, apierror.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	if user.RefreshToken == "" || user.RefreshToken != token {
		return model.TokenPair{}, apierror.Unauthorized("Refresh token is expired or used")
	}

	return s.issueAndStore(ctx, user)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID primitive.ObjectID, req model.ChangePasswordRequest) error {
	if req.OldPassword == "" || strings.TrimSpace(req.NewPassword) == "" {
		return apierror.BadRequest("Old and new passwords are required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.NotFound("User does not exist")
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return apierror.BadRequest("Invalid old password")
	}
	if err := checkPasswordLength(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// Authenticate resolves an access token to the public view of its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.User, error) {
	claims, err := s.tokens.ValidateAccess(token)
	if err != nil {
		return model.User{}, apierror.Unauthorized("Invalid access token")
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return model.User{}, apierror.Unauthorized("Invalid access token")
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.Unauthorized("Invalid access token")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}

	return user.Public(), nil
}

func (s *AuthService) issueAndStore(ctx context.Context, user model.User) (model.TokenPair, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("token signing failed", "user_id", user.ID.Hex(), "error", err)
		return model.TokenPair{}, apierror.Internal(tokenFailureMessage)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		s.logger.Error("refresh token not persisted", "user_id", user.ID.Hex(), "error", err)
		return model.TokenPair{}, apierror.Internal(tokenFailureMessage)
	}

	return pair, nil
}

func (s *AuthService) discardAll(ctx context.Context, reason string, refs ...model.MediaRef) {
	for _, ref := range refs {
		s.media.Discard(ctx, ref, reason)
	}
}

func (s *AuthService) publish(t event.Type, user model.User) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(t, user.ID.Hex(), event.UserPayload{
		UserID:   user.ID.Hex(),
		Username: user.Username,
	}))
}

func normalizeIdentity(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// bcrypt only looks at the first 72 bytes and refuses anything longer.
const maxPasswordBytes = 72

type registerFields struct {
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
}

func checkPasswordLength(password string) error {
	if len(password) > maxPasswordBytes {
		return apierror.BadRequest("Password must be at most 72 bytes")
	}
	return nil
}
