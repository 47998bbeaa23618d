package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"teahouse/internal/model"
	"teahouse/pkg/apierror"
)

type UserService struct {
	users  UserStore
	media  *MediaService
	logger *slog.Logger
}

func NewUserService(users UserStore, media *MediaService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, media: media, logger: logger}
}

func (s *UserService) UpdateAccount(ctx context.Context, id primitive.ObjectID, req model.UpdateAccountRequest) (model.User, error) {
	req.Fullname = strings.TrimSpace(req.Fullname)
	req.Email = normalizeIdentity(req.Email)
	if req.Fullname == "" || req.Email == "" {
		return model.User{}, apierror.BadRequest("Fullname and email are required")
	}
	if err := validateStruct("Invalid account details", req); err != nil {
		return model.User{}, err
	}

	user, err := s.users.UpdateAccount(ctx, id, req.Fullname, req.Email)
	switch {
	case errors.Is(err, model.ErrDuplicateEmail), errors.Is(err, model.ErrUserAlreadyExists):
		return model.User{}, apierror.Conflict("Email is already registered")
	case errors.Is(err, model.ErrUserNotFound):
		return model.User{}, apierror.NotFound("User does not exist")
	case err != nil:
		return model.User{}, fmt.Errorf("update account: %w", err)
	}
	return user.Public(), nil
}

// UpdateImage replaces the avatar or cover image. The previous remote image is
// discarded only after the user document points at the new one.
func (s *UserService) UpdateImage(ctx context.Context, id primitive.ObjectID, field model.ImageField, localPath, contentType string) (model.User, error) {
	defer removeStaged(s.logger, localPath)

	label := imageLabel(field)
	if localPath == "" {
		return model.User{}, apierror.BadRequest(label + " is required")
	}

	current, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("User does not exist")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}

	ref, err := s.media.Upload(ctx, localPath, contentType)
	if err != nil {
		s.logger.Error("image upload failed", "field", field, "user_id", id.Hex(), "error", err)
		return model.User{}, apierror.Internal("Failure uploading " + strings.ToLower(label))
	}

	updated, err := s.users.UpdateImage(ctx, id, field, ref)
	if err != nil {
		s.media.Discard(ctx, ref, "user update failed")
		return model.User{}, fmt.Errorf("update %s: %w", field, err)
	}

	previous := current.Avatar
	if field == model.CoverImageField {
		previous = current.CoverImage
	}
	if previous.PublicID != ref.PublicID {
		s.media.Discard(ctx, previous, "replaced")
	}

	return updated.Public(), nil
}

func (s *UserService) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, error) {
	username = normalizeIdentity(username)
	if username == "" {
		return model.ChannelProfile{}, apierror.BadRequest("Username is required")
	}

	profile, err := s.users.ChannelProfile(ctx, username, viewer)
	if errors.Is(err, model.ErrChannelNotFound) {
		return model.ChannelProfile{}, apierror.NotFound("Channel not found")
	}
	if err != nil {
		return model.ChannelProfile{}, fmt.Errorf("channel profile: %w", err)
	}
	return profile, nil
}

func (s *UserService) WatchHistory(ctx context.Context, id primitive.ObjectID) ([]model.WatchHistoryEntry, error) {
	history, err := s.users.WatchHistory(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, apierror.NotFound("User does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("watch history: %w", err)
	}
	if history == nil {
		history = []model.WatchHistoryEntry{}
	}
	return history, nil
}

func (s *UserService) AddToWatchHistory(ctx context.Context, id primitive.ObjectID, videoID string) error {
	vid, err := primitive.ObjectIDFromHex(strings.TrimSpace(videoID))
	if err != nil {
		return apierror.BadRequest("Invalid video id")
	}

	err = s.users.AddToWatchHistory(ctx, id, vid)
	switch {
	case errors.Is(err, model.ErrVideoNotFound):
		return apierror.NotFound("Video not found")
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("User does not exist")
	case err != nil:
		return fmt.Errorf("add to watch history: %w", err)
	}
	return nil
}

// Subscribe and Unsubscribe are idempotent and return the refreshed profile.
func (s *UserService) Subscribe(ctx context.Context, subscriber primitive.ObjectID, username string) (model.ChannelProfile, error) {
	channel, err := s.resolveChannel(ctx, subscriber, username)
	if err != nil {
		return model.ChannelProfile{}, err
	}
	if err := s.users.Subscribe(ctx, subscriber, channel.ID); err != nil {
		return model.ChannelProfile{}, fmt.Errorf("subscribe: %w", err)
	}
	return s.ChannelProfile(ctx, channel.Username, subscriber)
}

func (s *UserService) Unsubscribe(ctx context.Context, subscriber primitive.ObjectID, username string) (model.ChannelProfile, error) {
	channel, err := s.resolveChannel(ctx, subscriber, username)
	if err != nil {
		return model.ChannelProfile{}, err
	}
	if err := s.users.Unsubscribe(ctx, subscriber, channel.ID); err != nil {
		return model.ChannelProfile{}, fmt.Errorf("unsubscribe: %w", err)
	}
	return s.ChannelProfile(ctx, channel.Username, subscriber)
}

func (s *UserService) resolveChannel(ctx context.Context, subscriber primitive.ObjectID, username string) (model.User, error) {
	username = normalizeIdentity(username)
	if username == "" {
		return model.User{}, apierror.BadRequest("Username is required")
	}

	channel, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("Channel not found")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find channel: %w", err)
	}

	if channel.ID == subscriber {
		return model.User{}, apierror.BadRequest("You cannot subscribe to your own channel")
	}
	return channel, nil
}

func imageLabel(field model.ImageField) string {
	if field == model.CoverImageField {
		return "Cover image"
	}
	return "Avatar image"
}
