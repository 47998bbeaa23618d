package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"teahouse/internal/model"
)

// TeaStore is satisfied by the memory and Postgres tea repositories.
type TeaStore interface {
	Create(ctx context.Context, input model.TeaInput) (model.Tea, error)
	List(ctx context.Context) ([]model.Tea, error)
	FindByID(ctx context.Context, id int) (model.Tea, error)
	Update(ctx context.Context, id int, input model.TeaInput) (model.Tea, error)
	Delete(ctx context.Context, id int) (model.Tea, error)
}

// UserStore is satisfied by the Mongo and memory user repositories.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, u *model.User) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateAccount(ctx context.Context, id primitive.ObjectID, fullname, email string) (model.User, error)
	UpdateImage(ctx context.Context, id primitive.ObjectID, field model.ImageField, ref model.MediaRef) (model.User, error)
	ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, error)
	WatchHistory(ctx context.Context, id primitive.ObjectID) ([]model.WatchHistoryEntry, error)
	AddToWatchHistory(ctx context.Context, id, videoID primitive.ObjectID) error
	Subscribe(ctx context.Context, subscriber, channel primitive.ObjectID) error
	Unsubscribe(ctx context.Context, subscriber, channel primitive.ObjectID) error
}
