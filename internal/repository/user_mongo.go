package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teahouse/internal/database"
	"teahouse/internal/model"
)

type MongoUserRepository struct {
	users         *mongo.Collection
	subscriptions *mongo.Collection
	videos        *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		users:         db.Collection(database.UsersCollection),
		subscriptions: db.Collection(database.SubscriptionsCollection),
		videos:        db.Collection(database.VideosCollection),
	}
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// FindByUsernameOrEmail matches either identifier; blank ones are ignored.
func (r *MongoUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	filter, ok := identityFilter(username, email)
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *MongoUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	filter, ok := identityFilter(username, email)
	if !ok {
		return false, nil
	}

	n, err := r.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return n > 0, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []primitive.ObjectID{}
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := r.users.InsertOne(ctx, u); err != nil {
		if dup := duplicateField(err); dup != nil {
			return dup
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetRefreshToken stores the active refresh token; an empty token removes it.
func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	update := bson.M{"$set": bson.M{"refreshToken": token, "updatedAt": time.Now().UTC()}}
	if token == "" {
		update = bson.M{
			"$unset": bson.M{"refreshToken": ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		}
	}
	return r.updateByID(ctx, id, update, "set refresh token")
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	update := bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}}
	return r.updateByID(ctx, id, update, "update password")
}

func (r *MongoUserRepository) UpdateAccount(ctx context.Context, id primitive.ObjectID, fullname, email string) (model.User, error) {
	update := bson.M{"$set": bson.M{
		"fullname":  fullname,
		"email":     email,
		"updatedAt": time.Now().UTC(),
	}}
	return r.findOneAndUpdate(ctx, id, update, "update account")
}

func (r *MongoUserRepository) UpdateImage(ctx context.Context, id primitive.ObjectID, field model.ImageField, ref model.MediaRef) (model.User, error) {
	update := bson.M{"$set": bson.M{
		string(field): ref,
		"updatedAt":   time.Now().UTC(),
	}}
	return r.findOneAndUpdate(ctx, id, update, "update "+string(field))
}

func (r *MongoUserRepository) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, error) {
	cur, err := r.users.Aggregate(ctx, channelProfilePipeline(username, viewer))
	if err != nil {
		return model.ChannelProfile{}, fmt.Errorf("aggregate channel profile: %w", err)
	}
	defer cur.Close(ctx)

	var profiles []model.ChannelProfile
	if err := cur.All(ctx, &profiles); err != nil {
		return model.ChannelProfile{}, fmt.Errorf("decode channel profile: %w", err)
	}
	if len(profiles) == 0 {
		return model.ChannelProfile{}, model.ErrChannelNotFound
	}
	return profiles[0], nil
}

func (r *MongoUserRepository) WatchHistory(ctx context.Context, id primitive.ObjectID) ([]model.WatchHistoryEntry, error) {
	cur, err := r.users.Aggregate(ctx, watchHistoryPipeline(id))
	if err != nil {
		return nil, fmt.Errorf("aggregate watch history: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		WatchHistory []model.WatchHistoryEntry `bson:"watchHistory"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode watch history: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.ErrUserNotFound
	}
	if rows[0].WatchHistory == nil {
		return []model.WatchHistoryEntry{}, nil
	}
	return rows[0].WatchHistory, nil
}

func (r *MongoUserRepository) AddToWatchHistory(ctx context.Context, id, videoID primitive.ObjectID) error {
	err := r.videos.FindOne(ctx, bson.M{"_id": videoID}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ErrVideoNotFound
	}
	if err != nil {
		return fmt.Errorf("find video: %w", err)
	}

	update := bson.M{
		"$addToSet": bson.M{"watchHistory": videoID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateByID(ctx, id, update, "add to watch history")
}

// Subscribe upserts on the (subscriber, channel) pair, so repeating it is a no-op.
func (r *MongoUserRepository) Subscribe(ctx context.Context, subscriber, channel primitive.ObjectID) error {
	filter := bson.M{"subscriber": subscriber, "channel": channel}
	update := bson.M{"$setOnInsert": bson.M{
		"subscriber": subscriber,
		"channel":    channel,
		"createdAt":  time.Now().UTC(),
	}}

	_, err := r.subscriptions.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Unsubscribe(ctx context.Context, subscriber, channel primitive.ObjectID) error {
	_, err := r.subscriptions.DeleteOne(ctx, bson.M{"subscriber": subscriber, "channel": channel})
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (model.User, error) {
	var u model.User
	err := r.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *MongoUserRepository) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M, op string) error {
	res, err := r.users.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M, op string) (model.User, error) {
	var u model.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		if dup := duplicateField(err); dup != nil {
			return model.User{}, dup
		}
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func identityFilter(username, email string) (bson.M, bool) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.M{"$or": or}, true
}

// duplicateField maps a unique index violation to the sentinel of the field
// that collided, or returns nil for any other error.
func duplicateField(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "username"):
		return model.ErrDuplicateUsername
	case strings.Contains(msg, "email"):
		return model.ErrDuplicateEmail
	default:
		return model.ErrUserAlreadyExists
	}
}
