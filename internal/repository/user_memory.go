package repository

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"teahouse/internal/model"
)

// MemoryUserRepository mirrors MongoUserRepository in process memory for the
// service, handler and router tests.
type MemoryUserRepository struct {
	mu            sync.RWMutex
	users         map[primitive.ObjectID]model.User
	subscriptions []model.Subscription
	videos        map[primitive.ObjectID]model.Video
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  map[primitive.ObjectID]model.User{},
		videos: map[primitive.ObjectID]model.Video{},
	}
}

// AddVideo seeds a video document; the users API never creates videos itself.
func (r *MemoryUserRepository) AddVideo(v model.Video) model.Video {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	r.videos[v.ID] = v
	return v
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) FindByUsernameOrEmail(_ context.Context, username, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if matchesIdentity(u, username, email) {
			return cloneUser(u), nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if matchesIdentity(u, username, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username {
			return model.ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return model.ErrDuplicateEmail
		}
	}

	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []primitive.ObjectID{}
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *MemoryUserRepository) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	return r.mutate(id, func(u *model.User) error {
		u.RefreshToken = token
		return nil
	})
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return r.mutate(id, func(u *model.User) error {
		u.Password = hash
		return nil
	})
}

func (r *MemoryUserRepository) UpdateAccount(_ context.Context, id primitive.ObjectID, fullname, email string) (model.User, error) {
	var out model.User
	err := r.mutate(id, func(u *model.User) error {
		for otherID, other := range r.users {
			if otherID != id && other.Email == email {
				return model.ErrDuplicateEmail
			}
		}
		u.Fullname = fullname
		u.Email = email
		out = cloneUser(*u)
		return nil
	})
	return out, err
}

func (r *MemoryUserRepository) UpdateImage(_ context.Context, id primitive.ObjectID, field model.ImageField, ref model.MediaRef) (model.User, error) {
	var out model.User
	err := r.mutate(id, func(u *model.User) error {
		switch field {
		case model.AvatarField:
			u.Avatar = ref
		case model.CoverImageField:
			u.CoverImage = ref
		default:
			return model.ErrInvalidInput
		}
		out = cloneUser(*u)
		return nil
	})
	return out, err
}

func (r *MemoryUserRepository) ChannelProfile(_ context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var channel *model.User
	for _, u := range r.users {
		if u.Username == username {
			channel = &u
			break
		}
	}
	if channel == nil {
		return model.ChannelProfile{}, model.ErrChannelNotFound
	}

	profile := model.ChannelProfile{
		ID:         channel.ID,
		Username:   channel.Username,
		Fullname:   channel.Fullname,
		Email:      channel.Email,
		Avatar:     channel.Avatar,
		CoverImage: channel.CoverImage,
	}
	for _, s := range r.subscriptions {
		if s.Channel == channel.ID {
			profile.SubscribersCount++
			if s.Subscriber == viewer {
				profile.IsSubscribed = true
			}
		}
		if s.Subscriber == channel.ID {
			profile.ChannelsSubscribedToCount++
		}
	}
	return profile, nil
}

func (r *MemoryUserRepository) WatchHistory(_ context.Context, id primitive.ObjectID) ([]model.WatchHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}

	entries := make([]model.WatchHistoryEntry, 0, len(u.WatchHistory))
	for _, videoID := range u.WatchHistory {
		v, ok := r.videos[videoID]
		if !ok {
			continue
		}
		entry := model.WatchHistoryEntry{
			ID:          v.ID,
			VideoFile:   v.VideoFile,
			Thumbnail:   v.Thumbnail,
			Title:       v.Title,
			Description: v.Description,
			Duration:    v.Duration,
			Views:       v.Views,
			IsPublished: v.IsPublished,
			CreatedAt:   v.CreatedAt,
		}
		if owner, ok := r.users[v.Owner]; ok {
			entry.Owner = &model.VideoOwner{
				ID:       owner.ID,
				Username: owner.Username,
				Fullname: owner.Fullname,
				Avatar:   owner.Avatar,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *MemoryUserRepository) AddToWatchHistory(_ context.Context, id, videoID primitive.ObjectID) error {
	r.mu.RLock()
	_, ok := r.videos[videoID]
	r.mu.RUnlock()
	if !ok {
		return model.ErrVideoNotFound
	}

	return r.mutate(id, func(u *model.User) error {
		for _, existing := range u.WatchHistory {
			if existing == videoID {
				return nil
			}
		}
		u.WatchHistory = append(u.WatchHistory, videoID)
		return nil
	})
}

func (r *MemoryUserRepository) Subscribe(_ context.Context, subscriber, channel primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.subscriptions {
		if s.Subscriber == subscriber && s.Channel == channel {
			return nil
		}
	}
	r.subscriptions = append(r.subscriptions, model.Subscription{
		ID:         primitive.NewObjectID(),
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (r *MemoryUserRepository) Unsubscribe(_ context.Context, subscriber, channel primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.subscriptions[:0]
	for _, s := range r.subscriptions {
		if s.Subscriber == subscriber && s.Channel == channel {
			continue
		}
		kept = append(kept, s)
	}
	r.subscriptions = kept
	return nil
}

func (r *MemoryUserRepository) mutate(id primitive.ObjectID, fn func(*model.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

func matchesIdentity(u model.User, username, email string) bool {
	return (username != "" && u.Username == username) || (email != "" && u.Email == email)
}

func cloneUser(u model.User) model.User {
	if u.WatchHistory != nil {
		u.WatchHistory = append([]primitive.ObjectID(nil), u.WatchHistory...)
	}
	return u
}
