package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Subscription struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Subscriber primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type ChannelProfile struct {
	ID                        primitive.ObjectID `bson:"_id" json:"_id"`
	Username                  string             `bson:"username" json:"username"`
	Fullname                  string             `bson:"fullname" json:"fullname"`
	Email                     string             `bson:"email" json:"email"`
	Avatar                    MediaRef           `bson:"avatar" json:"avatar"`
	CoverImage                MediaRef           `bson:"coverImage" json:"coverImage"`
	SubscribersCount          int                `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int                `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool               `bson:"isSubscribed" json:"isSubscribed"`
}

type VideoOwner struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
	Fullname string             `bson:"fullname" json:"fullname"`
	Avatar   MediaRef           `bson:"avatar" json:"avatar"`
}

// WatchHistoryEntry is a video with its owner document inlined.
type WatchHistoryEntry struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	Owner       *VideoOwner        `bson:"owner,omitempty" json:"owner"`
}
