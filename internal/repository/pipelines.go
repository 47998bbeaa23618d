package repository

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"teahouse/internal/database"
)

// channelProfilePipeline joins a user with the subscriptions that point at it
// and the ones it owns. isSubscribed checks the viewer against the subscriber
// field of the joined records, not their ids.
func channelProfilePipeline(username string, viewer primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":                       1,
			"username":                  1,
			"fullname":                  1,
			"email":                     1,
			"avatar":                    1,
			"coverImage":                1,
			"subscribersCount":          1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
		}}},
	}
}

func watchHistoryPipeline(id primitive.ObjectID) mongo.Pipeline {
	ownerLookup := bson.M{
		"from":         database.UsersCollection,
		"localField":   "owner",
		"foreignField": "_id",
		"as":           "owner",
		"pipeline": bson.A{
			bson.M{"$project": bson.M{"_id": 1, "username": 1, "fullname": 1, "avatar": 1}},
		},
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.VideosCollection,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "watchHistory",
			"pipeline": bson.A{
				bson.M{"$lookup": ownerLookup},
				bson.M{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
			},
		}}},
		{{Key: "$project", Value: bson.M{"watchHistory": 1}}},
	}
}
