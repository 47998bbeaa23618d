package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestChannelProfilePipeline(t *testing.T) {
	t.Parallel()

	viewer := primitive.NewObjectID()
	p := channelProfilePipeline("chaiwala", viewer)
	require.Len(t, p, 5)

	match := p[0][0]
	require.Equal(t, "$match", match.Key)
	require.Equal(t, bson.M{"username": "chaiwala"}, match.Value)

	subscribers := p[1][0].Value.(bson.M)
	require.Equal(t, "channel", subscribers["foreignField"])
	require.Equal(t, "subscribers", subscribers["as"])

	subscribedTo := p[2][0].Value.(bson.M)
	require.Equal(t, "subscriber", subscribedTo["foreignField"])

	fields := p[3][0].Value.(bson.M)
	cond := fields["isSubscribed"].(bson.M)["$cond"].(bson.M)
	require.Equal(t, bson.A{viewer, "$subscribers.subscriber"}, cond["if"].(bson.M)["$in"])

	project := p[4][0].Value.(bson.M)
	require.NotContains(t, project, "password")
	require.NotContains(t, project, "refreshToken")
}

func TestWatchHistoryPipeline(t *testing.T) {
	t.Parallel()

	id := primitive.NewObjectID()
	p := watchHistoryPipeline(id)
	require.Len(t, p, 3)
	require.Equal(t, bson.M{"_id": id}, p[0][0].Value)

	lookup := p[1][0].Value.(bson.M)
	require.Equal(t, "videos", lookup["from"])
	require.Equal(t, "watchHistory", lookup["localField"])

	nested := lookup["pipeline"].(bson.A)
	require.Len(t, nested, 2)
	owner := nested[0].(bson.M)["$lookup"].(bson.M)
	require.Equal(t, "users", owner["from"])
	require.Equal(t, bson.M{"owner": bson.M{"$first": "$owner"}}, nested[1].(bson.M)["$addFields"])
}

func TestIdentityFilter(t *testing.T) {
	t.Parallel()

	_, ok := identityFilter("", "")
	require.False(t, ok)

	f, ok := identityFilter("mira", "")
	require.True(t, ok)
	require.Equal(t, bson.M{"$or": bson.A{bson.M{"username": "mira"}}}, f)

	f, ok = identityFilter("mira", "mira@example.com")
	require.True(t, ok)
	require.Len(t, f["$or"], 2)
}
