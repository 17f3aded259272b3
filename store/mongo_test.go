package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestLiveFilterHidesExpired(t *testing.T) {
	now := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	f := live(bson.M{"userId": "u", "taskId": "q"}, now)

	assert.Equal(t, "u", f["userId"])
	assert.Equal(t, bson.A{
		bson.M{"expiresAt": nil},
		bson.M{"expiresAt": bson.M{"$gt": now}},
	}, f["$or"])
}
