//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexura/db"
	"nexura/models"
)

// Run with: NEXURA_TEST_MONGO_URI=mongodb://localhost:27017 go test -tags integration ./store/
func newTestMongo(t *testing.T) *Mongo {
	t.Helper()
	uri := os.Getenv("NEXURA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("NEXURA_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	database := client.Database(fmt.Sprintf("nexura_test_%d", time.Now().UnixNano()))
	require.NoError(t, db.EnsureIndexes(ctx, database))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = database.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return NewMongo(database)
}

func TestMongoCompletionUnique(t *testing.T) {
	m := newTestMongo(t)
	ctx := context.Background()
	userID, taskID := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, m.InsertCompletion(ctx, models.KindQuest, &models.Completion{UserID: userID, TaskID: taskID, Done: true}))
	err := m.InsertCompletion(ctx, models.KindQuest, &models.Completion{UserID: userID, TaskID: taskID, Done: true})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMongoExpiredCompletionBeforeReap(t *testing.T) {
	m := newTestMongo(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	m.Now = func() time.Time { return now }
	ctx := context.Background()
	userID, taskID := primitive.NewObjectID(), primitive.NewObjectID()

	exp := now.Add(time.Hour)
	require.NoError(t, m.InsertCompletion(ctx, models.KindQuest, &models.Completion{UserID: userID, TaskID: taskID, Done: true, ExpiresAt: &exp}))
	_, err := m.CompletionFor(ctx, models.KindQuest, userID, taskID)
	require.NoError(t, err)

	// past expiresAt the row is still on disk until the TTL monitor runs
	now = now.Add(2 * time.Hour)
	_, err = m.CompletionFor(ctx, models.KindQuest, userID, taskID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.InsertCompletion(ctx, models.KindQuest, &models.Completion{UserID: userID, TaskID: taskID, Done: true}))
	got, err := m.CompletionFor(ctx, models.KindQuest, userID, taskID)
	require.NoError(t, err)
	assert.Nil(t, got.ExpiresAt)
}

func TestMongoMarkCompletionDoneOnce(t *testing.T) {
	m := newTestMongo(t)
	ctx := context.Background()
	userID, taskID := primitive.NewObjectID(), primitive.NewObjectID()
	timer := time.Now().UTC().Add(-time.Second)
	require.NoError(t, m.InsertCompletion(ctx, models.KindEcosystemQuest, &models.Completion{UserID: userID, TaskID: taskID, Timer: &timer}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.MarkCompletionDone(ctx, models.KindEcosystemQuest, userID, taskID, time.Now().UTC())
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMongoMarkCampaignClaimed(t *testing.T) {
	m := newTestMongo(t)
	ctx := context.Background()
	userID, campaignID := primitive.NewObjectID(), primitive.NewObjectID()
	require.NoError(t, m.JoinCampaign(ctx, &models.CampaignCompletion{UserID: userID, CampaignID: campaignID, JoinedAt: time.Now()}))
	assert.ErrorIs(t, m.JoinCampaign(ctx, &models.CampaignCompletion{UserID: userID, CampaignID: campaignID}), ErrDuplicate)

	ok, err := m.MarkCampaignClaimed(ctx, userID, campaignID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "quests not completed")

	ok, err = m.MarkCampaignQuestsCompleted(ctx, userID, campaignID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.MarkCampaignClaimed(ctx, userID, campaignID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.MarkCampaignClaimed(ctx, userID, campaignID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMongoConsumeXPAllocation(t *testing.T) {
	m := newTestMongo(t)
	ctx := context.Background()
	p := &models.Project{Name: "acme", Email: "team@acme.io"}
	require.NoError(t, m.CreateProject(ctx, p))
	require.NoError(t, m.AllocateXP(ctx, p.ID, 500, 20))

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			xp, _, err := m.ConsumeXPAllocation(ctx, p.ID)
			if err == nil {
				mu.Lock()
				total += xp
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, total)
}
