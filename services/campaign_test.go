package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/models"
)

const testCampaignContract = "0x00000000000000000000000000000000000000d3"

func (f *fixture) project(t *testing.T, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, Email: name + "@example.com", CreatedAt: f.clock.Now()}
	require.NoError(t, f.store.CreateProject(context.Background(), p))
	return p
}

// campaign allocates xp to a fresh project and opens a campaign with n quests
func (f *fixture) campaign(t *testing.T, n int, reward models.CampaignReward) (*models.Project, *models.Campaign, []*models.CampaignQuest) {
	t.Helper()
	ctx := context.Background()
	p := f.project(t, "proj-"+primitive.NewObjectID().Hex())
	_, err := f.svc.AllocateXP(ctx, p.ID, 500, 20)
	require.NoError(t, err)
	c, err := f.svc.CreateCampaign(ctx, p.ID, CampaignInput{
		Title:           "Launch week",
		ContractAddress: testCampaignContract,
		RewardXP:        reward.XP,
		RewardTrust:     reward.Trust,
	})
	require.NoError(t, err)
	var quests []*models.CampaignQuest
	for i := 0; i < n; i++ {
		cq, err := f.svc.AddCampaignQuest(ctx, p.ID, c.ID, TaskInput{Title: "task"})
		require.NoError(t, err)
		quests = append(quests, cq)
	}
	return p, c, quests
}

func TestCreateCampaignConsumesAllocation(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	p := f.project(t, "acme")

	_, err := f.svc.CreateCampaign(ctx, p.ID, CampaignInput{Title: "first"})
	assertStatus(t, err, http.StatusForbidden, "no xp allocated")

	_, err = f.svc.AllocateXP(ctx, p.ID, 300, 5)
	require.NoError(t, err)
	proj, err := f.svc.AllocateXP(ctx, p.ID, 200, 0)
	require.NoError(t, err)
	assert.Equal(t, 500, proj.XPAllocated)

	c, err := f.svc.CreateCampaign(ctx, p.ID, CampaignInput{Title: "first"})
	require.NoError(t, err)
	assert.Equal(t, 500, c.TotalXPAvailable)
	assert.Equal(t, 5.0, c.TotalTrustAvailable)
	assert.Equal(t, models.CampaignActive, c.Status)

	proj, err = f.svc.Project(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, proj.XPAllocated)

	_, err = f.svc.CreateCampaign(ctx, p.ID, CampaignInput{Title: "second"})
	assertStatus(t, err, http.StatusForbidden, "no xp allocated")
}

func TestCreateCampaignRejectsPastEnd(t *testing.T) {
	f := newFixture(t, Deps{})
	p := f.project(t, "acme")
	past := f.clock.Now().Add(-time.Hour)
	_, err := f.svc.CreateCampaign(context.Background(), p.ID, CampaignInput{Title: "late", EndsAt: &past})
	assertStatus(t, err, http.StatusBadRequest, "endsAt must be in the future")
}

func TestAllocateXPValidates(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	p := f.project(t, "acme")
	_, err := f.svc.AllocateXP(ctx, p.ID, 0, 0)
	assertStatus(t, err, http.StatusBadRequest, "")
	_, err = f.svc.AllocateXP(ctx, primitive.NewObjectID(), 10, 0)
	assertStatus(t, err, http.StatusNotFound, "project not found")
}

func TestCampaignOwnership(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	_, c, _ := f.campaign(t, 0, models.CampaignReward{XP: 10})
	other := f.project(t, "intruder")

	_, err := f.svc.AddCampaignQuest(ctx, other.ID, c.ID, TaskInput{Title: "x"})
	assertStatus(t, err, http.StatusForbidden, "campaign belongs to another project")
	err = f.svc.CloseCampaign(ctx, other.ID, c.ID)
	assertStatus(t, err, http.StatusForbidden, "campaign belongs to another project")
}

func TestUpdateAndCloseCampaign(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	p, c, _ := f.campaign(t, 1, models.CampaignReward{XP: 10})

	title := "Renamed"
	updated, err := f.svc.UpdateCampaign(ctx, p.ID, c.ID, models.CampaignUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, testCampaignContract, updated.ContractAddress)

	require.NoError(t, f.svc.CloseCampaign(ctx, p.ID, c.ID))
	_, err = f.svc.AddCampaignQuest(ctx, p.ID, c.ID, TaskInput{Title: "late"})
	assertStatus(t, err, http.StatusForbidden, "campaign closed")

	u := f.walletUser(t, "")
	err = f.svc.JoinCampaign(ctx, u.ID, c.ID)
	assertStatus(t, err, http.StatusForbidden, "campaign ended")
}

func TestCampaignLifecycle(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	_, c, quests := f.campaign(t, 2, models.CampaignReward{XP: 120, Trust: 1.5})
	u := f.walletUser(t, "")

	_, err := f.svc.PerformCampaignQuest(ctx, u.ID, quests[0].ID)
	assertStatus(t, err, http.StatusForbidden, "join campaign first")
	_, err = f.svc.ClaimCampaignRewards(ctx, u.ID, c.ID)
	assertStatus(t, err, http.StatusForbidden, "join campaign first")

	require.NoError(t, f.svc.JoinCampaign(ctx, u.ID, c.ID))
	err = f.svc.JoinCampaign(ctx, u.ID, c.ID)
	assertStatus(t, err, http.StatusBadRequest, "already joined")

	cc, err := f.svc.PerformCampaignQuest(ctx, u.ID, quests[0].ID)
	require.NoError(t, err)
	assert.False(t, cc.QuestsCompleted)

	_, err = f.svc.PerformCampaignQuest(ctx, u.ID, quests[0].ID)
	assertStatus(t, err, http.StatusForbidden, "already performed")

	_, err = f.svc.ClaimCampaignRewards(ctx, u.ID, c.ID)
	assertStatus(t, err, http.StatusForbidden, "complete all campaign quests")

	cc, err = f.svc.PerformCampaignQuest(ctx, u.ID, quests[1].ID)
	require.NoError(t, err)
	assert.True(t, cc.QuestsCompleted)

	got, err := f.svc.ClaimCampaignRewards(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.XP)
	assert.Equal(t, 1.5, got.TrustEarned)
	assert.Equal(t, 1, got.CampaignsCompleted)
	assert.Equal(t, models.StatusActive, got.Status)

	_, err = f.svc.ClaimCampaignRewards(ctx, u.ID, c.ID)
	assertStatus(t, err, http.StatusForbidden, "already claimed")

	stored, err := f.store.CampaignByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Participants)
	assert.Equal(t, 120, stored.XPClaimed)

	view, qviews, err := f.svc.Campaign(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, view.Joined)
	assert.True(t, view.CampaignCompleted)
	require.Len(t, qviews, 2)
	assert.True(t, qviews[0].Done)
	assert.True(t, qviews[1].Done)

	keys := f.relayKeys(t)
	assert.ElementsMatch(t, []string{
		"join:" + c.ID.Hex() + ":" + u.ID.Hex(),
		"campaign-claim:" + c.ID.Hex() + ":" + u.ID.Hex(),
	}, keys)
	assert.Contains(t, f.notifier.types(), "campaign_claimed")
}

func TestCampaignQuestAddedAfterCompletion(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	p, c, quests := f.campaign(t, 2, models.CampaignReward{XP: 50})
	u := f.walletUser(t, "")

	require.NoError(t, f.svc.JoinCampaign(ctx, u.ID, c.ID))
	for _, q := range quests {
		_, err := f.svc.PerformCampaignQuest(ctx, u.ID, q.ID)
		require.NoError(t, err)
	}

	extra, err := f.svc.AddCampaignQuest(ctx, p.ID, c.ID, TaskInput{Title: "late task"})
	require.NoError(t, err)

	_, err = f.svc.ClaimCampaignRewards(ctx, u.ID, c.ID)
	assertStatus(t, err, http.StatusForbidden, "complete all campaign quests")

	_, err = f.svc.PerformCampaignQuest(ctx, u.ID, extra.ID)
	require.NoError(t, err)
	got, err := f.svc.ClaimCampaignRewards(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.XP)
}

func TestCampaignEndedBlocksParticipation(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	p, c, quests := f.campaign(t, 1, models.CampaignReward{XP: 10})
	u := f.walletUser(t, "")
	require.NoError(t, f.svc.JoinCampaign(ctx, u.ID, c.ID))

	end := f.clock.Now().Add(time.Hour)
	_, err := f.svc.UpdateCampaign(ctx, p.ID, c.ID, models.CampaignUpdate{EndsAt: &end})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.PerformCampaignQuest(ctx, u.ID, quests[0].ID)
	assertStatus(t, err, http.StatusForbidden, "campaign ended")

	late := f.walletUser(t, "")
	err = f.svc.JoinCampaign(ctx, late.ID, c.ID)
	assertStatus(t, err, http.StatusForbidden, "campaign ended")
}

func TestCampaignsListFlags(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	_, c, _ := f.campaign(t, 1, models.CampaignReward{XP: 10})
	u := f.walletUser(t, "")
	require.NoError(t, f.svc.JoinCampaign(ctx, u.ID, c.ID))

	views, err := f.svc.Campaigns(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Joined)
	assert.False(t, views[0].QuestsCompleted)

	anon, err := f.svc.Campaigns(ctx, primitive.NilObjectID)
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.False(t, anon[0].Joined)
}
