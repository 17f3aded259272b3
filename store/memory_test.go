package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/models"
)

func TestCreateUserUniqueness(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	first := &models.User{Username: "alice", WalletAddress: "0xaa", Referral: models.Referral{Code: "AAAA"}}
	require.NoError(t, m.CreateUser(ctx, first))
	assert.False(t, first.ID.IsZero())

	dupes := []*models.User{
		{Username: "alice", Referral: models.Referral{Code: "BBBB"}},
		{Username: "bob", WalletAddress: "0xaa", Referral: models.Referral{Code: "CCCC"}},
		{Username: "carol", Referral: models.Referral{Code: "AAAA"}},
	}
	for _, u := range dupes {
		assert.ErrorIs(t, m.CreateUser(ctx, u), ErrDuplicate, u.Username)
	}

	// users without a wallet do not collide on the empty address
	require.NoError(t, m.CreateUser(ctx, &models.User{Username: "dave", Referral: models.Referral{Code: "DDDD"}}))
	require.NoError(t, m.CreateUser(ctx, &models.User{Username: "erin", Referral: models.Referral{Code: "EEEE"}}))

	_, err := m.UserByWallet(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := m.UserByReferralCode(ctx, "AAAA")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestReturnedUsersAreCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	u := &models.User{Username: "alice", Badges: []int{}, Referral: models.Referral{Code: "AAAA"}}
	require.NoError(t, m.CreateUser(ctx, u))

	got, err := m.UserByID(ctx, u.ID)
	require.NoError(t, err)
	got.XP = 999
	got.Badges = append(got.Badges, 3)

	again, err := m.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, again.XP)
	assert.Empty(t, again.Badges)
}

func TestCompletionTTL(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }
	ctx := context.Background()
	userID, taskID := primitive.NewObjectID(), primitive.NewObjectID()

	exp := now.Add(time.Hour)
	rec := &models.Completion{UserID: userID, TaskID: taskID, Done: true, ExpiresAt: &exp}
	require.NoError(t, m.InsertCompletion(ctx, models.KindQuest, rec))
	assert.ErrorIs(t, m.InsertCompletion(ctx, models.KindQuest, &models.Completion{UserID: userID, TaskID: taskID}), ErrDuplicate)

	// kinds are separate ledgers
	require.NoError(t, m.InsertCompletion(ctx, models.KindMiniQuest, &models.Completion{UserID: userID, TaskID: taskID}))

	now = now.Add(time.Hour)
	_, err := m.CompletionFor(ctx, models.KindQuest, userID, taskID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, m.InsertCompletion(ctx, models.KindQuest, &models.Completion{UserID: userID, TaskID: taskID}))
}

func TestMarkCompletionDoneOnce(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()
	userID, taskID := primitive.NewObjectID(), primitive.NewObjectID()
	timer := now.Add(time.Minute)
	require.NoError(t, m.InsertCompletion(ctx, models.KindEcosystemQuest, &models.Completion{UserID: userID, TaskID: taskID, Timer: &timer}))

	ok, err := m.MarkCompletionDone(ctx, models.KindEcosystemQuest, userID, taskID, now)
	require.NoError(t, err)
	assert.False(t, ok, "timer has not elapsed")

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.MarkCompletionDone(ctx, models.KindEcosystemQuest, userID, taskID, timer)
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

func TestCountCompletionsByParent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	userID, parent := primitive.NewObjectID(), primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		require.NoError(t, m.InsertCompletion(ctx, models.KindMiniQuest, &models.Completion{
			UserID: userID, TaskID: primitive.NewObjectID(), ParentID: parent, Done: true,
		}))
	}
	require.NoError(t, m.InsertCompletion(ctx, models.KindMiniQuest, &models.Completion{
		UserID: userID, TaskID: primitive.NewObjectID(), ParentID: primitive.NewObjectID(), Done: true,
	}))

	n, err := m.CountCompletions(ctx, models.KindMiniQuest, userID, parent)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestConcurrentRewardGrants(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	u := &models.User{Username: "alice", Referral: models.Referral{Code: "AAAA"}}
	require.NoError(t, m.CreateUser(ctx, u))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.GrantReward(ctx, u.ID, models.Reward{XP: 2, Quests: 1})
		}()
	}
	wg.Wait()

	got, err := m.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.XP)
	assert.Equal(t, 50, got.QuestsCompleted)
}

func TestConditionalUserFlags(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	u := &models.User{Username: "alice", Status: models.StatusInactive, Referral: models.Referral{Code: "AAAA"}}
	require.NoError(t, m.CreateUser(ctx, u))

	for _, step := range []struct {
		name string
		fn   func() (bool, error)
	}{
		{"activate", func() (bool, error) { return m.ActivateUser(ctx, u.ID) }},
		{"claim", func() (bool, error) { return m.MarkRefRewardClaimed(ctx, u.ID, 16.2) }},
		{"allow", func() (bool, error) { return m.MarkRefRewardAllowed(ctx, u.ID) }},
		{"badge", func() (bool, error) { return m.AddBadge(ctx, u.ID, 2) }},
	} {
		ok, err := step.fn()
		require.NoError(t, err, step.name)
		assert.True(t, ok, step.name)
		ok, err = step.fn()
		require.NoError(t, err, step.name)
		assert.False(t, ok, step.name)
	}

	got, err := m.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 16.2, got.TrustEarned)
	assert.Equal(t, []int{2}, got.Badges)
}

func TestCheckInCompareAndSwap(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	u := &models.User{Username: "alice", Referral: models.Referral{Code: "AAAA"}}
	require.NoError(t, m.CreateUser(ctx, u))

	day1 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	ok, err := m.CheckIn(ctx, u.ID, nil, day1, 1, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second writer that also saw no previous check-in loses
	ok, err = m.CheckIn(ctx, u.ID, nil, day1, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	day2 := day1.AddDate(0, 0, 1)
	ok, err = m.CheckIn(ctx, u.ID, &day1, day2, 2, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestXPAllocationIsSingleUse(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	p := &models.Project{Name: "acme", Email: "a@acme.io"}
	require.NoError(t, m.CreateProject(ctx, p))
	assert.ErrorIs(t, m.CreateProject(ctx, &models.Project{Name: "acme", Email: "b@acme.io"}), ErrDuplicate)

	require.NoError(t, m.AllocateXP(ctx, p.ID, 100, 1))
	require.NoError(t, m.AllocateXP(ctx, p.ID, 50, 0.5))

	xp, trust, err := m.ConsumeXPAllocation(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, xp)
	assert.Equal(t, 1.5, trust)

	xp, _, err = m.ConsumeXPAllocation(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, xp)
}

func TestInviteSingleUse(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, m.CreateInvite(ctx, &models.AdminInvite{Email: "a@b.c", Token: "tok", ExpiresAt: now.Add(time.Hour)}))

	_, err := m.UseInvite(ctx, "tok", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)

	inv, err := m.UseInvite(ctx, "tok", now)
	require.NoError(t, err)
	assert.NotNil(t, inv.UsedAt)

	_, err = m.UseInvite(ctx, "tok", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelayOutbox(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()

	due := &models.RelayAction{DedupeKey: "a", Status: models.RelayStatusPending, NextAttemptAt: now}
	later := &models.RelayAction{DedupeKey: "b", Status: models.RelayStatusPending, NextAttemptAt: now.Add(time.Minute)}
	submitted := &models.RelayAction{DedupeKey: "c", Status: models.RelayStatusSubmitted, NextAttemptAt: now}
	polled := &models.RelayAction{DedupeKey: "e", Status: models.RelayStatusSubmitted, NextAttemptAt: now.Add(time.Minute)}
	failed := &models.RelayAction{DedupeKey: "d", Status: models.RelayStatusFailed, NextAttemptAt: now}
	for _, a := range []*models.RelayAction{due, later, submitted, polled, failed} {
		require.NoError(t, m.EnqueueRelay(ctx, a))
	}
	assert.ErrorIs(t, m.EnqueueRelay(ctx, &models.RelayAction{DedupeKey: "a"}), ErrDuplicate)

	got, err := m.DueRelayActions(ctx, now, 10)
	require.NoError(t, err)
	keys := []string{}
	for _, a := range got {
		keys = append(keys, a.DedupeKey)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, keys)

	failedOnly, err := m.RelayActionsByStatus(ctx, models.RelayStatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failedOnly, 1)
	assert.Equal(t, failed.ID, failedOnly[0].ID)

	assert.ErrorIs(t, m.UpdateRelayAction(ctx, &models.RelayAction{ID: primitive.NewObjectID()}), ErrNotFound)
}
