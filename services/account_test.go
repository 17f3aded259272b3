package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexura/models"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func TestSignUpAndSignIn(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()

	u, err := f.svc.SignUp(ctx, SignUpInput{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "1", u.Level)
	assert.Equal(t, "enchanter", u.Tier)
	assert.Equal(t, models.StatusInactive, u.Status)
	assert.NotEmpty(t, u.Referral.Code)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	_, err = f.svc.SignUp(ctx, SignUpInput{Username: "alice", Password: "another-one"})
	assertStatus(t, err, http.StatusBadRequest, "username taken")

	got, err := f.svc.SignIn(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.svc.SignIn(ctx, "alice", "wrong-password")
	assertStatus(t, err, http.StatusUnauthorized, "invalid credentials")
	_, err = f.svc.SignIn(ctx, "bob", "whatever1")
	assertStatus(t, err, http.StatusUnauthorized, "invalid credentials")
}

func TestWalletSignInReturnsExistingUser(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	wallet := "0x2222222222222222222222222222222222222222"

	first, created, err := f.svc.WalletSignIn(ctx, wallet, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, wallet, first.Username)

	second, created, err := f.svc.WalletSignIn(ctx, wallet, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// wallet-only users cannot use password sign-in
	_, err = f.svc.SignIn(ctx, wallet, "")
	assertStatus(t, err, http.StatusUnauthorized, "invalid credentials")
}

func TestCheckInStreak(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	u := f.walletUser(t, "")

	got, err := f.svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Streak)

	f.clock.Advance(3 * time.Hour)
	_, err = f.svc.CheckIn(ctx, u.ID)
	assertStatus(t, err, http.StatusForbidden, "already checked in")

	f.clock.Advance(21 * time.Hour)
	got, err = f.svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Streak)
	assert.Equal(t, 2, got.LongestStreak)

	f.clock.Advance(48 * time.Hour)
	got, err = f.svc.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Streak)
	assert.Equal(t, 2, got.LongestStreak)
}

func TestMintBadge(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	u := f.walletUser(t, "")

	assertStatus(t, f.svc.MintBadge(ctx, u.ID, 0), http.StatusBadRequest, "invalid level")
	assertStatus(t, f.svc.MintBadge(ctx, u.ID, MaxLevel+1), http.StatusBadRequest, "invalid level")
	assertStatus(t, f.svc.MintBadge(ctx, u.ID, 2), http.StatusForbidden, "level not reached")

	require.NoError(t, f.svc.MintBadge(ctx, u.ID, 1))
	assertStatus(t, f.svc.MintBadge(ctx, u.ID, 1), http.StatusBadRequest, "badge already minted")

	got, err := f.svc.User(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got.Badges)
}

func TestMintedBadgeSkipsRelay(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	u := f.walletUser(t, "")
	_, err := f.store.AddBadge(ctx, u.ID, 2)
	require.NoError(t, err)

	q := f.quest(t, QuestInput{Title: "Climb", XP: 600})
	got, err := f.svc.ClaimQuest(ctx, u.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "2", got.Level)
	assert.Empty(t, f.relayKeys(t))
}

func TestProfileNextLevel(t *testing.T) {
	f := newFixture(t, Deps{})
	u := f.walletUser(t, "")
	p, err := f.svc.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, p.NextLevelXP)
}

func TestLeaderboard(t *testing.T) {
	cache := &mapCache{data: map[string][]byte{}}
	f := newFixture(t, Deps{Cache: cache})
	ctx := context.Background()

	low := f.walletUser(t, "")
	high := f.walletUser(t, "")
	_, err := f.store.GrantReward(ctx, low.ID, models.Reward{XP: 10})
	require.NoError(t, err)
	_, err = f.store.GrantReward(ctx, high.ID, models.Reward{XP: 90})
	require.NoError(t, err)

	entries, err := f.svc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, high.ID.Hex(), entries[0].ID)
	assert.Equal(t, 90, entries[0].XP)

	// served from cache until it expires
	_, err = f.store.GrantReward(ctx, low.ID, models.Reward{XP: 1000})
	require.NoError(t, err)
	cached, err := f.svc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, entries, cached)
}

func TestConnectSocial(t *testing.T) {
	f := newFixture(t, Deps{})
	ctx := context.Background()
	u := f.walletUser(t, "")
	require.NoError(t, f.svc.ConnectSocial(ctx, u.ID, "discord", models.SocialAccount{ID: "42", Username: "alice"}))

	got, err := f.svc.User(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Socials.Discord)
	assert.Equal(t, "42", got.Socials.Discord.ID)
	assert.Equal(t, f.clock.Now(), got.Socials.Discord.ConnectedAt)
	assert.Nil(t, got.Socials.X)
}
