package socials

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexura/models"
)

type fakeGuilds struct {
	members map[string][]string
}

func (f fakeGuilds) InGuild(guildID, userID string) (bool, error) {
	_, ok := f.members[guildID+"/"+userID]
	return ok, nil
}

func (f fakeGuilds) HasRole(guildID, roleID, userID string) (bool, error) {
	for _, r := range f.members[guildID+"/"+userID] {
		if r == roleID {
			return true, nil
		}
	}
	return false, nil
}

func TestVerifier(t *testing.T) {
	v := NewVerifier(fakeGuilds{members: map[string][]string{"g1/d1": {"r1"}}})
	ctx := context.Background()

	linked := &models.User{Socials: models.Socials{
		Discord: &models.SocialAccount{ID: "d1"},
		X:       &models.SocialAccount{ID: "x1"},
	}}
	bare := &models.User{}

	cases := []struct {
		name string
		user *models.User
		req  models.Verification
		want bool
	}{
		{"none", bare, models.Verification{Type: models.VerifyNone}, true},
		{"empty type", bare, models.Verification{}, true},
		{"x linked", linked, models.Verification{Type: models.VerifyXConnected}, true},
		{"x missing", bare, models.Verification{Type: models.VerifyXConnected}, false},
		{"guild member", linked, models.Verification{Type: models.VerifyDiscordJoin, GuildID: "g1"}, true},
		{"other guild", linked, models.Verification{Type: models.VerifyDiscordJoin, GuildID: "g2"}, false},
		{"discord missing", bare, models.Verification{Type: models.VerifyDiscordJoin, GuildID: "g1"}, false},
		{"role held", linked, models.Verification{Type: models.VerifyDiscordRole, GuildID: "g1", RoleID: "r1"}, true},
		{"role missing", linked, models.Verification{Type: models.VerifyDiscordRole, GuildID: "g1", RoleID: "r2"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := v.Verify(ctx, tc.user, tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}

	_, err := v.Verify(ctx, linked, models.Verification{Type: "telegram"})
	assert.Error(t, err)
}

func TestParseDiscordUser(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	acct, err := parseDiscordUser([]byte(`{"id":"80351110224678912","username":"nelly","discriminator":"0"}`), now)
	require.NoError(t, err)
	assert.Equal(t, "80351110224678912", acct.ID)
	assert.Equal(t, "nelly", acct.Username)
	assert.Equal(t, now, acct.ConnectedAt)

	_, err = parseDiscordUser([]byte(`{"message":"401: Unauthorized"}`), now)
	assert.Error(t, err)
}

func TestUnconfiguredProviders(t *testing.T) {
	d, err := NewDiscord("", "", "", "")
	require.NoError(t, err)
	_, err = d.AuthURL("state")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = d.InGuild("g", "u")
	assert.ErrorIs(t, err, ErrNotConfigured)

	x := NewX("", "", "")
	_, _, err = x.AuthURL("state")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestXAuthURLCarriesChallenge(t *testing.T) {
	x := NewX("client", "secret", "http://localhost/cb")
	url, verifier, err := x.AuthURL("abc")
	require.NoError(t, err)
	assert.NotEmpty(t, verifier)
	assert.Contains(t, url, "code_challenge_method=S256")
	assert.Contains(t, url, "state=abc")
}
