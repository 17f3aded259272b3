package socials

import (
	"context"
	"fmt"

	"nexura/models"
)

// GuildChecker answers Discord membership questions
type GuildChecker interface {
	InGuild(guildID, userID string) (bool, error)
	HasRole(guildID, roleID, userID string) (bool, error)
}

// Verifier decides whether a user meets a quest's social requirement.
// A requirement needing an unlinked account is simply unmet.
type Verifier struct {
	guilds GuildChecker
}

func NewVerifier(guilds GuildChecker) *Verifier {
	return &Verifier{guilds: guilds}
}

func (v *Verifier) Verify(_ context.Context, user *models.User, req models.Verification) (bool, error) {
	switch req.Type {
	case "", models.VerifyNone:
		return true, nil
	case models.VerifyXConnected:
		return user.Socials.X != nil, nil
	case models.VerifyDiscordJoin:
		if user.Socials.Discord == nil {
			return false, nil
		}
		return v.guilds.InGuild(req.GuildID, user.Socials.Discord.ID)
	case models.VerifyDiscordRole:
		if user.Socials.Discord == nil {
			return false, nil
		}
		return v.guilds.HasRole(req.GuildID, req.RoleID, user.Socials.Discord.ID)
	}
	return false, fmt.Errorf("unknown verification type %q", req.Type)
}
