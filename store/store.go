// Package store persists the Nexura ledgers. Every write that gates a reward
// is an insert-if-absent or a conditional update so that two concurrent
// claims cannot both succeed.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByWallet(ctx context.Context, wallet string) (*models.User, error)
	UserByReferralCode(ctx context.Context, code string) (*models.User, error)
	// GrantReward applies r atomically and returns the updated user
	GrantReward(ctx context.Context, id primitive.ObjectID, r models.Reward) (*models.User, error)
	SetLevel(ctx context.Context, id primitive.ObjectID, level, tier string) error
	// ActivateUser flips Inactive to Active, reporting whether this call did it
	ActivateUser(ctx context.Context, id primitive.ObjectID) (bool, error)
	CreditReferral(ctx context.Context, referrerID primitive.ObjectID, xp int) (*models.User, error)
	MarkRefRewardClaimed(ctx context.Context, id primitive.ObjectID, trust float64) (bool, error)
	MarkRefRewardAllowed(ctx context.Context, id primitive.ObjectID) (bool, error)
	AddBadge(ctx context.Context, id primitive.ObjectID, level int) (bool, error)
	// CheckIn stores a new streak if lastCheckIn still equals prev
	CheckIn(ctx context.Context, id primitive.ObjectID, prev *time.Time, at time.Time, streak, longest int) (bool, error)
	SetSocial(ctx context.Context, id primitive.ObjectID, provider string, acct models.SocialAccount) error
	TopUsers(ctx context.Context, limit int) ([]models.User, error)
}

type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	ProjectByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	ProjectByEmail(ctx context.Context, email string) (*models.Project, error)
	AllocateXP(ctx context.Context, id primitive.ObjectID, xp int, trust float64) error
	// ConsumeXPAllocation zeroes the allowance and returns what it held
	ConsumeXPAllocation(ctx context.Context, id primitive.ObjectID) (int, float64, error)
}

type AdminStore interface {
	CreateAdmin(ctx context.Context, a *models.Admin) error
	AdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	CreateInvite(ctx context.Context, inv *models.AdminInvite) error
	// UseInvite marks an unexpired, unused invite as used
	UseInvite(ctx context.Context, token string, now time.Time) (*models.AdminInvite, error)
}

type CatalogStore interface {
	CreateQuest(ctx context.Context, q *models.Quest) error
	QuestByID(ctx context.Context, id primitive.ObjectID) (*models.Quest, error)
	ListQuests(ctx context.Context) ([]models.Quest, error)
	// AddMiniQuest inserts mq and increments the parent's noOfQuests
	AddMiniQuest(ctx context.Context, mq *models.MiniQuest) error
	MiniQuestByID(ctx context.Context, id primitive.ObjectID) (*models.MiniQuest, error)
	MiniQuestsFor(ctx context.Context, questID primitive.ObjectID) ([]models.MiniQuest, error)

	CreateEcosystemQuest(ctx context.Context, q *models.EcosystemQuest) error
	EcosystemQuestByID(ctx context.Context, id primitive.ObjectID) (*models.EcosystemQuest, error)
	ListEcosystemQuests(ctx context.Context) ([]models.EcosystemQuest, error)

	CreateCampaign(ctx context.Context, c *models.Campaign) error
	CampaignByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	ListCampaigns(ctx context.Context) ([]models.Campaign, error)
	CampaignsByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Campaign, error)
	UpdateCampaign(ctx context.Context, id primitive.ObjectID, upd models.CampaignUpdate) error
	CloseCampaign(ctx context.Context, id primitive.ObjectID) error
	// AddCampaignQuest inserts cq and increments the campaign's noOfQuests
	AddCampaignQuest(ctx context.Context, cq *models.CampaignQuest) error
	CampaignQuestByID(ctx context.Context, id primitive.ObjectID) (*models.CampaignQuest, error)
	CampaignQuestsFor(ctx context.Context, campaignID primitive.ObjectID) ([]models.CampaignQuest, error)
	IncParticipants(ctx context.Context, campaignID primitive.ObjectID) error
	IncCampaignClaimed(ctx context.Context, campaignID primitive.ObjectID, xp int, trust float64) error
}

type CompletionStore interface {
	// InsertCompletion returns ErrDuplicate when (user, task) already exists
	InsertCompletion(ctx context.Context, kind models.TaskKind, c *models.Completion) error
	CompletionFor(ctx context.Context, kind models.TaskKind, userID, taskID primitive.ObjectID) (*models.Completion, error)
	// MarkCompletionDone flips done for a record whose timer has elapsed
	MarkCompletionDone(ctx context.Context, kind models.TaskKind, userID, taskID primitive.ObjectID, now time.Time) (bool, error)
	CountCompletions(ctx context.Context, kind models.TaskKind, userID, parentID primitive.ObjectID) (int, error)
	CompletionsForUser(ctx context.Context, kind models.TaskKind, userID primitive.ObjectID) ([]models.Completion, error)

	JoinCampaign(ctx context.Context, cc *models.CampaignCompletion) error
	CampaignCompletionFor(ctx context.Context, userID, campaignID primitive.ObjectID) (*models.CampaignCompletion, error)
	CampaignCompletionsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.CampaignCompletion, error)
	MarkCampaignQuestsCompleted(ctx context.Context, userID, campaignID primitive.ObjectID) (bool, error)
	MarkCampaignClaimed(ctx context.Context, userID, campaignID primitive.ObjectID, now time.Time) (bool, error)
}

type ReferralStore interface {
	CreateReferredUser(ctx context.Context, r *models.ReferredUser) error
	ReferredUsers(ctx context.Context, referrerID primitive.ObjectID) ([]models.ReferredUser, error)
	CountActiveReferrals(ctx context.Context, referrerID primitive.ObjectID) (int, error)
	ActivateReferredUser(ctx context.Context, userID primitive.ObjectID) error
	// SyncReferralStatuses marks Active every referral whose user is Active
	SyncReferralStatuses(ctx context.Context) (int, error)
}

type OutboxStore interface {
	// EnqueueRelay returns ErrDuplicate when the dedupe key is taken
	EnqueueRelay(ctx context.Context, a *models.RelayAction) error
	// DueRelayActions returns pending and submitted actions whose
	// nextAttemptAt has passed, oldest first
	DueRelayActions(ctx context.Context, now time.Time, limit int) ([]models.RelayAction, error)
	RelayActionsByStatus(ctx context.Context, status string, limit int) ([]models.RelayAction, error)
	RelayActionByID(ctx context.Context, id primitive.ObjectID) (*models.RelayAction, error)
	UpdateRelayAction(ctx context.Context, a *models.RelayAction) error
}

// Store is the full persistence surface used by the services
type Store interface {
	UserStore
	ProjectStore
	AdminStore
	CatalogStore
	CompletionStore
	ReferralStore
	OutboxStore
}
