package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CampaignActive = "Active"
	CampaignClosed = "Closed"
)

// CampaignReward is the flat reward each participant claims
type CampaignReward struct {
	XP    int     `bson:"xp" json:"xp"`
	Trust float64 `bson:"trust" json:"trust"`
}

// Campaign bundles campaign quests behind a pooled reward
type Campaign struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProjectID           primitive.ObjectID `bson:"projectId" json:"projectId"`
	Title               string             `bson:"title" json:"title"`
	Description         string             `bson:"description" json:"description"`
	CoverImage          string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	ContractAddress     string             `bson:"contractAddress,omitempty" json:"contractAddress,omitempty"`
	Reward              CampaignReward     `bson:"reward" json:"reward"`
	TotalXPAvailable    int                `bson:"totalXpAvailable" json:"totalXpAvailable"`
	XPClaimed           int                `bson:"xpClaimed" json:"xpClaimed"`
	TotalTrustAvailable float64            `bson:"totalTrustAvailable" json:"totalTrustAvailable"`
	TrustClaimed        float64            `bson:"trustClaimed" json:"trustClaimed"`
	Participants        int                `bson:"participants" json:"participants"`
	NoOfQuests          int                `bson:"noOfQuests" json:"noOfQuests"`
	Status              string             `bson:"status" json:"status"`
	StartsAt            time.Time          `bson:"startsAt" json:"startsAt"`
	EndsAt              *time.Time         `bson:"endsAt,omitempty" json:"endsAt,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
}

// Ended reports whether the campaign no longer accepts participation
func (c *Campaign) Ended(now time.Time) bool {
	if c.Status == CampaignClosed {
		return true
	}
	return c.EndsAt != nil && !now.Before(*c.EndsAt)
}

// CampaignUpdate carries the mutable campaign fields; nil means unchanged
type CampaignUpdate struct {
	Title           *string    `bson:"title,omitempty" json:"title"`
	Description     *string    `bson:"description,omitempty" json:"description"`
	CoverImage      *string    `bson:"coverImage,omitempty" json:"coverImage"`
	ContractAddress *string    `bson:"contractAddress,omitempty" json:"contractAddress"`
	EndsAt          *time.Time `bson:"endsAt,omitempty" json:"endsAt"`
}

// CampaignQuest is a sub-task of a campaign
type CampaignQuest struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CampaignID primitive.ObjectID `bson:"campaignId" json:"campaignId"`
	Title      string             `bson:"title" json:"title"`
	Link       string             `bson:"link,omitempty" json:"link,omitempty"`
	Tag        string             `bson:"tag" json:"tag"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// CampaignCompletion tracks one user's progress through a campaign:
// joined, then QuestsCompleted, then CampaignCompleted.
type CampaignCompletion struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	CampaignID        primitive.ObjectID `bson:"campaignId" json:"campaignId"`
	QuestsCompleted   bool               `bson:"questsCompleted" json:"questsCompleted"`
	CampaignCompleted bool               `bson:"campaignCompleted" json:"campaignCompleted"`
	JoinedAt          time.Time          `bson:"joinedAt" json:"joinedAt"`
	ClaimedAt         *time.Time         `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
}

type CampaignView struct {
	Campaign
	Joined            bool `json:"joined"`
	QuestsCompleted   bool `json:"questsCompleted"`
	CampaignCompleted bool `json:"campaignCompleted"`
}

type CampaignQuestView struct {
	CampaignQuest
	Done bool `json:"done"`
}
