package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// User defines a platform participant
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username           string             `bson:"username" json:"username"`
	PasswordHash       string             `bson:"passwordHash,omitempty" json:"-"`
	WalletAddress      string             `bson:"walletAddress,omitempty" json:"walletAddress,omitempty"`
	XP                 int                `bson:"xp" json:"xp"`
	Level              string             `bson:"level" json:"level"`
	Tier               string             `bson:"tier" json:"tier"`
	Badges             []int              `bson:"badges" json:"badges"`
	Referral           Referral           `bson:"referral" json:"referral"`
	RefRewardClaimed   bool               `bson:"refRewardClaimed" json:"refRewardClaimed"`
	RefRewardAllowed   bool               `bson:"refRewardAllowed" json:"refRewardAllowed"`
	Streak             int                `bson:"streak" json:"streak"`
	LongestStreak      int                `bson:"longestStreak" json:"longestStreak"`
	LastCheckIn        *time.Time         `bson:"lastCheckIn,omitempty" json:"lastCheckIn,omitempty"`
	Status             string             `bson:"status" json:"status"`
	TrustEarned        float64            `bson:"trustEarned" json:"trustEarned"`
	QuestsCompleted    int                `bson:"questsCompleted" json:"questsCompleted"`
	CampaignsCompleted int                `bson:"campaignsCompleted" json:"campaignsCompleted"`
	Socials            Socials            `bson:"socials" json:"socials"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Referral is the referrer-side bookkeeping embedded in a user
type Referral struct {
	Code          string `bson:"code" json:"code"`
	ReferredCount int    `bson:"referredCount" json:"referredCount"`
	XP            int    `bson:"xp" json:"xp"`
}

type Socials struct {
	Discord *SocialAccount `bson:"discord,omitempty" json:"discord,omitempty"`
	X       *SocialAccount `bson:"x,omitempty" json:"x,omitempty"`
}

type SocialAccount struct {
	ID          string    `bson:"id" json:"id"`
	Username    string    `bson:"username" json:"username"`
	ConnectedAt time.Time `bson:"connectedAt" json:"connectedAt"`
}

// HasBadge reports whether the badge for level has been minted
func (u *User) HasBadge(level int) bool {
	for _, b := range u.Badges {
		if b == level {
			return true
		}
	}
	return false
}

// ReferredUser links a referrer to a user who signed up with their code.
// Status mirrors the referred user's own status.
type ReferredUser struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ReferrerID primitive.ObjectID `bson:"referrerId" json:"referrerId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Username   string             `bson:"username" json:"username"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// Reward is a delta applied to a user's ledger
type Reward struct {
	XP        int
	Trust     float64
	Quests    int
	Campaigns int
}
