package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// On-chain relay actions
const (
	ActionJoinCampaign       = "joinCampaign"
	ActionAllowCampaignClaim = "AllowCampaignRewardClaim"
	ActionAllowMint          = "allowUserToMint"
	ActionAllowReferralClaim = "AllowReferralRewardClaim"
)

const (
	RelayStatusPending   = "pending"
	RelayStatusSubmitted = "submitted"
	RelayStatusConfirmed = "confirmed"
	RelayStatusFailed    = "failed"
)

type RelayArgs struct {
	Wallet string `bson:"wallet" json:"wallet"`
	Level  int    `bson:"level,omitempty" json:"level,omitempty"`
}

// RelayAction is an outbox row: an on-chain call the worker must submit
// until it is confirmed or gives up.
type RelayAction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Action        string             `bson:"action" json:"action"`
	Contract      string             `bson:"contract" json:"contract"`
	Args          RelayArgs          `bson:"args" json:"args"`
	DedupeKey     string             `bson:"dedupeKey" json:"dedupeKey"`
	Status        string             `bson:"status" json:"status"`
	Attempts      int                `bson:"attempts" json:"attempts"`
	TxHash        string             `bson:"txHash,omitempty" json:"txHash,omitempty"`
	LastError     string             `bson:"lastError,omitempty" json:"lastError,omitempty"`
	NextAttemptAt time.Time          `bson:"nextAttemptAt" json:"nextAttemptAt"`
	SubmittedAt   *time.Time         `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// GamificationEvent represents a gamification event to broadcast via WebSocket
type GamificationEvent struct {
	Type      string    `json:"type"` // "xp_awarded", "level_up", "campaign_claimed", "referral_claimed"
	UserID    string    `json:"userId"`
	XP        int       `json:"xp,omitempty"`
	NewXP     int       `json:"newXp,omitempty"`
	Level     string    `json:"level,omitempty"`
	Trust     float64   `json:"trust,omitempty"`
	TaskID    string    `json:"taskId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
