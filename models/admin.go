package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin represents a platform operator
type Admin struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"` // Never return password in JSON
	Role         string             `bson:"role" json:"role"`
	Name         string             `bson:"name" json:"name"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AdminInvite is a one-time token mailed to a prospective admin
type AdminInvite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Token     string             `bson:"token" json:"-"`
	InvitedBy primitive.ObjectID `bson:"invitedBy" json:"invitedBy"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	UsedAt    *time.Time         `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Project is an organisation account that runs campaigns.
// XPAllocated is a single-use allowance consumed by the next campaign.
type Project struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	WalletAddress  string             `bson:"walletAddress,omitempty" json:"walletAddress,omitempty"`
	XPAllocated    int                `bson:"xpAllocated" json:"xpAllocated"`
	TrustAllocated float64            `bson:"trustAllocated" json:"trustAllocated"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
