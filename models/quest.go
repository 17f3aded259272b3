package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	QuestOneTime = "one-time"
	QuestWeekly  = "weekly"
	QuestDaily   = "daily"
)

// Verification types a quest can require before it is claimable
const (
	VerifyNone        = "none"
	VerifyDiscordJoin = "discord-join"
	VerifyDiscordRole = "discord-role"
	VerifyXConnected  = "x-connected"
)

type Verification struct {
	Type    string `bson:"type" json:"type"`
	GuildID string `bson:"guildId,omitempty" json:"guildId,omitempty"`
	RoleID  string `bson:"roleId,omitempty" json:"roleId,omitempty"`
}

// Quest is a single completable task worth a flat XP reward.
// NoOfQuests counts the mini-quests attached to it.
type Quest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Category     string             `bson:"category" json:"category"`
	Tag          string             `bson:"tag" json:"tag"`
	Kind         string             `bson:"kind" json:"kind"`
	Link         string             `bson:"link,omitempty" json:"link,omitempty"`
	XP           int                `bson:"xp" json:"xp"`
	NoOfQuests   int                `bson:"noOfQuests" json:"noOfQuests"`
	Verification Verification       `bson:"verification" json:"verification"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// MiniQuest is a sub-task of a one-time quest
type MiniQuest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	QuestID   primitive.ObjectID `bson:"questId" json:"questId"`
	Title     string             `bson:"title" json:"title"`
	Link      string             `bson:"link,omitempty" json:"link,omitempty"`
	Tag       string             `bson:"tag" json:"tag"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// EcosystemQuest sends the user to an external dapp and is claimable
// once the dwell timer has elapsed.
type EcosystemQuest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	URL          string             `bson:"url" json:"url"`
	Logo         string             `bson:"logo,omitempty" json:"logo,omitempty"`
	XP           int                `bson:"xp" json:"xp"`
	TimerSeconds int                `bson:"timerSeconds" json:"timerSeconds"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// QuestView is a catalog entry merged with the caller's completion flag
type QuestView struct {
	Quest
	Done bool `json:"done"`
}

type MiniQuestView struct {
	MiniQuest
	Done bool `json:"done"`
}

type EcosystemQuestView struct {
	EcosystemQuest
	Done  bool       `json:"done"`
	Timer *time.Time `json:"timer,omitempty"`
}
