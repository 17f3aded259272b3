package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskKind selects the completion ledger a record lives in
type TaskKind string

const (
	KindQuest          TaskKind = "quest"
	KindMiniQuest      TaskKind = "miniQuest"
	KindCampaignQuest  TaskKind = "campaignQuest"
	KindEcosystemQuest TaskKind = "ecosystemQuest"
)

// Collection returns the MongoDB collection holding completions of this kind
func (k TaskKind) Collection() string {
	switch k {
	case KindQuest:
		return "questCompleted"
	case KindMiniQuest:
		return "miniQuestCompleted"
	case KindCampaignQuest:
		return "campaignQuestCompleted"
	case KindEcosystemQuest:
		return "ecosystemQuestCompleted"
	}
	return ""
}

var TaskKinds = []TaskKind{KindQuest, KindMiniQuest, KindCampaignQuest, KindEcosystemQuest}

// Completion is one row per (user, task). Its presence with Done set is the
// only gate against claiming twice.
type Completion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	TaskID    primitive.ObjectID `bson:"taskId" json:"taskId"`
	ParentID  primitive.ObjectID `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Done      bool               `bson:"done" json:"done"`
	Timer     *time.Time         `bson:"timer,omitempty" json:"timer,omitempty"`
	ExpiresAt *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
