package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexSpec() map[string][]mongo.IndexModel {
	userTask := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "taskId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	userParent := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "parentId", Value: 1}},
	}
	return map[string][]mongo.IndexModel{
		Users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "walletAddress", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "referral.code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "xp", Value: -1}}},
		},
		Projects: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		Admins: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		AdminInvites: {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		MiniQuests: {
			{Keys: bson.D{{Key: "questId", Value: 1}}},
		},
		CampaignQuests: {
			{Keys: bson.D{{Key: "campaignId", Value: 1}}},
		},
		Campaigns: {
			{Keys: bson.D{{Key: "projectId", Value: 1}}},
		},
		QuestCompleted: {
			userTask,
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		MiniQuestCompleted:      {userTask, userParent},
		CampaignQuestCompleted:  {userTask, userParent},
		EcosystemQuestCompleted: {userTask},
		CampaignCompleted: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "campaignId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ReferredUsers: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "referrerId", Value: 1}, {Key: "status", Value: 1}}},
		},
		RelayActions: {
			{Keys: bson.D{{Key: "dedupeKey", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "nextAttemptAt", Value: 1}}},
		},
	}
}

// EnsureIndexes creates the unique and TTL indexes the ledgers rely on
// for exactly-once writes. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	for coll, models := range indexSpec() {
		if _, err := database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
