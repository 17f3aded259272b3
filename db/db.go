package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexura/pkg/log"
)

// Collection names
const (
	Users                   = "users"
	Projects                = "projects"
	Admins                  = "admins"
	AdminInvites            = "adminInvites"
	Quests                  = "quests"
	MiniQuests              = "miniQuests"
	EcosystemQuests         = "ecosystemQuests"
	Campaigns               = "campaigns"
	CampaignQuests          = "campaignQuests"
	CampaignCompleted       = "campaignCompleted"
	ReferredUsers           = "referredUsers"
	RelayActions            = "relayActions"
	QuestCompleted          = "questCompleted"
	MiniQuestCompleted      = "miniQuestCompleted"
	CampaignQuestCompleted  = "campaignQuestCompleted"
	EcosystemQuestCompleted = "ecosystemQuestCompleted"
)

// extractDBName parses the database name from the URI, defaulting to "nexura"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "nexura"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return "nexura"
}

// ConnectMongoDB establishes a connection to MongoDB using the provided URI
func ConnectMongoDB(ctx context.Context, uri string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	log.Infof("Using database: %s", dbName)
	return client, client.Database(dbName), nil
}
