package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexura/db"
	"nexura/models"
)

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

func (m *Mongo) CreateQuest(ctx context.Context, q *models.Quest) error {
	id, err := m.insert(ctx, db.Quests, q)
	if err != nil {
		return err
	}
	q.ID = id
	return nil
}

func (m *Mongo) QuestByID(ctx context.Context, id primitive.ObjectID) (*models.Quest, error) {
	var q models.Quest
	if err := m.findOne(ctx, db.Quests, bson.M{"_id": id}, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (m *Mongo) ListQuests(ctx context.Context) ([]models.Quest, error) {
	quests := []models.Quest{}
	if err := m.findAll(ctx, db.Quests, bson.M{}, &quests, newestFirst); err != nil {
		return nil, err
	}
	return quests, nil
}

func (m *Mongo) AddMiniQuest(ctx context.Context, mq *models.MiniQuest) error {
	id, err := m.insert(ctx, db.MiniQuests, mq)
	if err != nil {
		return err
	}
	mq.ID = id
	return m.updateByID(ctx, db.Quests, mq.QuestID, bson.M{"$inc": bson.M{"noOfQuests": 1}})
}

func (m *Mongo) MiniQuestByID(ctx context.Context, id primitive.ObjectID) (*models.MiniQuest, error) {
	var mq models.MiniQuest
	if err := m.findOne(ctx, db.MiniQuests, bson.M{"_id": id}, &mq); err != nil {
		return nil, err
	}
	return &mq, nil
}

func (m *Mongo) MiniQuestsFor(ctx context.Context, questID primitive.ObjectID) ([]models.MiniQuest, error) {
	out := []models.MiniQuest{}
	if err := m.findAll(ctx, db.MiniQuests, bson.M{"questId": questID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) CreateEcosystemQuest(ctx context.Context, q *models.EcosystemQuest) error {
	id, err := m.insert(ctx, db.EcosystemQuests, q)
	if err != nil {
		return err
	}
	q.ID = id
	return nil
}

func (m *Mongo) EcosystemQuestByID(ctx context.Context, id primitive.ObjectID) (*models.EcosystemQuest, error) {
	var q models.EcosystemQuest
	if err := m.findOne(ctx, db.EcosystemQuests, bson.M{"_id": id}, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (m *Mongo) ListEcosystemQuests(ctx context.Context) ([]models.EcosystemQuest, error) {
	out := []models.EcosystemQuest{}
	if err := m.findAll(ctx, db.EcosystemQuests, bson.M{}, &out, newestFirst); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	id, err := m.insert(ctx, db.Campaigns, c)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (m *Mongo) CampaignByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	var c models.Campaign
	if err := m.findOne(ctx, db.Campaigns, bson.M{"_id": id}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *Mongo) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	out := []models.Campaign{}
	if err := m.findAll(ctx, db.Campaigns, bson.M{}, &out, newestFirst); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) CampaignsByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Campaign, error) {
	out := []models.Campaign{}
	if err := m.findAll(ctx, db.Campaigns, bson.M{"projectId": projectID}, &out, newestFirst); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) UpdateCampaign(ctx context.Context, id primitive.ObjectID, upd models.CampaignUpdate) error {
	set, err := bson.Marshal(upd)
	if err != nil {
		return err
	}
	var doc bson.M
	if err := bson.Unmarshal(set, &doc); err != nil {
		return err
	}
	if len(doc) == 0 {
		return nil
	}
	return m.updateByID(ctx, db.Campaigns, id, bson.M{"$set": doc})
}

func (m *Mongo) CloseCampaign(ctx context.Context, id primitive.ObjectID) error {
	return m.updateByID(ctx, db.Campaigns, id, bson.M{"$set": bson.M{"status": models.CampaignClosed}})
}

func (m *Mongo) AddCampaignQuest(ctx context.Context, cq *models.CampaignQuest) error {
	id, err := m.insert(ctx, db.CampaignQuests, cq)
	if err != nil {
		return err
	}
	cq.ID = id
	return m.updateByID(ctx, db.Campaigns, cq.CampaignID, bson.M{"$inc": bson.M{"noOfQuests": 1}})
}

func (m *Mongo) CampaignQuestByID(ctx context.Context, id primitive.ObjectID) (*models.CampaignQuest, error) {
	var cq models.CampaignQuest
	if err := m.findOne(ctx, db.CampaignQuests, bson.M{"_id": id}, &cq); err != nil {
		return nil, err
	}
	return &cq, nil
}

func (m *Mongo) CampaignQuestsFor(ctx context.Context, campaignID primitive.ObjectID) ([]models.CampaignQuest, error) {
	out := []models.CampaignQuest{}
	if err := m.findAll(ctx, db.CampaignQuests, bson.M{"campaignId": campaignID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) IncParticipants(ctx context.Context, campaignID primitive.ObjectID) error {
	return m.updateByID(ctx, db.Campaigns, campaignID, bson.M{"$inc": bson.M{"participants": 1}})
}

func (m *Mongo) IncCampaignClaimed(ctx context.Context, campaignID primitive.ObjectID, xp int, trust float64) error {
	return m.updateByID(ctx, db.Campaigns, campaignID, bson.M{"$inc": bson.M{"xpClaimed": xp, "trustClaimed": trust}})
}
