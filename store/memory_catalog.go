package store

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/models"
)

func (m *Memory) CreateQuest(_ context.Context, q *models.Quest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	assignID(&q.ID)
	cp := *q
	m.quests[q.ID] = &cp
	return nil
}

func (m *Memory) QuestByID(_ context.Context, id primitive.ObjectID) (*models.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *Memory) ListQuests(_ context.Context) ([]models.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Quest, 0, len(m.quests))
	for _, q := range m.quests {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) AddMiniQuest(_ context.Context, mq *models.MiniQuest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, ok := m.quests[mq.QuestID]
	if !ok {
		return ErrNotFound
	}
	assignID(&mq.ID)
	cp := *mq
	m.miniQuests[mq.ID] = &cp
	parent.NoOfQuests++
	return nil
}

func (m *Memory) MiniQuestByID(_ context.Context, id primitive.ObjectID) (*models.MiniQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mq, ok := m.miniQuests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *mq
	return &cp, nil
}

func (m *Memory) MiniQuestsFor(_ context.Context, questID primitive.ObjectID) ([]models.MiniQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.MiniQuest{}
	for _, mq := range m.miniQuests {
		if mq.QuestID == questID {
			out = append(out, *mq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateEcosystemQuest(_ context.Context, q *models.EcosystemQuest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	assignID(&q.ID)
	cp := *q
	m.ecosystemQuests[q.ID] = &cp
	return nil
}

func (m *Memory) EcosystemQuestByID(_ context.Context, id primitive.ObjectID) (*models.EcosystemQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.ecosystemQuests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *Memory) ListEcosystemQuests(_ context.Context) ([]models.EcosystemQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.EcosystemQuest, 0, len(m.ecosystemQuests))
	for _, q := range m.ecosystemQuests {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateCampaign(_ context.Context, c *models.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	assignID(&c.ID)
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *Memory) CampaignByID(_ context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) campaignsWhere(match func(*models.Campaign) bool) []models.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Campaign{}
	for _, c := range m.campaigns {
		if match(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Memory) ListCampaigns(_ context.Context) ([]models.Campaign, error) {
	return m.campaignsWhere(func(*models.Campaign) bool { return true }), nil
}

func (m *Memory) CampaignsByProject(_ context.Context, projectID primitive.ObjectID) ([]models.Campaign, error) {
	return m.campaignsWhere(func(c *models.Campaign) bool { return c.ProjectID == projectID }), nil
}

func (m *Memory) mutateCampaign(id primitive.ObjectID, fn func(*models.Campaign)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return ErrNotFound
	}
	fn(c)
	return nil
}

func (m *Memory) UpdateCampaign(_ context.Context, id primitive.ObjectID, upd models.CampaignUpdate) error {
	return m.mutateCampaign(id, func(c *models.Campaign) {
		if upd.Title != nil {
			c.Title = *upd.Title
		}
		if upd.Description != nil {
			c.Description = *upd.Description
		}
		if upd.CoverImage != nil {
			c.CoverImage = *upd.CoverImage
		}
		if upd.ContractAddress != nil {
			c.ContractAddress = *upd.ContractAddress
		}
		if upd.EndsAt != nil {
			t := *upd.EndsAt
			c.EndsAt = &t
		}
	})
}

func (m *Memory) CloseCampaign(_ context.Context, id primitive.ObjectID) error {
	return m.mutateCampaign(id, func(c *models.Campaign) { c.Status = models.CampaignClosed })
}

func (m *Memory) AddCampaignQuest(_ context.Context, cq *models.CampaignQuest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[cq.CampaignID]
	if !ok {
		return ErrNotFound
	}
	assignID(&cq.ID)
	cp := *cq
	m.campaignQuests[cq.ID] = &cp
	c.NoOfQuests++
	return nil
}

func (m *Memory) CampaignQuestByID(_ context.Context, id primitive.ObjectID) (*models.CampaignQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cq, ok := m.campaignQuests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *cq
	return &cp, nil
}

func (m *Memory) CampaignQuestsFor(_ context.Context, campaignID primitive.ObjectID) ([]models.CampaignQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CampaignQuest{}
	for _, cq := range m.campaignQuests {
		if cq.CampaignID == campaignID {
			out = append(out, *cq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) IncParticipants(_ context.Context, campaignID primitive.ObjectID) error {
	return m.mutateCampaign(campaignID, func(c *models.Campaign) { c.Participants++ })
}

func (m *Memory) IncCampaignClaimed(_ context.Context, campaignID primitive.ObjectID, xp int, trust float64) error {
	return m.mutateCampaign(campaignID, func(c *models.Campaign) {
		c.XPClaimed += xp
		c.TrustClaimed += trust
	})
}
