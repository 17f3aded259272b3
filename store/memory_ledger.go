package store

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/models"
)

// expire drops a completion whose TTL has passed, mirroring the Mongo TTL index
func (m *Memory) expire(key completionKey) *models.Completion {
	c, ok := m.completions[key]
	if !ok {
		return nil
	}
	if c.ExpiresAt != nil && !m.Now().Before(*c.ExpiresAt) {
		delete(m.completions, key)
		return nil
	}
	return c
}

func (m *Memory) InsertCompletion(_ context.Context, kind models.TaskKind, c *models.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := completionKey{kind, c.UserID, c.TaskID}
	if m.expire(key) != nil {
		return ErrDuplicate
	}
	assignID(&c.ID)
	cp := *c
	m.completions[key] = &cp
	return nil
}

func (m *Memory) CompletionFor(_ context.Context, kind models.TaskKind, userID, taskID primitive.ObjectID) (*models.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.expire(completionKey{kind, userID, taskID})
	if c == nil {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) MarkCompletionDone(_ context.Context, kind models.TaskKind, userID, taskID primitive.ObjectID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.expire(completionKey{kind, userID, taskID})
	if c == nil || c.Done || c.Timer == nil || c.Timer.After(now) {
		return false, nil
	}
	c.Done = true
	return true, nil
}

func (m *Memory) CountCompletions(_ context.Context, kind models.TaskKind, userID, parentID primitive.ObjectID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key := range m.completions {
		if key.kind != kind || key.userID != userID {
			continue
		}
		if c := m.expire(key); c != nil && c.Done && c.ParentID == parentID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CompletionsForUser(_ context.Context, kind models.TaskKind, userID primitive.ObjectID) ([]models.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Completion{}
	for key := range m.completions {
		if key.kind != kind || key.userID != userID {
			continue
		}
		if c := m.expire(key); c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// Campaign progress

func (m *Memory) JoinCampaign(_ context.Context, cc *models.CampaignCompletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey{cc.UserID, cc.CampaignID}
	if _, ok := m.campaignJoins[key]; ok {
		return ErrDuplicate
	}
	assignID(&cc.ID)
	cp := *cc
	m.campaignJoins[key] = &cp
	return nil
}

func (m *Memory) CampaignCompletionFor(_ context.Context, userID, campaignID primitive.ObjectID) (*models.CampaignCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.campaignJoins[pairKey{userID, campaignID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *cc
	return &cp, nil
}

func (m *Memory) CampaignCompletionsForUser(_ context.Context, userID primitive.ObjectID) ([]models.CampaignCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CampaignCompletion{}
	for key, cc := range m.campaignJoins {
		if key.a == userID {
			out = append(out, *cc)
		}
	}
	return out, nil
}

func (m *Memory) MarkCampaignQuestsCompleted(_ context.Context, userID, campaignID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.campaignJoins[pairKey{userID, campaignID}]
	if !ok || cc.QuestsCompleted {
		return false, nil
	}
	cc.QuestsCompleted = true
	return true, nil
}

func (m *Memory) MarkCampaignClaimed(_ context.Context, userID, campaignID primitive.ObjectID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.campaignJoins[pairKey{userID, campaignID}]
	if !ok || !cc.QuestsCompleted || cc.CampaignCompleted {
		return false, nil
	}
	cc.CampaignCompleted = true
	cc.ClaimedAt = &now
	return true, nil
}

// Referrals

func (m *Memory) CreateReferredUser(_ context.Context, r *models.ReferredUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.referred[r.UserID]; ok {
		return ErrDuplicate
	}
	assignID(&r.ID)
	cp := *r
	m.referred[r.UserID] = &cp
	return nil
}

func (m *Memory) ReferredUsers(_ context.Context, referrerID primitive.ObjectID) ([]models.ReferredUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ReferredUser{}
	for _, r := range m.referred {
		if r.ReferrerID == referrerID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CountActiveReferrals(_ context.Context, referrerID primitive.ObjectID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.referred {
		if r.ReferrerID == referrerID && r.Status == models.StatusActive {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ActivateReferredUser(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.referred[userID]; ok {
		r.Status = models.StatusActive
	}
	return nil
}

func (m *Memory) SyncReferralStatuses(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for userID, r := range m.referred {
		if r.Status == models.StatusActive {
			continue
		}
		if u, ok := m.users[userID]; ok && u.Status == models.StatusActive {
			r.Status = models.StatusActive
			n++
		}
	}
	return n, nil
}

// Outbox

func (m *Memory) EnqueueRelay(_ context.Context, a *models.RelayAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.relay {
		if existing.DedupeKey == a.DedupeKey {
			return ErrDuplicate
		}
	}
	assignID(&a.ID)
	cp := *a
	m.relay[a.ID] = &cp
	return nil
}

func (m *Memory) DueRelayActions(_ context.Context, now time.Time, limit int) ([]models.RelayAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.RelayAction{}
	for _, a := range m.relay {
		open := a.Status == models.RelayStatusSubmitted || a.Status == models.RelayStatusPending
		if open && !a.NextAttemptAt.After(now) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextAttemptAt.Before(out[j].NextAttemptAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) RelayActionsByStatus(_ context.Context, status string, limit int) ([]models.RelayAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.RelayAction{}
	for _, a := range m.relay {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) RelayActionByID(_ context.Context, id primitive.ObjectID) (*models.RelayAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.relay[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) UpdateRelayAction(_ context.Context, a *models.RelayAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.relay[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	m.relay[a.ID] = &cp
	return nil
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Mongo)(nil)
)
