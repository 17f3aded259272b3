package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/models"
)

type completionKey struct {
	kind   models.TaskKind
	userID primitive.ObjectID
	taskID primitive.ObjectID
}

type pairKey struct {
	a, b primitive.ObjectID
}

// Memory implements Store in process. It honours the same uniqueness rules
// as the Mongo indexes and is used for local runs and tests.
type Memory struct {
	mu sync.Mutex

	// Now drives TTL expiry of completion records
	Now func() time.Time

	users           map[primitive.ObjectID]*models.User
	projects        map[primitive.ObjectID]*models.Project
	admins          map[primitive.ObjectID]*models.Admin
	invites         map[string]*models.AdminInvite
	quests          map[primitive.ObjectID]*models.Quest
	miniQuests      map[primitive.ObjectID]*models.MiniQuest
	ecosystemQuests map[primitive.ObjectID]*models.EcosystemQuest
	campaigns       map[primitive.ObjectID]*models.Campaign
	campaignQuests  map[primitive.ObjectID]*models.CampaignQuest
	completions     map[completionKey]*models.Completion
	campaignJoins   map[pairKey]*models.CampaignCompletion
	referred        map[primitive.ObjectID]*models.ReferredUser
	relay           map[primitive.ObjectID]*models.RelayAction
}

func NewMemory() *Memory {
	return &Memory{
		Now:             time.Now,
		users:           map[primitive.ObjectID]*models.User{},
		projects:        map[primitive.ObjectID]*models.Project{},
		admins:          map[primitive.ObjectID]*models.Admin{},
		invites:         map[string]*models.AdminInvite{},
		quests:          map[primitive.ObjectID]*models.Quest{},
		miniQuests:      map[primitive.ObjectID]*models.MiniQuest{},
		ecosystemQuests: map[primitive.ObjectID]*models.EcosystemQuest{},
		campaigns:       map[primitive.ObjectID]*models.Campaign{},
		campaignQuests:  map[primitive.ObjectID]*models.CampaignQuest{},
		completions:     map[completionKey]*models.Completion{},
		campaignJoins:   map[pairKey]*models.CampaignCompletion{},
		referred:        map[primitive.ObjectID]*models.ReferredUser{},
		relay:           map[primitive.ObjectID]*models.RelayAction{},
	}
}

func assignID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// Users

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Badges = append([]int{}, u.Badges...)
	return &cp
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username ||
			(u.WalletAddress != "" && existing.WalletAddress == u.WalletAddress) ||
			existing.Referral.Code == u.Referral.Code {
			return ErrDuplicate
		}
	}
	assignID(&u.ID)
	m.users[u.ID] = copyUser(u)
	return nil
}

func (m *Memory) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *Memory) findUser(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.Username == username })
}

func (m *Memory) UserByWallet(_ context.Context, wallet string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return wallet != "" && u.WalletAddress == wallet })
}

func (m *Memory) UserByReferralCode(_ context.Context, code string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.Referral.Code == code })
}

func (m *Memory) mutateUser(id primitive.ObjectID, fn func(*models.User) bool) (*models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	changed := fn(u)
	if changed {
		u.UpdatedAt = time.Now()
	}
	return copyUser(u), changed, nil
}

func (m *Memory) GrantReward(_ context.Context, id primitive.ObjectID, r models.Reward) (*models.User, error) {
	u, _, err := m.mutateUser(id, func(u *models.User) bool {
		u.XP += r.XP
		u.TrustEarned += r.Trust
		u.QuestsCompleted += r.Quests
		u.CampaignsCompleted += r.Campaigns
		return true
	})
	return u, err
}

func (m *Memory) CreditReferral(_ context.Context, referrerID primitive.ObjectID, xp int) (*models.User, error) {
	u, _, err := m.mutateUser(referrerID, func(u *models.User) bool {
		u.XP += xp
		u.Referral.XP += xp
		u.Referral.ReferredCount++
		return true
	})
	return u, err
}

func (m *Memory) SetLevel(_ context.Context, id primitive.ObjectID, level, tier string) error {
	_, _, err := m.mutateUser(id, func(u *models.User) bool {
		u.Level, u.Tier = level, tier
		return true
	})
	return err
}

func (m *Memory) ActivateUser(_ context.Context, id primitive.ObjectID) (bool, error) {
	_, changed, err := m.mutateUser(id, func(u *models.User) bool {
		if u.Status == models.StatusActive {
			return false
		}
		u.Status = models.StatusActive
		return true
	})
	return changed, err
}

func (m *Memory) MarkRefRewardClaimed(_ context.Context, id primitive.ObjectID, trust float64) (bool, error) {
	_, changed, err := m.mutateUser(id, func(u *models.User) bool {
		if u.RefRewardClaimed {
			return false
		}
		u.RefRewardClaimed = true
		u.TrustEarned += trust
		return true
	})
	return changed, err
}

func (m *Memory) MarkRefRewardAllowed(_ context.Context, id primitive.ObjectID) (bool, error) {
	_, changed, err := m.mutateUser(id, func(u *models.User) bool {
		if u.RefRewardAllowed {
			return false
		}
		u.RefRewardAllowed = true
		return true
	})
	return changed, err
}

func (m *Memory) AddBadge(_ context.Context, id primitive.ObjectID, level int) (bool, error) {
	_, changed, err := m.mutateUser(id, func(u *models.User) bool {
		if u.HasBadge(level) {
			return false
		}
		u.Badges = append(u.Badges, level)
		return true
	})
	return changed, err
}

func (m *Memory) CheckIn(_ context.Context, id primitive.ObjectID, prev *time.Time, at time.Time, streak, longest int) (bool, error) {
	_, changed, err := m.mutateUser(id, func(u *models.User) bool {
		switch {
		case prev == nil && u.LastCheckIn != nil:
			return false
		case prev != nil && (u.LastCheckIn == nil || !u.LastCheckIn.Equal(*prev)):
			return false
		}
		u.LastCheckIn = &at
		u.Streak = streak
		u.LongestStreak = longest
		return true
	})
	return changed, err
}

func (m *Memory) SetSocial(_ context.Context, id primitive.ObjectID, provider string, acct models.SocialAccount) error {
	_, _, err := m.mutateUser(id, func(u *models.User) bool {
		a := acct
		switch provider {
		case "discord":
			u.Socials.Discord = &a
		case "x":
			u.Socials.X = &a
		}
		return true
	})
	return err
}

func (m *Memory) TopUsers(_ context.Context, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Projects

func (m *Memory) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.projects {
		if existing.Name == p.Name || existing.Email == p.Email {
			return ErrDuplicate
		}
	}
	assignID(&p.ID)
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *Memory) ProjectByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) ProjectByEmail(_ context.Context, email string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) AllocateXP(_ context.Context, id primitive.ObjectID, xp int, trust float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.XPAllocated += xp
	p.TrustAllocated += trust
	return nil
}

func (m *Memory) ConsumeXPAllocation(_ context.Context, id primitive.ObjectID) (int, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.XPAllocated <= 0 {
		return 0, 0, nil
	}
	xp, trust := p.XPAllocated, p.TrustAllocated
	p.XPAllocated, p.TrustAllocated = 0, 0
	return xp, trust, nil
}

// Admins

func (m *Memory) CreateAdmin(_ context.Context, a *models.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.admins {
		if existing.Email == a.Email {
			return ErrDuplicate
		}
	}
	assignID(&a.ID)
	cp := *a
	m.admins[a.ID] = &cp
	return nil
}

func (m *Memory) AdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateInvite(_ context.Context, inv *models.AdminInvite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invites[inv.Token]; ok {
		return ErrDuplicate
	}
	assignID(&inv.ID)
	cp := *inv
	m.invites[inv.Token] = &cp
	return nil
}

func (m *Memory) UseInvite(_ context.Context, token string, now time.Time) (*models.AdminInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[token]
	if !ok || inv.UsedAt != nil || !now.Before(inv.ExpiresAt) {
		return nil, ErrNotFound
	}
	inv.UsedAt = &now
	cp := *inv
	return &cp, nil
}
