package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/internal/metrics"
	"nexura/models"
	"nexura/store"
)

type CampaignInput struct {
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description"`
	CoverImage      string     `json:"coverImage"`
	ContractAddress string     `json:"contractAddress"`
	RewardXP        int        `json:"rewardXp" binding:"gte=0"`
	RewardTrust     float64    `json:"rewardTrust" binding:"gte=0"`
	StartsAt        *time.Time `json:"startsAt"`
	EndsAt          *time.Time `json:"endsAt"`
}

type TaskInput struct {
	Title string `json:"title" binding:"required"`
	Link  string `json:"link"`
	Tag   string `json:"tag"`
}

// CreateCampaign opens a campaign funded by the project's whole XP allocation
func (s *Service) CreateCampaign(ctx context.Context, projectID primitive.ObjectID, in CampaignInput) (*models.Campaign, error) {
	if _, err := s.store.ProjectByID(ctx, projectID); err != nil {
		return nil, lookup(err, "project")
	}
	now := s.now()
	if in.EndsAt != nil && !in.EndsAt.After(now) {
		return nil, badRequest("endsAt must be in the future")
	}

	xp, trust, err := s.store.ConsumeXPAllocation(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if xp == 0 {
		return nil, forbidden("no xp allocated")
	}

	c := &models.Campaign{
		ProjectID:           projectID,
		Title:               in.Title,
		Description:         in.Description,
		CoverImage:          in.CoverImage,
		ContractAddress:     in.ContractAddress,
		Reward:              models.CampaignReward{XP: in.RewardXP, Trust: in.RewardTrust},
		TotalXPAvailable:    xp,
		TotalTrustAvailable: trust,
		Status:              models.CampaignActive,
		StartsAt:            now,
		EndsAt:              in.EndsAt,
		CreatedAt:           now,
	}
	if in.StartsAt != nil {
		c.StartsAt = *in.StartsAt
	}
	if err := s.store.CreateCampaign(ctx, c); err != nil {
		// hand the allowance back so the project can retry
		logFailure("restore allocation", s.store.AllocateXP(ctx, projectID, xp, trust))
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return c, nil
}

// ownedCampaign loads a campaign and checks it belongs to projectID
func (s *Service) ownedCampaign(ctx context.Context, projectID, campaignID primitive.ObjectID) (*models.Campaign, error) {
	c, err := s.store.CampaignByID(ctx, campaignID)
	if err != nil {
		return nil, lookup(err, "campaign")
	}
	if c.ProjectID != projectID {
		return nil, forbidden("campaign belongs to another project")
	}
	return c, nil
}

func (s *Service) AddCampaignQuest(ctx context.Context, projectID, campaignID primitive.ObjectID, in TaskInput) (*models.CampaignQuest, error) {
	c, err := s.ownedCampaign(ctx, projectID, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == models.CampaignClosed {
		return nil, forbidden("campaign closed")
	}
	cq := &models.CampaignQuest{
		CampaignID: campaignID,
		Title:      in.Title,
		Link:       in.Link,
		Tag:        in.Tag,
		CreatedAt:  s.now(),
	}
	if err := s.store.AddCampaignQuest(ctx, cq); err != nil {
		return nil, lookup(err, "campaign")
	}
	return cq, nil
}

func (s *Service) UpdateCampaign(ctx context.Context, projectID, campaignID primitive.ObjectID, upd models.CampaignUpdate) (*models.Campaign, error) {
	if _, err := s.ownedCampaign(ctx, projectID, campaignID); err != nil {
		return nil, err
	}
	if upd.EndsAt != nil && !upd.EndsAt.After(s.now()) {
		return nil, badRequest("endsAt must be in the future")
	}
	if err := s.store.UpdateCampaign(ctx, campaignID, upd); err != nil {
		return nil, lookup(err, "campaign")
	}
	c, err := s.store.CampaignByID(ctx, campaignID)
	return c, lookup(err, "campaign")
}

func (s *Service) CloseCampaign(ctx context.Context, projectID, campaignID primitive.ObjectID) error {
	if _, err := s.ownedCampaign(ctx, projectID, campaignID); err != nil {
		return err
	}
	return lookup(s.store.CloseCampaign(ctx, campaignID), "campaign")
}

func (s *Service) ProjectCampaigns(ctx context.Context, projectID primitive.ObjectID) ([]models.Campaign, error) {
	return s.store.CampaignsByProject(ctx, projectID)
}

// Campaigns lists every campaign with the caller's progress flags
func (s *Service) Campaigns(ctx context.Context, userID primitive.ObjectID) ([]models.CampaignView, error) {
	campaigns, err := s.store.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	progress := map[primitive.ObjectID]models.CampaignCompletion{}
	if !userID.IsZero() {
		joins, err := s.store.CampaignCompletionsForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, j := range joins {
			progress[j.CampaignID] = j
		}
	}
	views := make([]models.CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		p, joined := progress[c.ID]
		views = append(views, models.CampaignView{
			Campaign:          c,
			Joined:            joined,
			QuestsCompleted:   p.QuestsCompleted,
			CampaignCompleted: p.CampaignCompleted,
		})
	}
	return views, nil
}

// Campaign returns one campaign and its quests with the caller's flags
func (s *Service) Campaign(ctx context.Context, userID, campaignID primitive.ObjectID) (*models.CampaignView, []models.CampaignQuestView, error) {
	c, err := s.store.CampaignByID(ctx, campaignID)
	if err != nil {
		return nil, nil, lookup(err, "campaign")
	}
	view := &models.CampaignView{Campaign: *c}
	if !userID.IsZero() {
		cc, err := s.store.CampaignCompletionFor(ctx, userID, campaignID)
		switch {
		case err == nil:
			view.Joined = true
			view.QuestsCompleted = cc.QuestsCompleted
			view.CampaignCompleted = cc.CampaignCompleted
		case !errors.Is(err, store.ErrNotFound):
			return nil, nil, err
		}
	}

	quests, err := s.store.CampaignQuestsFor(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	done, err := s.doneSet(ctx, models.KindCampaignQuest, userID)
	if err != nil {
		return nil, nil, err
	}
	qviews := make([]models.CampaignQuestView, 0, len(quests))
	for _, q := range quests {
		qviews = append(qviews, models.CampaignQuestView{CampaignQuest: q, Done: done[q.ID].Done})
	}
	return view, qviews, nil
}

// JoinCampaign enrolls the user and authorizes them on the campaign contract
func (s *Service) JoinCampaign(ctx context.Context, userID, campaignID primitive.ObjectID) error {
	c, err := s.store.CampaignByID(ctx, campaignID)
	if err != nil {
		return lookup(err, "campaign")
	}
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return lookup(err, "user")
	}
	now := s.now()
	if c.Ended(now) {
		return forbidden("campaign ended")
	}

	err = s.store.JoinCampaign(ctx, &models.CampaignCompletion{UserID: userID, CampaignID: campaignID, JoinedAt: now})
	if errors.Is(err, store.ErrDuplicate) {
		return badRequest("already joined")
	}
	if err != nil {
		return err
	}
	logFailure("count participant", s.store.IncParticipants(ctx, campaignID))
	s.enqueue(ctx, models.ActionJoinCampaign, c.ContractAddress,
		models.RelayArgs{Wallet: u.WalletAddress},
		fmt.Sprintf("join:%s:%s", campaignID.Hex(), userID.Hex()))
	return nil
}

// PerformCampaignQuest marks a campaign quest done. Finishing the last one
// opens the reward claim and authorizes it on chain.
func (s *Service) PerformCampaignQuest(ctx context.Context, userID, campaignQuestID primitive.ObjectID) (*models.CampaignCompletion, error) {
	cq, err := s.store.CampaignQuestByID(ctx, campaignQuestID)
	if err != nil {
		return nil, lookup(err, "campaign quest")
	}
	c, err := s.store.CampaignByID(ctx, cq.CampaignID)
	if err != nil {
		return nil, lookup(err, "campaign")
	}
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, lookup(err, "user")
	}
	if _, err := s.store.CampaignCompletionFor(ctx, userID, c.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, forbidden("join campaign first")
		}
		return nil, err
	}
	now := s.now()
	if c.Ended(now) {
		return nil, forbidden("campaign ended")
	}

	rec := &models.Completion{UserID: userID, TaskID: cq.ID, ParentID: c.ID, Done: true, CreatedAt: now}
	if err := s.store.InsertCompletion(ctx, models.KindCampaignQuest, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			metrics.Claim(string(models.KindCampaignQuest), "repeat")
			return nil, forbidden("already performed")
		}
		return nil, err
	}
	metrics.Claim(string(models.KindCampaignQuest), "ok")
	s.activate(ctx, userID)

	count, err := s.store.CountCompletions(ctx, models.KindCampaignQuest, userID, c.ID)
	if err != nil {
		return nil, err
	}
	if count >= c.NoOfQuests {
		flipped, err := s.store.MarkCampaignQuestsCompleted(ctx, userID, c.ID)
		if err != nil {
			return nil, err
		}
		if flipped {
			s.enqueue(ctx, models.ActionAllowCampaignClaim, c.ContractAddress,
				models.RelayArgs{Wallet: u.WalletAddress},
				fmt.Sprintf("campaign-claim:%s:%s", c.ID.Hex(), userID.Hex()))
		}
	}
	return s.store.CampaignCompletionFor(ctx, userID, c.ID)
}

// ClaimCampaignRewards pays the campaign's flat reward once all of its
// quests are done
func (s *Service) ClaimCampaignRewards(ctx context.Context, userID, campaignID primitive.ObjectID) (*models.User, error) {
	c, err := s.store.CampaignByID(ctx, campaignID)
	if err != nil {
		return nil, lookup(err, "campaign")
	}
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return nil, lookup(err, "user")
	}
	cc, err := s.store.CampaignCompletionFor(ctx, userID, campaignID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, forbidden("join campaign first")
	}
	if err != nil {
		return nil, err
	}
	if c.Status == models.CampaignClosed {
		return nil, forbidden("campaign closed")
	}
	if !cc.QuestsCompleted {
		return nil, forbidden("complete all campaign quests")
	}
	// quests may be attached after the flag flipped
	done, err := s.store.CountCompletions(ctx, models.KindCampaignQuest, userID, campaignID)
	if err != nil {
		return nil, err
	}
	if done < c.NoOfQuests {
		return nil, forbidden("complete all campaign quests")
	}
	if cc.CampaignCompleted {
		metrics.Claim("campaign", "repeat")
		return nil, forbidden("already claimed")
	}

	ok, err := s.store.MarkCampaignClaimed(ctx, userID, campaignID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.Claim("campaign", "repeat")
		return nil, forbidden("already claimed")
	}

	u, err := s.grant(ctx, userID, models.Reward{XP: c.Reward.XP, Trust: c.Reward.Trust, Campaigns: 1}, campaignID.Hex())
	if err != nil {
		return nil, err
	}
	logFailure("count campaign claim", s.store.IncCampaignClaimed(ctx, campaignID, c.Reward.XP, c.Reward.Trust))
	s.activate(ctx, userID)
	s.notify(models.GamificationEvent{Type: "campaign_claimed", UserID: userID.Hex(), XP: c.Reward.XP, Trust: c.Reward.Trust, TaskID: campaignID.Hex()})
	metrics.Claim("campaign", "ok")
	return u, nil
}
