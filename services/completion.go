package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/internal/metrics"
	"nexura/models"
	"nexura/store"
)

const (
	defaultEcosystemTimer = 60 * time.Second
	weeklyReset           = 7 * 24 * time.Hour
	dailyReset            = 24 * time.Hour
)

// ClaimQuest completes a quest for the user and pays its XP.
// A quest can be claimed once per reset window (forever for one-time quests).
func (s *Service) ClaimQuest(ctx context.Context, userID, questID primitive.ObjectID) (*models.User, error) {
	q, err := s.store.QuestByID(ctx, questID)
	if err != nil {
		return nil, lookup(err, "quest")
	}
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, lookup(err, "user")
	}

	existing, err := s.store.CompletionFor(ctx, models.KindQuest, userID, questID)
	switch {
	case err == nil && existing.Done:
		metrics.Claim(string(models.KindQuest), "repeat")
		return nil, forbidden("already claimed")
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	if q.NoOfQuests > 0 {
		done, err := s.store.CountCompletions(ctx, models.KindMiniQuest, userID, questID)
		if err != nil {
			return nil, err
		}
		if done < q.NoOfQuests {
			return nil, forbidden("complete all mini quests first")
		}
	}

	if q.Verification.Type != "" && q.Verification.Type != models.VerifyNone {
		if s.verifier == nil {
			return nil, forbidden("verification unavailable")
		}
		ok, err := s.verifier.Verify(ctx, u, q.Verification)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, forbidden("quest requirement not met")
		}
	}

	now := s.now()
	rec := &models.Completion{UserID: userID, TaskID: questID, Done: true, CreatedAt: now}
	switch q.Kind {
	case models.QuestWeekly:
		exp := now.Add(weeklyReset)
		rec.ExpiresAt = &exp
	case models.QuestDaily:
		exp := now.Add(dailyReset)
		rec.ExpiresAt = &exp
	}
	if err := s.store.InsertCompletion(ctx, models.KindQuest, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			metrics.Claim(string(models.KindQuest), "repeat")
			return nil, forbidden("already claimed")
		}
		return nil, err
	}

	u, err = s.grant(ctx, userID, models.Reward{XP: q.XP, Quests: 1}, questID.Hex())
	if err != nil {
		return nil, err
	}
	s.activate(ctx, userID)
	metrics.Claim(string(models.KindQuest), "ok")
	return u, nil
}

// ClaimMiniQuest records a mini-quest as done. Mini-quests pay nothing;
// they unlock their parent quest.
func (s *Service) ClaimMiniQuest(ctx context.Context, userID, miniQuestID primitive.ObjectID) error {
	mq, err := s.store.MiniQuestByID(ctx, miniQuestID)
	if err != nil {
		return lookup(err, "mini quest")
	}
	if _, err := s.store.QuestByID(ctx, mq.QuestID); err != nil {
		return lookup(err, "quest")
	}
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return lookup(err, "user")
	}

	rec := &models.Completion{
		UserID:    userID,
		TaskID:    miniQuestID,
		ParentID:  mq.QuestID,
		Done:      true,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertCompletion(ctx, models.KindMiniQuest, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			metrics.Claim(string(models.KindMiniQuest), "repeat")
			return forbidden("already performed")
		}
		return err
	}
	metrics.Claim(string(models.KindMiniQuest), "ok")
	return nil
}

// SetEcosystemTimer starts the dwell timer for an ecosystem quest. Calling it
// again keeps the original timer.
func (s *Service) SetEcosystemTimer(ctx context.Context, userID, questID primitive.ObjectID) (*models.Completion, error) {
	q, err := s.store.EcosystemQuestByID(ctx, questID)
	if err != nil {
		return nil, lookup(err, "ecosystem quest")
	}
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return nil, lookup(err, "user")
	}

	existing, err := s.store.CompletionFor(ctx, models.KindEcosystemQuest, userID, questID)
	switch {
	case err == nil && existing.Done:
		return nil, forbidden("already claimed")
	case err == nil:
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	wait := defaultEcosystemTimer
	if q.TimerSeconds > 0 {
		wait = time.Duration(q.TimerSeconds) * time.Second
	}
	now := s.now()
	timer := now.Add(wait)
	rec := &models.Completion{UserID: userID, TaskID: questID, Timer: &timer, CreatedAt: now}
	if err := s.store.InsertCompletion(ctx, models.KindEcosystemQuest, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return s.store.CompletionFor(ctx, models.KindEcosystemQuest, userID, questID)
		}
		return nil, err
	}
	return rec, nil
}

// ClaimEcosystemQuest pays an ecosystem quest once its timer has elapsed
func (s *Service) ClaimEcosystemQuest(ctx context.Context, userID, questID primitive.ObjectID) (*models.User, error) {
	q, err := s.store.EcosystemQuestByID(ctx, questID)
	if err != nil {
		return nil, lookup(err, "ecosystem quest")
	}
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return nil, lookup(err, "user")
	}

	rec, err := s.store.CompletionFor(ctx, models.KindEcosystemQuest, userID, questID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, forbidden("timer not set")
	}
	if err != nil {
		return nil, err
	}
	if rec.Done {
		metrics.Claim(string(models.KindEcosystemQuest), "repeat")
		return nil, forbidden("already claimed")
	}
	now := s.now()
	if rec.Timer == nil || now.Before(*rec.Timer) {
		metrics.Claim(string(models.KindEcosystemQuest), "early")
		return nil, forbidden("timer not elapsed")
	}
	ok, err := s.store.MarkCompletionDone(ctx, models.KindEcosystemQuest, userID, questID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.Claim(string(models.KindEcosystemQuest), "repeat")
		return nil, forbidden("already claimed")
	}

	u, err := s.grant(ctx, userID, models.Reward{XP: q.XP, Quests: 1}, questID.Hex())
	if err != nil {
		return nil, err
	}
	s.activate(ctx, userID)
	metrics.Claim(string(models.KindEcosystemQuest), "ok")
	return u, nil
}

// doneSet returns the task ids the user has completed for kind
func (s *Service) doneSet(ctx context.Context, kind models.TaskKind, userID primitive.ObjectID) (map[primitive.ObjectID]models.Completion, error) {
	out := map[primitive.ObjectID]models.Completion{}
	if userID.IsZero() {
		return out, nil
	}
	recs, err := s.store.CompletionsForUser(ctx, kind, userID)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		out[r.TaskID] = r
	}
	return out, nil
}

// Quests lists the catalog with the caller's completion flags. A zero
// userID is an anonymous caller and sees every flag false.
func (s *Service) Quests(ctx context.Context, userID primitive.ObjectID) ([]models.QuestView, error) {
	quests, err := s.store.ListQuests(ctx)
	if err != nil {
		return nil, err
	}
	done, err := s.doneSet(ctx, models.KindQuest, userID)
	if err != nil {
		return nil, err
	}
	views := make([]models.QuestView, 0, len(quests))
	for _, q := range quests {
		views = append(views, models.QuestView{Quest: q, Done: done[q.ID].Done})
	}
	return views, nil
}

// MiniQuests lists a quest's mini-quests with the caller's flags
func (s *Service) MiniQuests(ctx context.Context, userID, questID primitive.ObjectID) ([]models.MiniQuestView, error) {
	if _, err := s.store.QuestByID(ctx, questID); err != nil {
		return nil, lookup(err, "quest")
	}
	mqs, err := s.store.MiniQuestsFor(ctx, questID)
	if err != nil {
		return nil, err
	}
	done, err := s.doneSet(ctx, models.KindMiniQuest, userID)
	if err != nil {
		return nil, err
	}
	views := make([]models.MiniQuestView, 0, len(mqs))
	for _, mq := range mqs {
		views = append(views, models.MiniQuestView{MiniQuest: mq, Done: done[mq.ID].Done})
	}
	return views, nil
}

func (s *Service) EcosystemQuests(ctx context.Context, userID primitive.ObjectID) ([]models.EcosystemQuestView, error) {
	quests, err := s.store.ListEcosystemQuests(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.doneSet(ctx, models.KindEcosystemQuest, userID)
	if err != nil {
		return nil, err
	}
	views := make([]models.EcosystemQuestView, 0, len(quests))
	for _, q := range quests {
		rec := recs[q.ID]
		views = append(views, models.EcosystemQuestView{EcosystemQuest: q, Done: rec.Done, Timer: rec.Timer})
	}
	return views, nil
}
