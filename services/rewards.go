package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/internal/metrics"
	"nexura/models"
	reporter "nexura/pkg/errors"
	"nexura/store"
)

// grant applies a reward and recomputes the stored level and tier
func (s *Service) grant(ctx context.Context, userID primitive.ObjectID, r models.Reward, taskID string) (*models.User, error) {
	u, err := s.store.GrantReward(ctx, userID, r)
	if err != nil {
		return nil, lookup(err, "user")
	}
	if r.XP > 0 {
		s.notify(models.GamificationEvent{
			Type:   "xp_awarded",
			UserID: u.ID.Hex(),
			XP:     r.XP,
			NewXP:  u.XP,
			TaskID: taskID,
		})
	}
	if err := s.syncLevel(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// syncLevel stores the level and tier derived from u.XP. Every level crossed
// by this grant that has no minted badge gets a mint authorization.
func (s *Service) syncLevel(ctx context.Context, u *models.User) error {
	prev := parseLevel(u.Level)
	level := LevelFor(u.XP)
	levelStr, tierName := strconv.Itoa(level), TierFor(level)
	if u.Level != levelStr || u.Tier != tierName {
		if err := s.store.SetLevel(ctx, u.ID, levelStr, tierName); err != nil {
			return fmt.Errorf("set level: %w", err)
		}
		u.Level, u.Tier = levelStr, tierName
	}
	if level > prev {
		s.notify(models.GamificationEvent{Type: "level_up", UserID: u.ID.Hex(), Level: levelStr, NewXP: u.XP})
		for l := prev + 1; l <= level; l++ {
			if u.HasBadge(l) {
				continue
			}
			s.enqueue(ctx, models.ActionAllowMint, s.opts.BadgeContract,
				models.RelayArgs{Wallet: u.WalletAddress, Level: l},
				fmt.Sprintf("mint:%s:%d", u.ID.Hex(), l))
		}
	}
	return nil
}

// activate flips the user to Active on a first qualifying completion and
// mirrors it onto their referral record. The reconcile job repairs the
// second write if it is lost.
func (s *Service) activate(ctx context.Context, userID primitive.ObjectID) {
	flipped, err := s.store.ActivateUser(ctx, userID)
	if err != nil {
		logFailure("activate user "+userID.Hex(), err)
		return
	}
	if flipped {
		logFailure("activate referral "+userID.Hex(), s.store.ActivateReferredUser(ctx, userID))
	}
}

// enqueue records an on-chain call in the outbox. Missing wallet or contract
// means there is nothing to relay.
func (s *Service) enqueue(ctx context.Context, action, contract string, args models.RelayArgs, dedupeKey string) {
	if args.Wallet == "" || contract == "" {
		return
	}
	now := s.now()
	a := &models.RelayAction{
		Action:        action,
		Contract:      contract,
		Args:          args,
		DedupeKey:     dedupeKey,
		Status:        models.RelayStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.store.EnqueueRelay(ctx, a)
	switch {
	case err == nil:
		metrics.Relay(action, models.RelayStatusPending)
	case errors.Is(err, store.ErrDuplicate):
	default:
		logFailure("enqueue "+action, reporter.WrapAndReport(err, "enqueue relay action"))
	}
}
