package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/models"
	"nexura/store"
)

const (
	ReferralSignupXP    = 10
	ReferralThreshold   = 10
	ReferralRewardTrust = 16.2
	referralCodeLength  = 8
)

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:referralCodeLength])
}

// resolveReferrer finds the owner of a referral code; an empty code is no referrer
func (s *Service) resolveReferrer(ctx context.Context, code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	ref, err := s.store.UserByReferralCode(ctx, strings.ToUpper(code))
	if errors.Is(err, store.ErrNotFound) {
		return nil, badRequest("invalid referral code")
	}
	return ref, err
}

// creditReferrer pays the referrer and records the join as Inactive until
// the new user completes something.
func (s *Service) creditReferrer(ctx context.Context, referrer, newUser *models.User) error {
	err := s.store.CreateReferredUser(ctx, &models.ReferredUser{
		ReferrerID: referrer.ID,
		UserID:     newUser.ID,
		Username:   newUser.Username,
		Status:     models.StatusInactive,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return fmt.Errorf("record referral: %w", err)
	}
	u, err := s.store.CreditReferral(ctx, referrer.ID, ReferralSignupXP)
	if err != nil {
		return fmt.Errorf("credit referrer: %w", err)
	}
	s.notify(models.GamificationEvent{Type: "xp_awarded", UserID: u.ID.Hex(), XP: ReferralSignupXP, NewXP: u.XP})
	return s.syncLevel(ctx, u)
}

type ReferralInfo struct {
	Code             string                `json:"code"`
	ReferredCount    int                   `json:"referredCount"`
	XP               int                   `json:"xp"`
	ActiveCount      int                   `json:"activeCount"`
	Threshold        int                   `json:"threshold"`
	RefRewardClaimed bool                  `json:"refRewardClaimed"`
	RefRewardAllowed bool                  `json:"refRewardAllowed"`
	Users            []models.ReferredUser `json:"users"`
}

func (s *Service) ReferralInfo(ctx context.Context, userID primitive.ObjectID) (*ReferralInfo, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, lookup(err, "user")
	}
	users, err := s.store.ReferredUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := 0
	for _, r := range users {
		if r.Status == models.StatusActive {
			active++
		}
	}
	return &ReferralInfo{
		Code:             u.Referral.Code,
		ReferredCount:    u.Referral.ReferredCount,
		XP:               u.Referral.XP,
		ActiveCount:      active,
		Threshold:        ReferralThreshold,
		RefRewardClaimed: u.RefRewardClaimed,
		RefRewardAllowed: u.RefRewardAllowed,
		Users:            users,
	}, nil
}

// ClaimReferralReward pays the one-time trust bonus for reaching the
// active-referral threshold
func (s *Service) ClaimReferralReward(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, lookup(err, "user")
	}
	if u.RefRewardClaimed {
		return nil, badRequest("reward claimed")
	}
	active, err := s.store.CountActiveReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active < ReferralThreshold {
		return nil, forbidden(fmt.Sprintf("need %d active referrals, have %d", ReferralThreshold, active))
	}
	ok, err := s.store.MarkRefRewardClaimed(ctx, userID, ReferralRewardTrust)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, badRequest("reward claimed")
	}
	s.notify(models.GamificationEvent{Type: "referral_claimed", UserID: userID.Hex(), Trust: ReferralRewardTrust})
	u, err = s.store.UserByID(ctx, userID)
	return u, lookup(err, "user")
}

// AllowRefRewardClaim authorizes the referral reward on chain
func (s *Service) AllowRefRewardClaim(ctx context.Context, userID primitive.ObjectID) error {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return lookup(err, "user")
	}
	active, err := s.store.CountActiveReferrals(ctx, userID)
	if err != nil {
		return err
	}
	if active < ReferralThreshold {
		return forbidden(fmt.Sprintf("need %d active referrals, have %d", ReferralThreshold, active))
	}
	if u.RefRewardAllowed {
		return badRequest("referral reward already allowed")
	}
	ok, err := s.store.MarkRefRewardAllowed(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return badRequest("referral reward already allowed")
	}
	s.enqueue(ctx, models.ActionAllowReferralClaim, s.opts.ReferralContract,
		models.RelayArgs{Wallet: u.WalletAddress},
		"referral:"+userID.Hex())
	return nil
}

// SyncReferrals re-applies Active status to referral records whose user is
// already Active
func (s *Service) SyncReferrals(ctx context.Context) (int, error) {
	return s.store.SyncReferralStatuses(ctx)
}
