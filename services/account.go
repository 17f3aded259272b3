package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/models"
	"nexura/store"
	"nexura/utils"
)

type SignUpInput struct {
	Username     string `json:"username" binding:"required,min=3,max=32"`
	Password     string `json:"password" binding:"required,min=8"`
	ReferrerCode string `json:"referrerCode"`
}

func (s *Service) newUser(username, passwordHash, wallet string) *models.User {
	now := s.now()
	return &models.User{
		Username:      username,
		PasswordHash:  passwordHash,
		WalletAddress: wallet,
		Level:         "1",
		Tier:          TierFor(1),
		Badges:        []int{},
		Referral:      models.Referral{Code: newReferralCode()},
		Status:        models.StatusInactive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// register creates u and credits referrer if one was given
func (s *Service) register(ctx context.Context, u *models.User, referrer *models.User) (*models.User, error) {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = s.store.CreateUser(ctx, u)
		if !errors.Is(err, store.ErrDuplicate) {
			break
		}
		// the username or wallet may be taken; a fresh code rules out a code clash
		if _, lookupErr := s.store.UserByUsername(ctx, u.Username); lookupErr == nil {
			return nil, badRequest("username taken")
		}
		if u.WalletAddress != "" {
			if _, lookupErr := s.store.UserByWallet(ctx, u.WalletAddress); lookupErr == nil {
				return nil, badRequest("wallet already registered")
			}
		}
		u.Referral.Code = newReferralCode()
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if referrer != nil {
		logFailure("credit referrer", s.creditReferrer(ctx, referrer, u))
	}
	return u, nil
}

// SignUp registers a password user, optionally under a referrer's code
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	if _, err := s.store.UserByUsername(ctx, in.Username); err == nil {
		return nil, badRequest("username taken")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	referrer, err := s.resolveReferrer(ctx, in.ReferrerCode)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	return s.register(ctx, s.newUser(in.Username, hash, ""), referrer)
}

func (s *Service) SignIn(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" || !utils.CheckPasswordHash(password, u.PasswordHash) {
		return nil, unauthorized("invalid credentials")
	}
	return u, nil
}

// WalletSignIn logs in the owner of a verified wallet, registering unknown
// wallets on first use. created reports whether a new user was made.
func (s *Service) WalletSignIn(ctx context.Context, wallet, referrerCode string) (*models.User, bool, error) {
	u, err := s.store.UserByWallet(ctx, wallet)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	referrer, err := s.resolveReferrer(ctx, referrerCode)
	if err != nil {
		return nil, false, err
	}
	u, err = s.register(ctx, s.newUser(wallet, "", wallet), referrer)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			// lost a race with a concurrent sign-in for the same wallet
			if existing, lookupErr := s.store.UserByWallet(ctx, wallet); lookupErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return u, true, nil
}

func (s *Service) User(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.store.UserByID(ctx, id)
	return u, lookup(err, "user")
}

type Profile struct {
	*models.User
	NextLevelXP int `json:"nextLevelXp"`
}

func (s *Service) Profile(ctx context.Context, id primitive.ObjectID) (*Profile, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, NextLevelXP: NextLevelXP(u.XP)}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// CheckIn records the daily visit and maintains the streak
func (s *Service) CheckIn(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	last := u.LastCheckIn
	if last != nil && sameDay(*last, now) {
		return nil, forbidden("already checked in")
	}
	streak := 1
	if last != nil && sameDay(last.AddDate(0, 0, 1), now) {
		streak = u.Streak + 1
	}
	longest := u.LongestStreak
	if streak > longest {
		longest = streak
	}
	ok, err := s.store.CheckIn(ctx, id, last, now, streak, longest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, forbidden("already checked in")
	}
	u.LastCheckIn, u.Streak, u.LongestStreak = &now, streak, longest
	return u, nil
}

// MintBadge records that the user minted the badge for level
func (s *Service) MintBadge(ctx context.Context, id primitive.ObjectID, level int) error {
	if level < 1 || level > MaxLevel {
		return badRequest("invalid level")
	}
	u, err := s.User(ctx, id)
	if err != nil {
		return err
	}
	if level > LevelFor(u.XP) {
		return forbidden("level not reached")
	}
	ok, err := s.store.AddBadge(ctx, id, level)
	if err != nil {
		return err
	}
	if !ok {
		return badRequest("badge already minted")
	}
	return nil
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	ID       string `json:"id"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Level    string `json:"level"`
	Tier     string `json:"tier"`
}

const leaderboardTTL = 30 * time.Second

// Leaderboard returns the top users by XP, served from cache when possible
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	key := fmt.Sprintf("leaderboard:%d", limit)
	if s.cache != nil {
		var cached []LeaderboardEntry
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	users, err := s.store.TopUsers(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			ID:       u.ID.Hex(),
			Username: u.Username,
			XP:       u.XP,
			Level:    u.Level,
			Tier:     u.Tier,
		})
	}
	if s.cache != nil {
		logFailure("cache leaderboard", s.cache.SetJSON(ctx, key, entries, leaderboardTTL))
	}
	return entries, nil
}

// ConnectSocial stores a verified social account on the user
func (s *Service) ConnectSocial(ctx context.Context, id primitive.ObjectID, provider string, acct models.SocialAccount) error {
	acct.ConnectedAt = s.now()
	return lookup(s.store.SetSocial(ctx, id, provider, acct), "user")
}

// Projects

type ProjectSignUpInput struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	WalletAddress string `json:"walletAddress"`
}

func (s *Service) ProjectSignUp(ctx context.Context, in ProjectSignUpInput) (*models.Project, error) {
	wallet := ""
	if in.WalletAddress != "" {
		w, err := utils.NormalizeWallet(in.WalletAddress)
		if err != nil {
			return nil, badRequest(err.Error())
		}
		wallet = w
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	p := &models.Project{
		Name:          in.Name,
		Email:         in.Email,
		PasswordHash:  hash,
		WalletAddress: wallet,
		CreatedAt:     s.now(),
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, badRequest("project name or email taken")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) ProjectSignIn(ctx context.Context, email, password string) (*models.Project, error) {
	p, err := s.store.ProjectByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, p.PasswordHash) {
		return nil, unauthorized("invalid credentials")
	}
	return p, nil
}

func (s *Service) Project(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	p, err := s.store.ProjectByID(ctx, id)
	return p, lookup(err, "project")
}
