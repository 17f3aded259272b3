package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/models"
	"nexura/store"
	"nexura/utils"
)

func (s *Service) AdminSignIn(ctx context.Context, email, password string) (*models.Admin, error) {
	a, err := s.store.AdminByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, a.PasswordHash) {
		return nil, unauthorized("invalid credentials")
	}
	return a, nil
}

// CreateAdmin stores a new admin with a hashed password
func (s *Service) CreateAdmin(ctx context.Context, email, name, password, role string) (*models.Admin, error) {
	if len(password) < 8 {
		return nil, badRequest("password must be at least 8 characters")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = "admin"
	}
	now := s.now()
	a := &models.Admin{
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAdmin(ctx, a); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, badRequest("admin already exists")
		}
		return nil, err
	}
	return a, nil
}

// InviteAdmin mails a one-time sign-up link to email
func (s *Service) InviteAdmin(ctx context.Context, inviterID primitive.ObjectID, email string) (*models.AdminInvite, error) {
	email = strings.ToLower(email)
	if _, err := s.store.AdminByEmail(ctx, email); err == nil {
		return nil, badRequest("admin already exists")
	}
	token, err := utils.GenerateRandomToken(32)
	if err != nil {
		return nil, err
	}
	now := s.now()
	inv := &models.AdminInvite{
		Email:     email,
		Token:     token,
		InvitedBy: inviterID,
		ExpiresAt: now.Add(s.opts.InviteTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateInvite(ctx, inv); err != nil {
		return nil, err
	}
	if s.mailer != nil {
		link := fmt.Sprintf("%s?token=%s", s.opts.InviteURL, url.QueryEscape(token))
		if err := s.mailer.SendAdminInvite(email, link); err != nil {
			return nil, fmt.Errorf("send invite: %w", err)
		}
	}
	return inv, nil
}

// AcceptInvite consumes an invite token and creates the admin account
func (s *Service) AcceptInvite(ctx context.Context, token, name, password string) (*models.Admin, error) {
	inv, err := s.store.UseInvite(ctx, token, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, badRequest("invalid or expired invite")
	}
	if err != nil {
		return nil, err
	}
	return s.CreateAdmin(ctx, inv.Email, name, password, "admin")
}

type QuestInput struct {
	Title        string              `json:"title" binding:"required"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Tag          string              `json:"tag"`
	Kind         string              `json:"kind" binding:"omitempty,oneof=one-time weekly daily"`
	Link         string              `json:"link"`
	XP           int                 `json:"xp" binding:"gte=0"`
	Verification models.Verification `json:"verification"`
}

func (s *Service) CreateQuest(ctx context.Context, in QuestInput) (*models.Quest, error) {
	if in.Kind == "" {
		in.Kind = models.QuestOneTime
	}
	switch in.Verification.Type {
	case "":
		in.Verification.Type = models.VerifyNone
	case models.VerifyNone, models.VerifyXConnected:
	case models.VerifyDiscordJoin:
		if in.Verification.GuildID == "" {
			return nil, badRequest("guildId required")
		}
	case models.VerifyDiscordRole:
		if in.Verification.GuildID == "" || in.Verification.RoleID == "" {
			return nil, badRequest("guildId and roleId required")
		}
	default:
		return nil, badRequest("unknown verification type")
	}
	q := &models.Quest{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Tag:          in.Tag,
		Kind:         in.Kind,
		Link:         in.Link,
		XP:           in.XP,
		Verification: in.Verification,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateQuest(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// AddMiniQuest attaches a mini-quest to a one-time quest
func (s *Service) AddMiniQuest(ctx context.Context, questID primitive.ObjectID, in TaskInput) (*models.MiniQuest, error) {
	q, err := s.store.QuestByID(ctx, questID)
	if err != nil {
		return nil, lookup(err, "quest")
	}
	if q.Kind != models.QuestOneTime {
		return nil, badRequest("mini quests belong to one-time quests")
	}
	mq := &models.MiniQuest{
		QuestID:   questID,
		Title:     in.Title,
		Link:      in.Link,
		Tag:       in.Tag,
		CreatedAt: s.now(),
	}
	if err := s.store.AddMiniQuest(ctx, mq); err != nil {
		return nil, lookup(err, "quest")
	}
	return mq, nil
}

type EcosystemQuestInput struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	URL          string `json:"url" binding:"required,url"`
	Logo         string `json:"logo"`
	XP           int    `json:"xp" binding:"gte=0"`
	TimerSeconds int    `json:"timerSeconds" binding:"gte=0"`
}

func (s *Service) CreateEcosystemQuest(ctx context.Context, in EcosystemQuestInput) (*models.EcosystemQuest, error) {
	if in.TimerSeconds == 0 {
		in.TimerSeconds = int(defaultEcosystemTimer.Seconds())
	}
	q := &models.EcosystemQuest{
		Title:        in.Title,
		Description:  in.Description,
		URL:          in.URL,
		Logo:         in.Logo,
		XP:           in.XP,
		TimerSeconds: in.TimerSeconds,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateEcosystemQuest(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// AllocateXP adds to a project's single-use campaign allowance
func (s *Service) AllocateXP(ctx context.Context, projectID primitive.ObjectID, xp int, trust float64) (*models.Project, error) {
	if xp <= 0 || trust < 0 {
		return nil, badRequest("xp must be positive")
	}
	if err := s.store.AllocateXP(ctx, projectID, xp, trust); err != nil {
		return nil, lookup(err, "project")
	}
	return s.Project(ctx, projectID)
}

func (s *Service) RelayActions(ctx context.Context, status string, limit int) ([]models.RelayAction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.RelayActionsByStatus(ctx, status, limit)
}

// RetryRelayAction puts a failed action back in the queue
func (s *Service) RetryRelayAction(ctx context.Context, id primitive.ObjectID) (*models.RelayAction, error) {
	a, err := s.store.RelayActionByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "relay action")
	}
	if a.Status != models.RelayStatusFailed {
		return nil, badRequest("only failed actions can be retried")
	}
	now := s.now()
	a.Status = models.RelayStatusPending
	a.Attempts = 0
	a.TxHash = ""
	a.SubmittedAt = nil
	a.NextAttemptAt = now
	a.UpdatedAt = now
	if err := s.store.UpdateRelayAction(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
