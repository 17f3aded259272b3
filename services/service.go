package services

import (
	"context"
	"errors"
	"time"

	"nexura/models"
	"nexura/pkg/log"
	"nexura/store"
)

// Notifier pushes gamification events to connected clients
type Notifier interface {
	Broadcast(event models.GamificationEvent)
}

// SocialVerifier checks a quest's social requirement for a user
type SocialVerifier interface {
	Verify(ctx context.Context, user *models.User, v models.Verification) (bool, error)
}

// Mailer delivers admin invites
type Mailer interface {
	SendAdminInvite(to, link string) error
}

// Cache stores JSON blobs with a TTL
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

type Deps struct {
	Store    store.Store
	Notifier Notifier
	Verifier SocialVerifier
	Mailer   Mailer
	Cache    Cache
}

type Options struct {
	BadgeContract    string
	ReferralContract string
	// InviteURL is the frontend page that accepts ?token=
	InviteURL string
	InviteTTL time.Duration
}

// Service holds the Nexura business rules over a Store
type Service struct {
	store    store.Store
	notifier Notifier
	verifier SocialVerifier
	mailer   Mailer
	cache    Cache
	opts     Options
	now      func() time.Time
}

func New(deps Deps, opts Options) *Service {
	if opts.InviteTTL == 0 {
		opts.InviteTTL = 72 * time.Hour
	}
	s := &Service{
		store:    deps.Store,
		notifier: deps.Notifier,
		verifier: deps.Verifier,
		mailer:   deps.Mailer,
		cache:    deps.Cache,
		opts:     opts,
		now:      time.Now,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	return s
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(models.GamificationEvent) {}

// lookup maps store.ErrNotFound to a NOT_FOUND service error
func lookup(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(what + " not found")
	}
	return err
}

func (s *Service) notify(event models.GamificationEvent) {
	event.Timestamp = s.now()
	s.notifier.Broadcast(event)
}

// logFailure records a side effect that failed after the ledger write succeeded
func logFailure(what string, err error) {
	if err != nil {
		log.Errorf("%s: %v", what, err)
	}
}
