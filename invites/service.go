// Package invites implements the invitation lifecycle. An invite starts
// PENDING and moves exactly once to ACCEPTED, REJECTED or EXPIRED.
package invites

import (
	"context"
	"errors"
	"time"

	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/ratelimit"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTTL          = 7 * 24 * time.Hour
	DefaultCodeAttempts = 5
)

const (
	LimitAvailable = "available"
	LimitExhausted = "exhausted"
	LimitDisabled  = "disabled"
)

type Options struct {
	TTL          time.Duration
	CodeAttempts int
	Now          func() time.Time
	NewCode      func() string
}

type LimitStatus struct {
	MaxPerHour int64  `json:"maxInvitesPerHour"`
	Remaining  int64  `json:"remaining"`
	Status     string `json:"status"`
}

type Service struct {
	store    Store
	limiter  *ratelimit.Limiter
	notifier Notifier
	opts     Options
}

// NewService builds the invite service. notifier may be nil.
func NewService(store Store, limiter *ratelimit.Limiter, notifier Notifier, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CodeAttempts <= 0 {
		opts.CodeAttempts = DefaultCodeAttempts
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewCode == nil {
		opts.NewCode = NewCode
	}

	return &Service{store: store, limiter: limiter, notifier: notifier, opts: opts}
}

func (s *Service) Send(ctx context.Context, inviterId, teamId int64, invitedUser string) (*userdata.Invite, error) {
	member, err := s.store.IsMember(ctx, inviterId, teamId)
	if err != nil {
		return nil, storageError(err, "checking membership")
	}
	if !member {
		return nil, ErrNotAuthorized
	}

	decision := s.limiter.CheckAndConsume(ctx, ratelimit.InviteKey(inviterId, teamId), ratelimit.Invites.Window, ratelimit.Invites.Max)
	if !decision.Allowed {
		return nil, &RateLimitError{RetryAfter: decision.RetryAfter}
	}

	now := s.opts.Now()
	invite := &userdata.Invite{
		TeamId:      teamId,
		InvitedBy:   inviterId,
		InvitedUser: invitedUser,
		Status:      userdata.InvitePending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.opts.TTL),
	}

	for attempt := 1; ; attempt++ {
		invite.Code = s.opts.NewCode()
		err = s.store.CreateInvite(ctx, invite)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrDuplicate) || attempt >= s.opts.CodeAttempts {
			return nil, storageError(err, "creating invite")
		}
		log.Debug().Str("code", invite.Code).Int("attempt", attempt).Msg("Invite code taken, generating a new one")
	}

	transitionsMetric.WithLabelValues(string(userdata.InvitePending)).Inc()
	log.Info().Int64("team", teamId).Int64("inviter", inviterId).Str("code", invite.Code).Msg("Invite sent")

	if s.notifier != nil {
		if err := s.notifier.InviteSent(ctx, invite); err != nil {
			log.Warn().Err(err).Str("code", invite.Code).Msg("Could not send invite notification")
		}
	}

	return invite, nil
}

func (s *Service) Accept(ctx context.Context, code string, userId int64) (*userdata.Invite, error) {
	invite, err := s.store.FindInviteByCode(ctx, code)
	if err != nil {
		return nil, storageError(err, "finding invite")
	}

	if !invite.Status.CanTransition(userdata.InviteAccepted) {
		return nil, &InvalidStateError{Status: invite.Status}
	}

	now := s.opts.Now()
	if invite.IsExpired(now) {
		if err := s.expire(ctx, invite); err != nil {
			return nil, err
		}
		if invite.Status != userdata.InviteExpired {
			return nil, &InvalidStateError{Status: invite.Status}
		}
		return nil, ErrExpired
	}

	member, err := s.store.IsMember(ctx, userId, invite.TeamId)
	if err != nil {
		return nil, storageError(err, "checking membership")
	}
	if member {
		return nil, ErrAlreadyMember
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.AddMember(ctx, userId, invite.TeamId); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return ErrAlreadyMember
			}
			return err
		}

		return tx.UpdateInviteStatus(ctx, code, userdata.InvitePending, userdata.InviteAccepted, &now)
	})
	if errors.Is(err, models.ErrStaleState) {
		return nil, s.lostRace(ctx, code)
	}
	if errors.Is(err, ErrAlreadyMember) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, storageError(err, "accepting invite")
	}

	invite.Status = userdata.InviteAccepted
	invite.AcceptedAt = &now
	transitionsMetric.WithLabelValues(string(userdata.InviteAccepted)).Inc()
	log.Info().Int64("team", invite.TeamId).Int64("user", userId).Str("code", code).Msg("Invite accepted")

	return invite, nil
}

func (s *Service) Reject(ctx context.Context, code string) (*userdata.Invite, error) {
	invite, err := s.store.FindInviteByCode(ctx, code)
	if err != nil {
		return nil, storageError(err, "finding invite")
	}

	if !invite.Status.CanTransition(userdata.InviteRejected) {
		return nil, &InvalidStateError{Status: invite.Status}
	}

	err = s.store.UpdateInviteStatus(ctx, code, userdata.InvitePending, userdata.InviteRejected, nil)
	if errors.Is(err, models.ErrStaleState) {
		return nil, s.lostRace(ctx, code)
	}
	if err != nil {
		return nil, storageError(err, "rejecting invite")
	}

	invite.Status = userdata.InviteRejected
	transitionsMetric.WithLabelValues(string(userdata.InviteRejected)).Inc()
	log.Info().Int64("team", invite.TeamId).Str("code", code).Msg("Invite rejected")

	return invite, nil
}

// Get returns the invite for code. A PENDING invite past its expiry is moved
// to EXPIRED before it is returned.
func (s *Service) Get(ctx context.Context, code string) (*userdata.Invite, error) {
	invite, err := s.store.FindInviteByCode(ctx, code)
	if err != nil {
		return nil, storageError(err, "finding invite")
	}

	if invite.Status == userdata.InvitePending && invite.IsExpired(s.opts.Now()) {
		if err := s.expire(ctx, invite); err != nil {
			return nil, err
		}
	}

	return invite, nil
}

// ListPending returns the pending invites of a team, newest first. Overdue
// invites found on the way are expired and left out.
func (s *Service) ListPending(ctx context.Context, teamId int64) ([]userdata.Invite, error) {
	return s.List(ctx, teamId, userdata.InvitePending)
}

// List returns the invites of a team in the given status, or in any status
// when status is empty.
func (s *Service) List(ctx context.Context, teamId int64, status userdata.InviteStatus) ([]userdata.Invite, error) {
	invites, err := s.store.ListInvites(ctx, teamId, status)
	if err != nil {
		return nil, storageError(err, "listing invites")
	}
	return s.sweep(ctx, invites, status), nil
}

// ListForUser returns the invites addressed to a GitHub username.
func (s *Service) ListForUser(ctx context.Context, username string, status userdata.InviteStatus) ([]userdata.Invite, error) {
	invites, err := s.store.ListInvitesForUser(ctx, username, status)
	if err != nil {
		return nil, storageError(err, "listing invites")
	}
	return s.sweep(ctx, invites, status), nil
}

func (s *Service) CheckLimit(ctx context.Context, inviterId, teamId int64) LimitStatus {
	status := LimitStatus{MaxPerHour: ratelimit.Invites.Max}

	if !s.limiter.Enabled() {
		status.Remaining = ratelimit.Invites.Max
		status.Status = LimitDisabled
		return status
	}

	status.Remaining = s.limiter.Remaining(ctx, ratelimit.InviteKey(inviterId, teamId), ratelimit.Invites.Max)
	status.Status = LimitAvailable
	if status.Remaining == 0 {
		status.Status = LimitExhausted
	}

	return status
}

// sweep expires overdue pending invites in place. They are dropped from the
// result when only pending invites were asked for.
func (s *Service) sweep(ctx context.Context, invites []userdata.Invite, status userdata.InviteStatus) []userdata.Invite {
	now := s.opts.Now()
	res := invites[:0]
	for i := range invites {
		invite := &invites[i]
		if invite.Status == userdata.InvitePending && invite.IsExpired(now) {
			if err := s.expire(ctx, invite); err != nil {
				log.Warn().Err(err).Str("code", invite.Code).Msg("Could not expire invite")
			}
			if status == userdata.InvitePending {
				continue
			}
		}
		res = append(res, *invite)
	}
	return res
}

// expire moves a PENDING invite to EXPIRED. When another writer got there
// first, invite.Status is set to whatever that writer stored.
func (s *Service) expire(ctx context.Context, invite *userdata.Invite) error {
	if !invite.Status.CanTransition(userdata.InviteExpired) {
		return nil
	}

	err := s.store.UpdateInviteStatus(ctx, invite.Code, userdata.InvitePending, userdata.InviteExpired, nil)
	if errors.Is(err, models.ErrStaleState) {
		current, err := s.store.FindInviteByCode(ctx, invite.Code)
		if err != nil {
			return storageError(err, "finding invite")
		}
		invite.Status = current.Status
		return nil
	}
	if err != nil {
		return storageError(err, "expiring invite")
	}

	invite.Status = userdata.InviteExpired
	transitionsMetric.WithLabelValues(string(userdata.InviteExpired)).Inc()
	log.Info().Int64("team", invite.TeamId).Str("code", invite.Code).Msg("Invite expired")
	return nil
}

// lostRace reports the status a concurrent writer moved the invite to.
func (s *Service) lostRace(ctx context.Context, code string) error {
	current, err := s.store.FindInviteByCode(ctx, code)
	if err != nil {
		return storageError(err, "finding invite")
	}
	return &InvalidStateError{Status: current.Status}
}
