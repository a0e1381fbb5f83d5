package invites

import (
	"errors"
	"fmt"
	"time"

	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
)

var (
	ErrNotAuthorized      = errors.New("you are not a member of this team")
	ErrNotFound           = errors.New("invite not found")
	ErrInvalidState       = errors.New("invite is not pending")
	ErrExpired            = errors.New("invite has expired")
	ErrAlreadyMember      = errors.New("you are already a member of this team")
	ErrRateLimitExceeded  = errors.New("invite rate limit exceeded")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InvalidStateError carries the status the invite was found in.
type InvalidStateError struct {
	Status userdata.InviteStatus
}

func (e *InvalidStateError) Error() string {
	return "invite is already " + string(e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("invite rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

func storageError(err error, action string) error {
	switch {
	case errors.Is(err, models.ErrUnavailable):
		return fmt.Errorf("%s: %w: %w", action, ErrStorageUnavailable, err)
	case errors.Is(err, models.ErrNotFound):
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}
