package invites

import (
	"context"
	"time"

	"github.com/automate/teams-server/models/userdata"
)

// Store is the persistence the invite service needs. Implementations report
// failures with the sentinels of the models package:
//   - FindInviteByCode returns models.ErrNotFound for an unknown code
//   - CreateInvite and AddMember return models.ErrDuplicate on unique violations
//   - UpdateInviteStatus returns models.ErrStaleState when the invite is no
//     longer in the from status
//   - connectivity problems are reported as models.ErrUnavailable
type Store interface {
	FindInviteByCode(ctx context.Context, code string) (*userdata.Invite, error)
	CreateInvite(ctx context.Context, invite *userdata.Invite) error
	UpdateInviteStatus(ctx context.Context, code string, from, to userdata.InviteStatus, acceptedAt *time.Time) error
	// ListInvites returns the invites of a team, newest first. An empty status
	// matches every status.
	ListInvites(ctx context.Context, teamId int64, status userdata.InviteStatus) ([]userdata.Invite, error)
	ListInvitesForUser(ctx context.Context, username string, status userdata.InviteStatus) ([]userdata.Invite, error)
	IsMember(ctx context.Context, userId, teamId int64) (bool, error)
	AddMember(ctx context.Context, userId, teamId int64) error
	// RunInTx runs fn against a Store bound to a single transaction. The
	// transaction is rolled back when fn returns an error.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Notifier is told about every invite created by Send.
type Notifier interface {
	InviteSent(ctx context.Context, invite *userdata.Invite) error
}
