package userdata

import (
	"time"

	"github.com/uptrace/bun"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteAccepted InviteStatus = "ACCEPTED"
	InviteRejected InviteStatus = "REJECTED"
	InviteExpired  InviteStatus = "EXPIRED"
)

func (s InviteStatus) Valid() bool {
	switch s {
	case InvitePending, InviteAccepted, InviteRejected, InviteExpired:
		return true
	}
	return false
}

// CanTransition reports whether an invite may move from s to next.
// Only PENDING has outgoing edges.
func (s InviteStatus) CanTransition(next InviteStatus) bool {
	return s == InvitePending && next != InvitePending && next.Valid()
}

type Invite struct {
	bun.BaseModel `bun:"userdata.invites,alias:i"`

	Id          int64        `bun:",pk,autoincrement" json:"id"`
	Code        string       `bun:",unique,notnull" json:"code"`
	TeamId      int64        `bun:",notnull" json:"team_id"`
	Team        *Team        `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty"`
	InvitedBy   int64        `bun:",notnull" json:"invited_by"`
	Inviter     *User        `bun:"rel:belongs-to,join:invited_by=id" json:"inviter,omitempty"`
	InvitedUser string       `bun:",notnull" json:"invited_user"`
	Status      InviteStatus `bun:",nullzero,notnull,default:'PENDING'" json:"status"`
	CreatedAt   time.Time    `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	ExpiresAt   time.Time    `bun:",notnull" json:"expires_at"`
	AcceptedAt  *time.Time   `json:"accepted_at,omitempty"`
}

func (i *Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
