package ratelimit

import (
	"strconv"
	"time"
)

type Policy struct {
	Prefix  string
	Window  time.Duration
	Max     int64
	Message string
}

// Key joins the policy prefix with the actor and scope identifiers.
func (p Policy) Key(actor, scope string) string {
	return p.Prefix + actor + ":" + scope
}

var (
	Global = Policy{
		Prefix:  "ratelimit:",
		Window:  time.Minute,
		Max:     100,
		Message: "Too many requests, please try again later.",
	}
	PerUser = Policy{
		Prefix:  "user-ratelimit:",
		Window:  time.Hour,
		Max:     50,
		Message: "Too many requests, please try again later.",
	}
	Strict = Policy{
		Prefix:  "strict-ratelimit:",
		Window:  15 * time.Minute,
		Max:     5,
		Message: "Too many login attempts. Please try again later.",
	}
	Generous = Policy{
		Prefix:  "public-ratelimit:",
		Window:  time.Minute,
		Max:     1000,
		Message: "Too many requests, please try again later.",
	}
	Invites = Policy{
		Prefix:  "invite-ratelimit:",
		Window:  time.Hour,
		Max:     10,
		Message: "Invite limit reached for this team, please try again later.",
	}
)

func InviteKey(inviterId, teamId int64) string {
	return Invites.Key(strconv.FormatInt(inviterId, 10), strconv.FormatInt(teamId, 10))
}
