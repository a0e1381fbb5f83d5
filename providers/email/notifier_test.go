package email

import (
	"context"
	"testing"
	"time"

	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "github.com/xhit/go-simple-mail/v2"
)

type stubUsers map[string]*userdata.User

func (s stubUsers) GetUserByUsername(_ context.Context, username string) (*userdata.User, error) {
	if user, ok := s[username]; ok {
		return user, nil
	}
	return nil, models.ErrNotFound
}

type stubTeams struct{}

func (stubTeams) GetTeam(_ context.Context, teamId int64) (*userdata.Team, error) {
	return &userdata.Team{Id: teamId, Name: "Platform"}, nil
}

func TestInviteSent(t *testing.T) {
	users := stubUsers{
		"bob":   {Username: "bob", Email: "bob@example.com"},
		"carol": {Username: "carol"},
	}
	invite := func(to string) *userdata.Invite {
		return &userdata.Invite{Code: "ABCD1234", TeamId: 3, InvitedUser: to, ExpiresAt: time.Now().Add(time.Hour)}
	}

	newNotifier := func(host string) (*InviteNotifier, *[]*mail.Email) {
		sent := make([]*mail.Email, 0)
		n := NewInviteNotifier(&Config{SmtpHost: host, SmtpUser: "teams@example.com"}, users, stubTeams{})
		n.send = func(msg *mail.Email) error {
			sent = append(sent, msg)
			return nil
		}
		return n, &sent
	}

	t.Run("should email registered users", func(t *testing.T) {
		n, sent := newNotifier("smtp.example.com")

		require.NoError(t, n.InviteSent(context.Background(), invite("bob")))

		require.Len(t, *sent, 1)
		message := (*sent)[0].GetMessage()
		assert.Contains(t, message, "bob@example.com")
		assert.Contains(t, message, "You have been invited to Platform")
	})

	t.Run("should skip unknown users and users without email", func(t *testing.T) {
		n, sent := newNotifier("smtp.example.com")

		require.NoError(t, n.InviteSent(context.Background(), invite("dave")))
		require.NoError(t, n.InviteSent(context.Background(), invite("carol")))

		assert.Empty(t, *sent)
	})

	t.Run("should do nothing without smtp host", func(t *testing.T) {
		n, sent := newNotifier("")

		require.NoError(t, n.InviteSent(context.Background(), invite("bob")))

		assert.Empty(t, *sent)
	})
}
