package email

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/utils-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	mail "github.com/xhit/go-simple-mail/v2"
)

type Config struct {
	SmtpHost         string `env:"SMTP_HOST"`
	SmtpPort         int    `env:"SMTP_PORT" envDefault:"587"`
	SmtpUser         string `env:"SMTP_USER"`
	SmtpPassword     string `env:"SMTP_PASSWORD"`
	SmtpSkipInsecure bool   `env:"SMTP_SKIP_INSECURE" envDefault:"false"`
	From             string `env:"FROM"`
}

type Users interface {
	GetUserByUsername(ctx context.Context, username string) (*userdata.User, error)
}

type Teams interface {
	GetTeam(ctx context.Context, teamId int64) (*userdata.Team, error)
}

const inviteSubject = "You have been invited to {{team.name}}"

const inviteBody = `<p>Hi {{user.username}},</p>
<p>You have been invited to join <b>{{team.name}}</b>.</p>
<p>Run <code>teams invite accept {{invite.code}}</code> before {{invite.expires}} to join.</p>`

// InviteNotifier emails registered users when they receive an invite. It does
// nothing while no SMTP host is configured.
type InviteNotifier struct {
	config *Config
	users  Users
	teams  Teams
	send   func(msg *mail.Email) error
}

func NewInviteNotifier(config *Config, users Users, teams Teams) *InviteNotifier {
	n := &InviteNotifier{config: config, users: users, teams: teams}
	n.send = n.sendSmtp
	return n
}

func (n *InviteNotifier) InviteSent(ctx context.Context, invite *userdata.Invite) error {
	if n.config.SmtpHost == "" {
		return nil
	}

	user, err := n.users.GetUserByUsername(ctx, invite.InvitedUser)
	if errors.Is(err, models.ErrNotFound) {
		log.Debug().Str("user", invite.InvitedUser).Msg("Invited user is not registered, skipping email")
		return nil
	}
	if err != nil {
		return err
	}
	if user.Email == "" {
		return nil
	}

	team, err := n.teams.GetTeam(ctx, invite.TeamId)
	if err != nil {
		return err
	}

	vars := user.ToMap()
	vars["{{team.name}}"] = team.Name
	vars["{{invite.code}}"] = invite.Code
	vars["{{invite.expires}}"] = invite.ExpiresAt.Format(time.RFC1123)

	from := n.config.From
	if from == "" {
		from = n.config.SmtpUser
	}

	msg := mail.NewMSG()
	msg.SetFrom(from).AddTo(user.Email).SetSubject(utils.Format(inviteSubject, vars)).SetBody(mail.TextHTML, utils.Format(inviteBody, vars))
	if msg.Error != nil {
		return msg.Error
	}

	return errors.Wrap(n.send(msg), "sending invite email")
}

func (n *InviteNotifier) sendSmtp(msg *mail.Email) error {
	server := mail.NewSMTPClient()
	server.Host = n.config.SmtpHost
	server.Port = n.config.SmtpPort
	server.Username = n.config.SmtpUser
	server.Password = n.config.SmtpPassword
	server.Encryption = mail.EncryptionSTARTTLS
	server.TLSConfig = &tls.Config{InsecureSkipVerify: n.config.SmtpSkipInsecure}
	server.SendTimeout = 10 * time.Second
	server.ConnectTimeout = 10 * time.Second

	client, err := server.Connect()
	if err != nil {
		return err
	}
	defer client.Close()

	return msg.Send(client)
}
