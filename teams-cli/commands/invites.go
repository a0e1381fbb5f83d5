package commands

import (
	"fmt"
	"strings"

	"github.com/automate/teams-server/invites"
	"github.com/automate/teams-server/models/userdata"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newInviteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Send and answer team invites",
	}

	send := &cobra.Command{
		Use:   "send <github username>",
		Short: "Invite a GitHub user to the team",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			userId, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			invite, err := a.invites.Send(cmd.Context(), userId, teamId, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Invited %s, code %s (expires %s)\n",
				invite.InvitedUser, text.Bold.Sprint(invite.Code), formatTime(&invite.ExpiresAt))
			return nil
		}),
	}
	addTeamFlag(send)

	accept := &cobra.Command{
		Use:   "accept <code>",
		Short: "Accept an invite and join its team",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			userId, err := a.currentUser()
			if err != nil {
				return err
			}

			invite, err := a.invites.Accept(cmd.Context(), normalizeCode(args[0]), userId)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Joined team %d\n", invite.TeamId)
			return nil
		}),
	}

	reject := &cobra.Command{
		Use:   "reject <code>",
		Short: "Reject an invite",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if _, err := a.currentUser(); err != nil {
				return err
			}

			if _, err := a.invites.Reject(cmd.Context(), normalizeCode(args[0])); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Invite rejected")
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the team's invites, or your own with --mine",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			raw, _ := cmd.Flags().GetString("status")
			status := userdata.InviteStatus(strings.ToUpper(raw))
			if status != "" && !status.Valid() {
				return errors.Errorf("unknown status %q", raw)
			}

			var res []userdata.Invite
			if mine, _ := cmd.Flags().GetBool("mine"); mine {
				if _, err := a.currentUser(); err != nil {
					return err
				}
				found, err := a.invites.ListForUser(cmd.Context(), a.cfg.Username, status)
				if err != nil {
					return err
				}
				res = found
			} else {
				_, teamId, err := a.team(cmd.Context(), cmd)
				if err != nil {
					return err
				}
				found, err := a.invites.List(cmd.Context(), teamId, status)
				if err != nil {
					return err
				}
				res = found
			}

			printInvites(cmd, res)
			return nil
		}),
	}
	addTeamFlag(list)
	list.Flags().String("status", "", "only show invites in this status (pending, accepted, rejected, expired)")
	list.Flags().Bool("mine", false, "list invites addressed to you")

	show := &cobra.Command{
		Use:   "show <code>",
		Short: "Show one invite",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			invite, err := a.invites.Get(cmd.Context(), normalizeCode(args[0]))
			if err != nil {
				return err
			}

			printInvites(cmd, []userdata.Invite{*invite})
			return nil
		}),
	}

	limit := &cobra.Command{
		Use:   "limit",
		Short: "Show how many invites you can still send this hour",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			userId, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			status := a.invites.CheckLimit(cmd.Context(), userId, teamId)

			tw := newTable(cmd, "Max per hour", "Remaining", "Status")
			tw.AppendRow([]interface{}{status.MaxPerHour, status.Remaining, limitStatus(status.Status)})
			tw.Render()
			return nil
		}),
	}
	addTeamFlag(limit)

	cmd.AddCommand(send, accept, reject, list, show, limit)
	return cmd
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func printInvites(cmd *cobra.Command, res []userdata.Invite) {
	if len(res) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No invites")
		return
	}

	tw := newTable(cmd, "Code", "Team", "Invited", "Status", "Created", "Expires", "Accepted")
	for _, invite := range res {
		team := fmt.Sprint(invite.TeamId)
		if invite.Team != nil {
			team = invite.Team.Name
		}
		tw.AppendRow([]interface{}{
			invite.Code, team, invite.InvitedUser, inviteStatus(invite.Status),
			formatTime(&invite.CreatedAt), formatTime(&invite.ExpiresAt), formatTime(invite.AcceptedAt),
		})
	}
	tw.Render()
}

func inviteStatus(status userdata.InviteStatus) string {
	switch status {
	case userdata.InvitePending:
		return text.FgYellow.Sprint(status)
	case userdata.InviteAccepted:
		return text.FgGreen.Sprint(status)
	default:
		return text.FgHiBlack.Sprint(status)
	}
}

func limitStatus(status string) string {
	switch status {
	case invites.LimitExhausted:
		return text.FgRed.Sprint(status)
	case invites.LimitAvailable:
		return text.FgGreen.Sprint(status)
	}
	return status
}
