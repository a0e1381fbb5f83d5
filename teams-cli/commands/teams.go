package commands

import (
	"fmt"
	"strconv"

	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/teams-cli/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Look up users",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "me",
			Short: "Show your profile and teams",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				userId, err := a.currentUser()
				if err != nil {
					return err
				}

				user, err := a.users.GetUser(cmd.Context(), userId)
				if err != nil {
					return err
				}
				teams, err := a.teams.ListUserTeams(cmd.Context(), userId)
				if err != nil {
					return err
				}

				printUser(cmd, user)
				return printTeams(cmd, teams, a.cfg.ActiveTeam)
			}),
		},
		&cobra.Command{
			Use:   "get <username>",
			Short: "Show a registered user",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				user, err := a.users.GetUserByUsername(cmd.Context(), args[0])
				if err != nil {
					return errors.Wrapf(err, "user %s", args[0])
				}

				printUser(cmd, user)
				return nil
			}),
		},
	)

	return cmd
}

func printUser(cmd *cobra.Command, user *userdata.User) {
	tw := newTable(cmd, "Id", "Username", "Email", "Status", "Joined")
	email := user.Email
	if email == "" {
		email = "-"
	}
	tw.AppendRow([]interface{}{user.Id, user.Username, email, user.ActivityStatus, formatTime(&user.CreatedAt)})
	tw.Render()
}

func printTeams(cmd *cobra.Command, teams []userdata.Team, active int64) error {
	if len(teams) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No teams yet, create one with `teams team create <name>`")
		return nil
	}

	tw := newTable(cmd, "", "Id", "Name", "Slug", "Created")
	for _, team := range teams {
		marker := ""
		if team.Id == active {
			marker = "*"
		}
		tw.AppendRow([]interface{}{marker, team.Id, team.Name, team.Slug, formatTime(&team.CreatedAt)})
	}
	tw.Render()
	return nil
}

func newTeamCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Create, inspect and select teams",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a team and make it the active team",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			userId, err := a.currentUser()
			if err != nil {
				return err
			}

			team := &userdata.Team{Name: args[0]}
			if err := a.teams.AddTeamTx(cmd.Context(), team, userId); err != nil {
				return err
			}
			if err := config.Save(map[string]interface{}{"activeTeam": team.Id}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created team %s (id %d, slug %s)\n", team.Name, team.Id, team.Slug)
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your teams",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			userId, err := a.currentUser()
			if err != nil {
				return err
			}

			teams, err := a.teams.ListUserTeams(cmd.Context(), userId)
			if err != nil {
				return err
			}
			return printTeams(cmd, teams, a.cfg.ActiveTeam)
		}),
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show a team with its members",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			team, err := a.teams.GetTeam(cmd.Context(), teamId)
			if err != nil {
				return err
			}
			members, err := a.teams.ListMembers(cmd.Context(), teamId)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d, slug %s)\n", team.Name, team.Id, team.Slug)
			printMembers(cmd, members)
			return nil
		}),
	}
	addTeamFlag(get)

	use := &cobra.Command{
		Use:   "use <teamId>",
		Short: "Select the team other commands default to",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			teamId, err := parseId(args[0])
			if err != nil {
				return err
			}

			userId, err := a.currentUser()
			if err != nil {
				return err
			}
			member, err := a.teams.IsMember(cmd.Context(), userId, teamId)
			if err != nil {
				return err
			}
			if !member {
				return errors.Errorf("you are not a member of team %d", teamId)
			}

			if err := config.Save(map[string]interface{}{"activeTeam": teamId}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Active team is now %d\n", teamId)
			return nil
		}),
	}

	remove := &cobra.Command{
		Use:   "delete",
		Short: "Delete a team with its repositories, commits and invites",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("refusing to delete without --yes")
			}

			if err := spin("Deleting team", func() error {
				return a.teams.DeleteTeam(cmd.Context(), teamId)
			}); err != nil {
				return err
			}

			if a.cfg.ActiveTeam == teamId {
				if err := config.Save(map[string]interface{}{"activeTeam": 0}); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted team %d\n", teamId)
			return nil
		}),
	}
	addTeamFlag(remove)
	remove.Flags().Bool("yes", false, "confirm the deletion")

	leave := &cobra.Command{
		Use:   "leave",
		Short: "Leave a team",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			userId, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			if err := a.teams.RemoveMember(cmd.Context(), userId, teamId); err != nil {
				return err
			}
			if a.cfg.ActiveTeam == teamId {
				if err := config.Save(map[string]interface{}{"activeTeam": 0}); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Left team %d\n", teamId)
			return nil
		}),
	}
	addTeamFlag(leave)

	cmd.AddCommand(create, list, get, use, remove, leave)
	return cmd
}

func newMemberCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage team members",
	}

	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Add a registered user to the team",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			user, err := a.users.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrapf(err, "user %s", args[0])
			}
			if err := a.teams.AddMember(cmd.Context(), user.Id, teamId); err != nil {
				return errors.Wrapf(err, "adding %s", user.Username)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to team %d\n", user.Username, teamId)
			return nil
		}),
	}
	addTeamFlag(add)

	remove := &cobra.Command{
		Use:   "remove <username>",
		Short: "Remove a member from the team",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			user, err := a.users.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrapf(err, "user %s", args[0])
			}
			if err := a.teams.RemoveMember(cmd.Context(), user.Id, teamId); err != nil {
				return errors.Wrapf(err, "%s is not a member of team %d", user.Username, teamId)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from team %d\n", user.Username, teamId)
			return nil
		}),
	}
	addTeamFlag(remove)

	list := &cobra.Command{
		Use:   "list",
		Short: "List team members",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			members, err := a.teams.ListMembers(cmd.Context(), teamId)
			if err != nil {
				return err
			}

			printMembers(cmd, members)
			return nil
		}),
	}
	addTeamFlag(list)

	cmd.AddCommand(add, remove, list)
	return cmd
}

func printMembers(cmd *cobra.Command, members []userdata.TeamMember) {
	tw := newTable(cmd, "User", "Username", "Activity", "Last active", "Joined")
	for _, member := range members {
		username := "-"
		if member.User != nil {
			username = member.User.Username
		}
		tw.AppendRow([]interface{}{member.UserId, username, member.ActivityStatus, formatTime(member.LastActiveAt), formatTime(&member.JoinedAt)})
	}
	tw.Render()
}

func parseId(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("%q is not a valid id", raw)
	}
	return id, nil
}
