package commands

import (
	"fmt"

	"github.com/automate/teams-server/models/userdata"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newAnalyticsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Member activity and commit leaderboards",
	}

	activity := &cobra.Command{
		Use:   "activity",
		Short: "Classify team members by their latest commit",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			res, err := a.analytics.ComputeMemberActivity(cmd.Context(), teamId)
			if err != nil {
				return err
			}

			tw := newTable(cmd, "User", "Status", "Last commit")
			for _, member := range res {
				tw.AppendRow([]interface{}{member.Username, activityStatus(member.Status), formatTime(member.LastActiveAt)})
			}
			tw.Render()
			return nil
		}),
	}
	addTeamFlag(activity)

	leaderboard := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank authors by commit count",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			res, err := a.analytics.Leaderboard(cmd.Context(), teamId)
			if err != nil {
				return err
			}
			if len(res) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No commits imported yet")
				return nil
			}

			tw := newTable(cmd, "#", "Author", "Commits", "Last commit")
			for _, entry := range res {
				tw.AppendRow([]interface{}{entry.Rank, entry.Author, entry.Commits, formatTime(&entry.LastCommitAt)})
			}
			tw.Render()
			return nil
		}),
	}
	addTeamFlag(leaderboard)

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Recompute activity for every team",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := spin("Refreshing activity", func() error {
				return a.analytics.RefreshAll(cmd.Context())
			}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Activity refreshed")
			return nil
		}),
	}

	cmd.AddCommand(activity, leaderboard, refresh)
	return cmd
}

func activityStatus(status string) string {
	switch status {
	case userdata.Active7Days:
		return text.FgGreen.Sprint(status)
	case userdata.Inactive:
		return text.FgRed.Sprint(status)
	}
	return text.FgYellow.Sprint(status)
}
