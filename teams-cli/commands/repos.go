package commands

import (
	"fmt"
	"time"

	"github.com/automate/teams-server/providers/githubapi"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRepoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Connect GitHub repositories to a team",
	}

	connect := &cobra.Command{
		Use:   "connect <owner/repo>",
		Short: "Connect a repository and import its commits",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			owner, name, err := githubapi.SplitFullName(args[0])
			if err != nil {
				return err
			}

			api, err := a.github()
			if err != nil {
				return err
			}
			syncer := githubapi.NewSyncer(api, a.repositories)

			var added int64
			err = spin("Importing "+args[0], func() error {
				repo, err := syncer.Connect(cmd.Context(), teamId, owner, name)
				if err != nil {
					return err
				}
				added, err = syncer.Sync(cmd.Context(), repo, time.Time{})
				return err
			})
			if err != nil {
				return errors.Wrapf(err, "connecting %s", args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Connected %s, imported %d commits\n", args[0], added)
			return nil
		}),
	}
	addTeamFlag(connect)

	list := &cobra.Command{
		Use:   "list",
		Short: "List the team's repositories",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			res, err := a.repositories.ListRepositories(cmd.Context(), teamId)
			if err != nil {
				return err
			}
			if len(res) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No repositories, connect one with `teams repo connect <owner/repo>`")
				return nil
			}

			tw := newTable(cmd, "Id", "Repository", "Visibility", "Stars", "Forks", "Connected")
			for _, repo := range res {
				visibility := "public"
				if repo.Private {
					visibility = text.FgYellow.Sprint("private")
				}
				tw.AppendRow([]interface{}{repo.Id, repo.FullName, visibility, repo.Stars, repo.Forks, formatTime(&repo.CreatedAt)})
			}
			tw.Render()
			return nil
		}),
	}
	addTeamFlag(list)

	disconnect := &cobra.Command{
		Use:   "disconnect <owner/repo>",
		Short: "Remove a repository and its commits",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			repo, err := a.repositories.GetRepository(cmd.Context(), teamId, args[0])
			if err != nil {
				return errors.Wrapf(err, "repository %s", args[0])
			}
			if err := a.repositories.DeleteRepository(cmd.Context(), repo.Id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Disconnected %s\n", repo.FullName)
			return nil
		}),
	}
	addTeamFlag(disconnect)

	sync := &cobra.Command{
		Use:   "sync <owner/repo>",
		Short: "Import new commits of a connected repository",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			repo, err := a.repositories.GetRepository(cmd.Context(), teamId, args[0])
			if err != nil {
				return errors.Wrapf(err, "repository %s", args[0])
			}

			var since time.Time
			if d, _ := cmd.Flags().GetDuration("since"); d > 0 {
				since = time.Now().Add(-d)
			}

			api, err := a.github()
			if err != nil {
				return err
			}

			var added int64
			err = spin("Syncing "+repo.FullName, func() error {
				added, err = githubapi.NewSyncer(api, a.repositories).Sync(cmd.Context(), repo, since)
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new commits\n", added)
			return nil
		}),
	}
	addTeamFlag(sync)
	sync.Flags().Duration("since", 0, "only fetch commits newer than this, e.g. 72h")

	cmd.AddCommand(connect, list, disconnect, sync)
	return cmd
}

func newCommitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Browse imported commits",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the latest commits across the team's repositories",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			_, teamId, err := a.team(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 || limit > 500 {
				return errors.New("--limit must be between 1 and 500")
			}

			res, err := a.repositories.ListCommits(cmd.Context(), teamId, limit)
			if err != nil {
				return err
			}

			tw := newTable(cmd, "Sha", "Author", "Message", "Date")
			for _, c := range res {
				tw.AppendRow([]interface{}{shortSha(c.Sha), c.Author, text.Trim(firstLine(c.Message), 60), formatTime(&c.CreatedAt)})
			}
			tw.Render()
			return nil
		}),
	}
	addTeamFlag(list)
	list.Flags().Int("limit", 20, "number of commits to show")

	cmd.AddCommand(list)
	return cmd
}

func shortSha(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(message string) string {
	for i, r := range message {
		if r == '\n' {
			return message[:i]
		}
	}
	return message
}
