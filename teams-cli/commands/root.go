package commands

import (
	"fmt"
	"os"

	"github.com/automate/teams-server/teams-cli/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// set via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfgFile string

var RootCmd = &cobra.Command{
	Use:           "teams",
	Short:         "Manage teams, invites and repository analytics",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.ConfigureLogger(false)

		level, err := cmd.Flags().GetString("logLevel")
		if err != nil {
			return err
		}
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(parsed)

		return config.Init(cfgFile)
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, text.FgRed.Sprint("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.teams/config.yaml)")
	RootCmd.PersistentFlags().StringP("logLevel", "l", "warn", "log level: debug, info, warn, error")

	RootCmd.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newStatusCommand(),
		newVersionCommand(),
		newUserCommand(),
		newTeamCommand(),
		newMemberCommand(),
		newInviteCommand(),
		newRepoCommand(),
		newCommitCommand(),
		newAnalyticsCommand(),
		newConfigCommand(),
	)
}
