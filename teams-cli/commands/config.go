package commands

import (
	"fmt"
	"strings"

	"github.com/automate/teams-server/teams-cli/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// written by login and logout only
var managedKeys = map[string]bool{"userid": true, "username": true}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write CLI settings",
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := configKey(args[0])
			if err != nil {
				return err
			}
			if managedKeys[strings.ToLower(key)] {
				return errors.Errorf("%s is set by `teams login`", key)
			}

			viper.Set(key, args[1])
			if _, err := config.Load(); err != nil {
				return err
			}
			if err := config.Save(map[string]interface{}{key: args[1]}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, args[1])
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := configKey(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), displayValue(key))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd, "Key", "Value")
			for _, key := range config.Keys {
				tw.AppendRow([]interface{}{key, displayValue(key)})
			}
			tw.AppendFooter([]interface{}{"file", config.Path()})
			tw.Render()
			return nil
		},
	}

	cmd.AddCommand(set, get, list)
	return cmd
}

func configKey(raw string) (string, error) {
	for _, key := range config.Keys {
		if strings.EqualFold(key, raw) {
			return key, nil
		}
	}
	return "", errors.Errorf("unknown setting %q, expected one of %s", raw, strings.Join(config.Keys, ", "))
}

func displayValue(key string) string {
	value := viper.GetString(key)
	if strings.EqualFold(key, "redisPassword") && value != "" {
		return "********"
	}
	if strings.EqualFold(key, "dsn") {
		return redactDsn(value)
	}
	return value
}

// redactDsn hides the password of a postgres:// connection string.
func redactDsn(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(creds, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":********@" + host
}
