package cmd

import (
	"errors"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/abdul-hamid-achik/hitplate/packages/defaults"
	"github.com/spf13/cobra"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Manage stored variable defaults",
	Long: `Manage the defaults kept in the SQLite store named by --defaults-db or
the defaultsDb config key. Stored defaults fill response variables that a
response does not provide.

Examples:
  hitplate defaults list --defaults-db .hitplate.db
  hitplate defaults set token abc123
  hitplate defaults delete token`,
}

var defaultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *defaults.Store) error {
			values, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(values) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No defaults in %s\n", store.Path())
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%s\n", name, values[name])
			}
			return w.Flush()
		})
	},
}

var defaultsSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Store a default value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *defaults.Store) error {
			return store.Set(cmd.Context(), args[0], args[1])
		})
	},
}

var defaultsDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a stored default",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *defaults.Store) error {
			return store.Delete(cmd.Context(), args[0])
		})
	},
}

func init() {
	pf := defaultsCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", getEnvString("HITPLATE_CONFIG", ""), "Path to config file (env: HITPLATE_CONFIG)")
	pf.StringVar(&defaultsDBFlag, "defaults-db", getEnvString("HITPLATE_DEFAULTS_DB", ""), "SQLite file holding stored variable defaults (env: HITPLATE_DEFAULTS_DB)")

	defaultsCmd.AddCommand(defaultsListCmd)
	defaultsCmd.AddCommand(defaultsSetCmd)
	defaultsCmd.AddCommand(defaultsDeleteCmd)
}

// withStore opens the configured defaults store for the length of fn.
func withStore(cmd *cobra.Command, fn func(*defaults.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	if cfg.DefaultsDB == "" {
		return exitWith(ExitUsageError, errors.New("no defaults store, set --defaults-db or defaultsDb in the config file"))
	}

	store, err := defaults.Open(cfg.DefaultsDB)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	defer store.Close()
	return fn(store)
}
