package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
	"github.com/abdul-hamid-achik/hitplate/packages/http"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Print the requests a case file would send",
	Long: `Resolve the bindings of every case and print the materialized request
text without sending it. Captures from earlier cases are not available, so
{{case.name}} references stay unresolved.

Examples:
  hitplate build users.hit.yaml
  hitplate build users.hit.yaml --name "create user" --env-file .env`,
	Args: cobra.ExactArgs(1),
	RunE: buildCommand,
}

var buildNameFlag string

func init() {
	addSessionFlags(buildCmd)
	buildCmd.Flags().StringVarP(&buildNameFlag, "name", "n", "", "Build only cases whose name contains this text")
}

func buildCommand(cmd *cobra.Command, args []string) error {
	cases, err := suite.Load(args[0])
	if err != nil {
		return exitWith(ExitParseError, err)
	}

	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	s.options.NameFilter = buildNameFlag

	out := cmd.OutOrStdout()
	built := 0
	for _, c := range cases {
		if !s.options.Matches(c) {
			continue
		}
		r, err := suite.Prepare(c, s.resolver, s.options)
		if err != nil {
			return exitWith(ExitParseError, err)
		}
		req, err := r.BuildRequest()
		if err != nil {
			return exitWith(ExitParseError, fmt.Errorf("%s: %w", c.DisplayName(), err))
		}

		if built > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "### %s\n", c.DisplayName())
		if r.BaseURL() != "" {
			fmt.Fprintf(out, "# %s %s\n", req.Method, http.JoinURL(r.BaseURL(), req.Path))
		}
		if v := r.Validate(); !v.Valid() {
			fmt.Fprintf(out, "# not ready: %s\n", v.Error())
		}
		fmt.Fprintln(out, req.Text)
		built++
	}

	if built == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no cases matched in %s", args[0]))
	}
	return nil
}
