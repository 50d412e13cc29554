package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/hitplate/packages/core/runner"
	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Check case files without sending requests",
	Long: `Parse the templates and criteria of every case without sending
anything. Bindings are not resolved.

Examples:
  hitplate validate users.hit.yaml
  hitplate validate ./cases/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	hasErrors := false
	for _, file := range files {
		cases, err := suite.Load(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		var problems []error
		for _, c := range cases {
			if err := validateCase(c); err != nil {
				problems = append(problems, fmt.Errorf("%s: %w", c.DisplayName(), err))
			}
		}
		if len(problems) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s:\n", file)
			for _, p := range problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", p)
			}
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d cases)\n", file, len(cases))
	}

	if hasErrors {
		return exitWith(ExitParseError, errors.New("validation failed"))
	}
	return nil
}

// validateCase parses the templates and criteria of c into a scratch runner.
func validateCase(c *suite.Case) error {
	r := runner.NewRunner(nil)
	r.SetWarnFunc(warn)
	return errors.Join(
		r.LoadRequestTemplate(c.Request),
		r.LoadResponseTemplate(c.Response),
		r.LoadCriteria(c.Criteria),
	)
}
