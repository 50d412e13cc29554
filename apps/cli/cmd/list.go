package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the cases of case files",
	Long: `List the cases defined in .hit.yaml files with their request line,
tags and bench role.

Examples:
  hitplate list api.hit.yaml
  hitplate list ./cases/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, file := range files {
		cases, err := suite.Load(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(out, "\n%s:\n", file)
		for _, c := range cases {
			fmt.Fprintf(out, "  - %s  %s\n", c.DisplayName(), requestLine(c.Request))
			if len(c.Tags) > 0 {
				fmt.Fprintf(out, "    tags: %s\n", strings.Join(c.Tags, ", "))
			}
			if role := benchRole(c); role != "" {
				fmt.Fprintf(out, "    bench: %s\n", role)
			}
			if c.Skip != "" {
				fmt.Fprintf(out, "    skip: %s\n", c.Skip)
			}
		}
	}
	return nil
}

func requestLine(request string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(request), "\n")
	return strings.TrimSpace(line)
}

func benchRole(c *suite.Case) string {
	b := c.Bench
	switch {
	case b == nil:
		return ""
	case b.Skip:
		return "skip"
	case b.Setup:
		return "setup"
	case b.Teardown:
		return "teardown"
	case b.Weight > 1:
		return fmt.Sprintf("weight %d", b.Weight)
	default:
		return ""
	}
}
