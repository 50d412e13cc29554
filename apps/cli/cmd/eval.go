package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/abdul-hamid-achik/hitplate/packages/criteria"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <criteria>",
	Short: "Evaluate criteria against given variables",
	Long: `Evaluate a criteria expression against variables given on the command
line and print the verdict with every accessor it resolved.

Variables are declared as name:Type=value. The type is optional and
defaults to String; arrays take a JSON value.

Examples:
  hitplate eval "count > 2 && name like 'A%'" --var count:Int=3 --var name=Ann
  hitplate eval "ids.Count = 2" --var 'ids:Array<Int>=[1,2]'`,
	Args: cobra.ExactArgs(1),
	RunE: evalCommand,
}

var evalVarsFlag []string

func init() {
	evalCmd.Flags().StringArrayVar(&evalVarsFlag, "var", nil, "Variable as name:Type=value (repeatable)")
}

func evalCommand(cmd *cobra.Command, args []string) error {
	reg := registry.New()
	for _, decl := range evalVarsFlag {
		if err := declareVariable(reg, decl); err != nil {
			return exitWith(ExitUsageError, err)
		}
	}

	result, err := criteria.Check(args[0], reg)
	if err != nil {
		return exitWith(ExitParseError, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Detail())
	if !result.Passed() {
		return exitWith(ExitTestFailure, errors.New("criteria not satisfied"))
	}
	return nil
}

// declareVariable registers the variable described by name:Type=value.
func declareVariable(reg *registry.Registry, decl string) error {
	head, value, ok := strings.Cut(decl, "=")
	if !ok {
		return fmt.Errorf("invalid variable %q, expected name:Type=value", decl)
	}
	name, keyword, _ := strings.Cut(head, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("invalid variable %q, name is empty", decl)
	}

	t, err := vartype.Parse(keyword)
	if err != nil {
		return fmt.Errorf("variable %s: %w", name, err)
	}
	reg.Register(registry.NewVariable(name, t, registry.SourceRequest, ""))
	if _, err := reg.SetFromString(name, value); err != nil {
		return err
	}
	return nil
}
