package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitplate/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hitplate project",
	Long: `Initialize a new hitplate project in the current directory.

This creates:
  - .hitplate.json      - Configuration file
  - example.hit.yaml    - Example case file

Examples:
  hitplate init
  hitplate init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleCases = `# Cases run top to bottom. Values captured by a case are available to the
# ones after it as {{caseName.variable}}.
name: createItem
request: |
  POST /items
  Content-Type: application/json

  {"name": "@(itemName)", "tags": "@Array<String>(tags)"}
response: |
  201 Created

  {"id": "@Int(id)", "createdAt": "@DateTime(createdAt:yyyy-MM-dd)"}
criteria: id > 0
variables:
  itemName: "Item {{$randomString(6)}}"
  tags: [demo, hitplate]
tags: [smoke]
---
name: getItem
request: GET /items/@Int(id)
response: |
  200 OK

  {"name": "@(name)", "tags": "@Array<String>(tags)"}
criteria: name like 'Item%' && tags.Count = 2
variables:
  id: "{{createItem.id}}"
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	exampleFile := filepath.Join(cwd, "example.hit.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return exitWith(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://localhost:3000"
	cfg.Headers = map[string]string{"User-Agent": "hitplate/" + version}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleCases), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitplate project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitplate run example.hit.yaml' to execute the example cases.\n")
	return nil
}
