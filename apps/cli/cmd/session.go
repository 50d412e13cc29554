package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/core/config"
	"github.com/abdul-hamid-achik/hitplate/packages/core/env"
	"github.com/abdul-hamid-achik/hitplate/packages/core/runner"
	"github.com/abdul-hamid-achik/hitplate/packages/core/suite"
	"github.com/abdul-hamid-achik/hitplate/packages/defaults"
	"github.com/spf13/cobra"
)

// VariableEnvPrefix marks OS environment variables that become {{name}}
// values, HITPLATE_VAR_token gives {{token}}.
const VariableEnvPrefix = "HITPLATE_VAR_"

// Flags shared by the commands that send requests
var (
	configFlag     string
	baseURLFlag    string
	timeoutFlag    string
	envFileFlag    string
	defaultsDBFlag string
	proxyFlag      string
	insecureFlag   bool
	verboseFlag    bool
	noColorFlag    bool
)

func addSessionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFlag, "config", getEnvString("HITPLATE_CONFIG", ""), "Path to config file (env: HITPLATE_CONFIG)")
	f.StringVar(&baseURLFlag, "base-url", getEnvString("HITPLATE_BASE_URL", ""), "Base URL for cases without one (env: HITPLATE_BASE_URL)")
	f.StringVar(&timeoutFlag, "timeout", getEnvString("HITPLATE_TIMEOUT", ""), "Request timeout, e.g. 30s or 500ms (env: HITPLATE_TIMEOUT)")
	f.StringVar(&envFileFlag, "env-file", getEnvString("HITPLATE_ENV_FILE", ""), "Path to .env file for {{name}} bindings (env: HITPLATE_ENV_FILE)")
	f.StringVar(&defaultsDBFlag, "defaults-db", getEnvString("HITPLATE_DEFAULTS_DB", ""), "SQLite file holding stored variable defaults (env: HITPLATE_DEFAULTS_DB)")
	f.StringVar(&proxyFlag, "proxy", getEnvString("HITPLATE_PROXY", ""), "Proxy URL for HTTP requests (env: HITPLATE_PROXY)")
	f.BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HITPLATE_INSECURE", false), "Disable SSL certificate validation (env: HITPLATE_INSECURE)")
	f.BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("HITPLATE_VERBOSE", false), "Verbose output (env: HITPLATE_VERBOSE)")
	f.BoolVar(&noColorFlag, "no-color", getEnvBool("HITPLATE_NO_COLOR", false), "Disable colored output (env: HITPLATE_NO_COLOR)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

func logLine(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// session is everything a command needs to run cases: the merged config,
// the binding resolver and the stored defaults.
type session struct {
	config   *config.Config
	resolver *env.Resolver
	options  *suite.Options
	store    *defaults.Store
}

// loadConfig reads the config file and applies the command line on top.
func loadConfig() (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	overrides := &config.Config{
		BaseURL:    baseURLFlag,
		Proxy:      proxyFlag,
		DefaultsDB: defaultsDBFlag,
	}
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		overrides.Timeout = int(d.Milliseconds())
	}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	if verboseFlag {
		overrides.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}
	return fileConfig.Merge(overrides), nil
}

// newSession loads config, bindings and stored defaults. Failures are
// config errors.
func newSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	fileVars, err := env.LoadFiles(cfg.EnvFiles, true)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}
	flagVars, err := env.LoadFiles([]string{envFileFlag}, false)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	resolver := env.NewResolver()
	resolver.SetWarnFunc(warn)
	vars := env.MergeVariables(cfg.Variables, fileVars, flagVars, env.LoadSystemEnv(VariableEnvPrefix))
	if _, ok := vars["baseUrl"]; !ok && cfg.BaseURL != "" {
		vars["baseUrl"] = cfg.BaseURL
	}
	resolver.SetVariables(vars)

	s := &session{config: cfg, resolver: resolver}

	var stored map[string]string
	if cfg.DefaultsDB != "" {
		s.store, err = defaults.Open(cfg.DefaultsDB)
		if err != nil {
			return nil, exitWith(ExitConfigError, err)
		}
		stored, err = s.store.Load(ctx)
		if err != nil {
			_ = s.store.Close()
			return nil, exitWith(ExitConfigError, err)
		}
	}

	validateSSL := cfg.GetValidateSSL()
	s.options = &suite.Options{
		Runner: runner.Config{
			BaseURL:        cfg.BaseURL,
			Verbose:        cfg.GetVerbose(),
			Timeout:        cfg.GetTimeout(),
			FollowRedirect: cfg.GetFollowRedirects(),
			MaxRedirects:   cfg.MaxRedirects,
			ValidateSSL:    &validateSSL,
			Proxy:          cfg.Proxy,
			Headers:        cfg.Headers,
		},
		Resolver: resolver,
		Defaults: stored,
		Bail:     cfg.GetBail(),
		WarnFunc: warn,
	}
	if cfg.GetVerbose() {
		s.options.LogFunc = logLine
	}
	return s, nil
}

func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

// collectFiles expands directories into the case files they hold.
func collectFiles(args []string) ([]string, error) {
	files, err := suite.Discover(args)
	if err != nil {
		return nil, exitWith(ExitUsageError, err)
	}
	if len(files) == 0 {
		return nil, exitWith(ExitUsageError, fmt.Errorf("no %s files found", strings.Join(suite.FileSuffixes, " or ")))
	}
	return files, nil
}
