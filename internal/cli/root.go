package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stackgen-labs/stackgen/internal/branding"
	"github.com/stackgen-labs/stackgen/internal/config"
	"github.com/stackgen-labs/stackgen/internal/logging"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"log-level":       config.KeyLogLevel,
	"log-format":      config.KeyLogFormat,
	"name":            config.KeyProjectName,
	"dir":             config.KeyDir,
	"template":        config.KeyTemplate,
	"package-manager": config.KeyPackageManager,
	"skip-install":    config.KeySkipInstall,
	"skip-patch":      config.KeySkipPatch,
	"parallel":        config.KeyParallel,
	"install-timeout": config.KeyInstallTimeout,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/"+branding.HomeDir()+"/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` creates a two-tier web project (a React client and an Express backend)
from an embedded template set, patches its manifests and installs dependencies.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.UseFile(configFile)
		if err := config.Load(); err != nil {
			return err
		}
		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}

		logger := logging.New(cmd.ErrOrStderr(), logging.Options{
			Level:  viper.GetString(config.KeyLogLevel),
			Format: viper.GetString(config.KeyLogFormat),
		})
		cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
		return nil
	},
}

// bindFlags lets flags given on the command line override env and file
// values for the config keys they correspond to.
func bindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// Execute runs the root command with build info injected via ldflags.
// Interrupts cancel the command context so a running install is stopped.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
