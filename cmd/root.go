// -- cmd/root.go --
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/internal/config"
	"github.com/applypilot/applypilot-cli/internal/observability"
)

var (
	cfgFile string
	appCfg  *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "applypilot",
	Short:   "ApplyPilot fills job applications for you, one page at a time.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Local .env first, so APPLYPILOT_* values are visible to viper.
		_ = godotenv.Load()

		if err := initializeConfig(); err != nil {
			return err
		}

		cfg, err := config.NewConfigFromViper(viper.GetViper())
		if err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "applypilot"})
			return err
		}
		appCfg = cfg

		observability.InitializeLogger(cfg.Logger())
		observability.GetLogger().Debug("Starting ApplyPilot.", zap.String("version", Version))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeConfig reads in the config file and APPLYPILOT_* env vars.
func initializeConfig() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("APPLYPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars carry the run.
	}
	return nil
}
