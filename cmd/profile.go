// -- cmd/profile.go --
package cmd

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/backend"
	"github.com/applypilot/applypilot-cli/internal/observability"
)

var profileFilePath string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect the applicant profile used for filling.",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved profile as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile(cmd)
		if err != nil {
			return err
		}
		raw, err := jsoniter.MarshalIndent(profile, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	},
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the profile for missing or malformed fields.",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile(cmd)
		if err != nil {
			return err
		}
		if err := profile.Validate(); err != nil {
			return fmt.Errorf("profile is invalid: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "profile is valid")
		return nil
	},
}

func init() {
	profileCmd.PersistentFlags().StringVar(&profileFilePath, "profile", "", "local profile JSON file (overrides the backend)")
	profileCmd.AddCommand(profileShowCmd, profileValidateCmd)
	rootCmd.AddCommand(profileCmd)
}

// loadProfile prefers an explicit local file, then the configured
// path, then the backend.
func loadProfile(cmd *cobra.Command) (*schemas.UserProfile, error) {
	path := profileFilePath
	if path == "" {
		path = appCfg.Profile().Path
	}
	if path != "" {
		local, err := backend.NewFileProfile(path)
		if err != nil {
			return nil, err
		}
		return local.GetUserProfile(cmd.Context())
	}

	client, err := backend.New(appCfg.Backend(), observability.GetLogger())
	if err != nil {
		if errors.Is(err, backend.ErrNotConfigured) {
			return nil, fmt.Errorf("no profile source: set backend.api_url or pass --profile")
		}
		return nil, err
	}
	return client.GetUserProfile(cmd.Context())
}
