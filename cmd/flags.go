// -- cmd/flags.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/applypilot/applypilot-cli/internal/store"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Show or toggle the persisted feature flags.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.NewFlagStore("")
		if err != nil {
			return err
		}
		flags, err := s.Load()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "smart-fill:  %v\nauto-submit: %v\n", flags.SmartFill, flags.AutoSubmit)
		return nil
	},
}

var flagsSetCmd = &cobra.Command{
	Use:   "set <smart-fill|auto-submit> <on|off>",
	Short: "Persist a feature flag for future runs.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.NewFlagStore("")
		if err != nil {
			return err
		}
		flags, err := s.Load()
		if err != nil {
			return err
		}

		var value bool
		switch args[1] {
		case "on", "true":
			value = true
		case "off", "false":
			value = false
		default:
			return fmt.Errorf("value must be on or off, got %q", args[1])
		}

		switch args[0] {
		case "smart-fill":
			flags.SmartFill = value
		case "auto-submit":
			flags.AutoSubmit = value
		default:
			return fmt.Errorf("unknown flag %q", args[0])
		}

		if err := s.Save(flags); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s set to %v\n", args[0], value)
		return nil
	},
}

func init() {
	flagsCmd.AddCommand(flagsSetCmd)
	rootCmd.AddCommand(flagsCmd)
}
