// -- cmd/apply.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/backend"
	"github.com/applypilot/applypilot-cli/internal/history"
	"github.com/applypilot/applypilot-cli/internal/observability"
	"github.com/applypilot/applypilot-cli/internal/orchestrator"
	"github.com/applypilot/applypilot-cli/internal/store"
)

var (
	applyAutoSubmit  bool
	applySmartFill   bool
	applyHeadless    bool
	applyProfilePath string
)

var applyCmd = &cobra.Command{
	Use:   "apply <url>",
	Short: "Open a job posting, recognize its application form and fill it.",
	Long: `Apply navigates to the given job posting, waits until the page is
recognized as an application form, fills every recognized field from
your profile and then watches for the submission confirmation. The run
ends when the application is confirmed or the command is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyAutoSubmit, "auto-submit", false, "click the submit control after a clean fill pass")
	applyCmd.Flags().BoolVar(&applySmartFill, "smart-fill", true, "fill recognized fields automatically")
	applyCmd.Flags().BoolVar(&applyHeadless, "headless", true, "run the browser headless")
	applyCmd.Flags().StringVar(&applyProfilePath, "profile", "", "local profile JSON file (overrides the backend)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	targetURL := args[0]

	if cmd.Flags().Changed("headless") {
		appCfg.SetBrowserHeadless(applyHeadless)
	}
	if applyProfilePath != "" {
		appCfg.SetProfilePath(applyProfilePath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collab, cleanup, err := buildCollaborators(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	collab.Flags = &flagOverrides{
		inner:      collab.Flags,
		smartFill:  changedBool(cmd, "smart-fill", applySmartFill),
		autoSubmit: changedBool(cmd, "auto-submit", applyAutoSubmit),
	}

	orch, err := orchestrator.New(appCfg, logger, collab)
	if err != nil {
		return err
	}

	outcome, err := orch.Run(ctx, targetURL)
	if err != nil {
		return err
	}
	printOutcome(cmd, outcome)
	return nil
}

// buildCollaborators wires the backend (when configured), the local
// profile fallback, the flag store and the history ledger.
func buildCollaborators(ctx context.Context, logger *zap.Logger) (orchestrator.Collaborators, func(), error) {
	var collab orchestrator.Collaborators
	cleanup := func() {}

	client, err := backend.New(appCfg.Backend(), logger)
	switch {
	case err == nil:
		collab.Profile = client
		collab.Tracker = client
		collab.Analyzer = client
		collab.CoverLetters = client
		collab.Resume = client
	case errors.Is(err, backend.ErrNotConfigured):
		logger.Info("No backend configured; running from the local profile.")
	default:
		return collab, cleanup, err
	}

	if path := appCfg.Profile().Path; path != "" {
		local, err := backend.NewFileProfile(path)
		if err != nil {
			return collab, cleanup, err
		}
		collab.Profile = local
	}
	if collab.Profile == nil {
		return collab, cleanup, fmt.Errorf("no profile source: set backend.api_url or pass --profile")
	}

	flags, err := store.NewFlagStore("")
	if err != nil {
		return collab, cleanup, err
	}
	collab.Flags = flags

	ledger, err := history.Open(ctx, appCfg.History(), logger)
	if err != nil {
		logger.Warn("History store unavailable.", zap.Error(err))
	} else {
		collab.History = ledger
		cleanup = ledger.Close
	}

	collab.Notifier = &consoleNotifier{}
	return collab, cleanup, nil
}

func printOutcome(cmd *cobra.Command, outcome *orchestrator.Outcome) {
	out := cmd.OutOrStdout()
	if outcome.Job.Title != "" {
		fmt.Fprintf(out, "Job:       %s", outcome.Job.Title)
		if outcome.Job.Company != "" {
			fmt.Fprintf(out, " at %s", outcome.Job.Company)
		}
		fmt.Fprintln(out)
	}
	if outcome.Match != nil {
		fmt.Fprintf(out, "Match:     %d%%\n", outcome.Match.MatchScore)
	}
	if outcome.Fill != nil {
		fmt.Fprintf(out, "Fill:      %d found, %d filled, %d failed\n",
			outcome.Fill.FieldsFound, outcome.Fill.FieldsFilled, outcome.Fill.FieldsFailed)
	}
	if outcome.Submitted {
		fmt.Fprintln(out, "Submitted: yes, application tracked")
	} else {
		fmt.Fprintln(out, "Submitted: not confirmed")
	}
}

// flagOverrides layers CLI switches over the persisted feature flags.
type flagOverrides struct {
	inner      schemas.FlagStore
	smartFill  *bool
	autoSubmit *bool
}

func (f *flagOverrides) Load() (schemas.FeatureFlags, error) {
	flags := schemas.FeatureFlags{SmartFill: true}
	if f.inner != nil {
		loaded, err := f.inner.Load()
		if err != nil {
			return flags, err
		}
		flags = loaded
	}
	if f.smartFill != nil {
		flags.SmartFill = *f.smartFill
	}
	if f.autoSubmit != nil {
		flags.AutoSubmit = *f.autoSubmit
	}
	return flags, nil
}

func (f *flagOverrides) Save(flags schemas.FeatureFlags) error {
	if f.inner == nil {
		return nil
	}
	return f.inner.Save(flags)
}

func changedBool(cmd *cobra.Command, name string, value bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

// consoleNotifier prints pipeline-level outcomes to stderr.
type consoleNotifier struct{}

func (consoleNotifier) Notify(level, message string) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", level, message)
}
