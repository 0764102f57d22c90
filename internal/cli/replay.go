package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessellate-io/causeway/internal/harness"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Scenario string
}

// ReplayResult holds the replay outcome for a scenario.
type ReplayResult struct {
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Trace    []harness.TraceEvent `json:"trace"`
	Errors   []string             `json:"errors,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a packet scenario and verify its expectations",
		Long: `Replay a YAML packet scenario against a router with scripted time and
verify the scenario's expect clauses and assertions.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed (expectation or assertion mismatch)
  2 - Command error (scenario not found, malformed YAML, etc.)

Examples:
  causeway replay --scenario testdata/scenarios/accept_then_skew_reject.yaml
  causeway replay --scenario scenario.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "path to scenario YAML (required)")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(opts.Scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	replay := ReplayResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Trace:    result.Trace,
		Errors:   result.Errors,
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		if err := formatter.Success(replay); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		if opts.Verbose {
			for _, ev := range replay.Trace {
				verdict := "accepted"
				if !ev.Accepted {
					verdict = "rejected"
				}
				fmt.Fprintf(out, "[%d] %s from %s -> clock (%d, %d)\n",
					ev.Seq, verdict, ev.Origin, ev.Physical, ev.Logical)
			}
		}
		if replay.Pass {
			fmt.Fprintf(out, "PASS %s (%d packets)\n", replay.Scenario, len(replay.Trace))
		} else {
			fmt.Fprintf(out, "FAIL %s\n", replay.Scenario)
			for _, msg := range replay.Errors {
				fmt.Fprintf(out, "  %s\n", msg)
			}
		}
	}

	if !replay.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", replay.Scenario))
	}
	return nil
}
