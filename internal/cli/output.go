package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/questapi/quest/internal/core"
	"github.com/questapi/quest/internal/eventbus"
)

// newConsoleSubscriber prints one line per request result and one per
// console()/exception as they happen, grounded on the teacher's verbose
// progress callback (internal/cli/run.go's WithProgressCallback use).
func newConsoleSubscriber(out io.Writer) eventbus.Subscriber {
	return func(e eventbus.Event) {
		switch e.Kind {
		case eventbus.AfterRequest:
			if e.Envelope != nil {
				fmt.Fprintf(out, "  %s\n", e.Envelope.Path)
			}
		case eventbus.Console:
			if line, ok := e.Payload.(string); ok {
				fmt.Fprintf(out, "    console: %s\n", line)
			}
		case eventbus.Exception:
			if msg, ok := e.Payload.(string); ok {
				fmt.Fprintf(out, "    error: %s\n", msg)
			}
		}
	}
}

// printSummary prints a human-readable run summary, grounded on the
// teacher's outputRunResultsHuman (internal/cli/run.go).
func printSummary(cmd *cobra.Command, result *core.RunResult) error {
	out := cmd.OutOrStdout()

	if len(result.ValidationErrors) > 0 {
		fmt.Fprintln(out, "Validation failed:")
		for _, ve := range result.ValidationErrors {
			fmt.Fprintf(out, "  %s: %s\n", ve.Path, ve.Message)
		}
		return fmt.Errorf("quest: %d validation error(s)", len(result.ValidationErrors))
	}

	fmt.Fprintln(out)
	for _, rr := range result.RequestResults {
		status := "ok"
		if rr.Error != nil {
			status = "error"
		}
		statusCode := 0
		if rr.Response != nil {
			statusCode = rr.Response.Status
		}
		fmt.Fprintf(out, "%-6s %-30s %3d  %s\n", status, rr.Path, statusCode, rr.Duration)
		for _, t := range rr.Tests {
			mark := "pass"
			switch {
			case t.Skipped:
				mark = "skip"
			case !t.Passed:
				mark = "FAIL"
			}
			fmt.Fprintf(out, "    [%s] %s\n", mark, t.Name)
			if t.Error != "" {
				fmt.Fprintf(out, "         %s\n", t.Error)
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Requests: %d\n", len(result.RequestResults))
	fmt.Fprintf(out, "Tests:    %d passed, %d failed, %d skipped\n",
		result.PassedTests, result.FailedTests, result.SkippedTests)
	if result.Aborted {
		fmt.Fprintf(out, "Aborted:  %s\n", result.AbortReason)
	}

	if result.FailedTests > 0 || result.Aborted {
		return fmt.Errorf("quest: run did not complete cleanly")
	}
	return nil
}

// printJSON prints the full RunResult as JSON, grounded on the teacher's
// outputRunResultsJSON (internal/cli/run.go), but using encoding/json
// instead of the teacher's hand-written field-by-field writer.
func printJSON(cmd *cobra.Command, result *core.RunResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
