package commands

import (
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/dispatch"

	"github.com/spf13/cobra"
)

var assignmentsSince *int

func init() {
	assignmentsSince = assignmentsCmd.Flags().Int("since", 0, "Lookback window in days, 0 uses the configured default.")
	rootCmd.AddCommand(assignmentsCmd)
}

var assignmentsCmd = &cobra.Command{
	Use:   "assignments [--since <days>]",
	Short: "Lists missing assignments inside the lookback window.",
	Run: func(cmd *cobra.Command, args []string) {
		d, _, cleanup := newDispatcher()
		defer cleanup()

		payload := map[string]any{}
		if *assignmentsSince > 0 {
			payload["since_days"] = *assignmentsSince
		}
		printResponse(d.Dispatch(cmd.Context(), dispatch.Request{
			Tool:      dispatch.ToolCheckMissingAssignments,
			Arguments: marshalArgs(payload),
		}))
	},
}
