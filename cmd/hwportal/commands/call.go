package commands

import (
	"encoding/json"

	"github.com/dp-pcs/noah-hw-mcp/lib/portal/dispatch"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(callCmd)
}

var callCmd = &cobra.Command{
	Use:   "call <tool> [arguments-json]",
	Short: "Calls a tool by name with raw JSON arguments and prints the envelope.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		req := dispatch.Request{Tool: args[0]}
		if len(args) == 2 {
			req.Arguments = json.RawMessage(args[1])
		}

		d, _, cleanup := newDispatcher()
		defer cleanup()

		printResponse(d.Dispatch(cmd.Context(), req))
	},
}
