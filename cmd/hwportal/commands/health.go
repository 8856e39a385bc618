package commands

import (
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/dispatch"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Prints the effective configuration without touching a browser.",
	Run: func(cmd *cobra.Command, args []string) {
		d, _, cleanup := newDispatcher()
		defer cleanup()

		printResponse(d.Dispatch(cmd.Context(), dispatch.Request{
			Tool: dispatch.ToolHealth,
		}))
	},
}
