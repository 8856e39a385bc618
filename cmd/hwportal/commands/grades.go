package commands

import (
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/dispatch"

	"github.com/spf13/cobra"
)

var gradesCourse *string
var gradesSince *int

func init() {
	gradesCourse = gradesCmd.Flags().String("course", "", "Course nickname or name to filter by.")
	gradesSince = gradesCmd.Flags().Int("since", 0, "Lookback window in days, 0 uses the configured default.")
	rootCmd.AddCommand(gradesCmd)
}

var gradesCmd = &cobra.Command{
	Use:   "grades [--course <name>] [--since <days>]",
	Short: "Lists recent grade records, optionally for one course.",
	Run: func(cmd *cobra.Command, args []string) {
		d, _, cleanup := newDispatcher()
		defer cleanup()

		payload := map[string]any{}
		if *gradesCourse != "" {
			payload["course"] = *gradesCourse
		}
		if *gradesSince > 0 {
			payload["since_days"] = *gradesSince
		}
		printResponse(d.Dispatch(cmd.Context(), dispatch.Request{
			Tool:      dispatch.ToolGetCourseGrades,
			Arguments: marshalArgs(payload),
		}))
	},
}
