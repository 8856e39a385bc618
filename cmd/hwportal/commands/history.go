package commands

import (
	"fmt"
	"os"

	"github.com/dp-pcs/noah-hw-mcp/lib/gradestore"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal"
	"github.com/dp-pcs/noah-hw-mcp/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyCourse *string

func init() {
	historyCourse = historyCmd.Flags().String("course", "", "Limit history to one course.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--course <name>]",
	Short: "Renders the stored grade snapshots as a table.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := portal.LoadConfig()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		if cfg.SnapshotsDb == "" {
			serviceutil.Fatal("no snapshots db configured", fmt.Errorf("set snapshots_db in portal.json5"))
		}

		store, err := gradestore.Open(cfg.SnapshotsDb)
		if err != nil {
			serviceutil.Fatal("failed to open snapshots db", err)
		}
		defer store.Close()

		var series []gradestore.CourseSnapshotSeries
		if *historyCourse != "" {
			course, err := store.PullCourse(cmd.Context(), *historyCourse)
			if err != nil {
				serviceutil.Fatal("failed to read snapshots", err)
			}
			series = []gradestore.CourseSnapshotSeries{course}
		} else {
			series, err = store.Pull(cmd.Context())
			if err != nil {
				serviceutil.Fatal("failed to read snapshots", err)
			}
		}

		t := newTable()
		t.AppendHeader(table.Row{"Course", "Date", "Grade"})
		for _, s := range series {
			for _, snapshot := range s.Snapshots {
				t.AppendRow(table.Row{
					s.Course,
					snapshot.Time.Format("2006-01-02"),
					fmt.Sprintf("%.1f", snapshot.Value),
				})
			}
		}
		t.Render()
	},
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
