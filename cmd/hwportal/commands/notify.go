package commands

import (
	"fmt"
	"log/slog"

	"github.com/dp-pcs/noah-hw-mcp/lib/notify"
	"github.com/dp-pcs/noah-hw-mcp/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var notifySince *int

func init() {
	notifySince = notifyCmd.Flags().Int("since", 0, "Lookback window in days, 0 uses the configured default.")
	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify [--since <days>]",
	Short: "Scrapes missing assignments and emails the digest to the configured recipients.",
	Run: func(cmd *cobra.Command, args []string) {
		d, cfg, cleanup := newDispatcher()
		defer cleanup()

		if !cfg.Notify.Configured() {
			serviceutil.Fatal(
				"notify is not configured",
				fmt.Errorf("set notify.server and notify.recipients in portal.json5"),
			)
		}

		days := *notifySince
		if days <= 0 {
			days = cfg.SinceDays
		}
		data, err := d.CheckMissingAssignments(cmd.Context(), days)
		if err != nil {
			serviceutil.Fatal("failed to scrape assignments", err)
		}

		notifier := notify.NewNotifier(notify.Options{
			Smtp: notify.SmtpConfig{
				Server:       cfg.Notify.Server,
				Port:         cfg.Notify.Port,
				EmailAddress: cfg.Notify.EmailAddress,
				Password:     cfg.Notify.Password,
			},
			Recipients: cfg.Notify.Recipients,
		})
		err = notifier.SendMissingAssignments(cmd.Context(), data.Items)
		if err != nil {
			serviceutil.Fatal("failed to send digest", err)
		}
		slog.Info("sent missing-assignment digest",
			"assignments", data.Count,
			"recipients", len(cfg.Notify.Recipients))
	},
}
