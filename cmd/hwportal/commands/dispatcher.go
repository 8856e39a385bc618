package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dp-pcs/noah-hw-mcp/lib/browser"
	"github.com/dp-pcs/noah-hw-mcp/lib/gradestore"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/auth"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/dispatch"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/session"
	"github.com/dp-pcs/noah-hw-mcp/lib/util/serviceutil"
)

// newDispatcher assembles the scraping pipeline from the on-disk
// config. The returned cleanup closes the snapshots db when one is
// open.
func newDispatcher() (dispatch.Dispatcher, portal.Config, func()) {
	cfg, err := portal.LoadConfig()
	if err != nil {
		serviceutil.Fatal("failed to load config", err)
	}

	store := session.NewStore(session.Options{
		StatePath: cfg.StatePath,
		BaseUrl:   cfg.BaseUrl,
		Markers:   loggedInMarkers(cfg),
		Browser: browser.Options{
			Headless:    !cfg.Headful,
			Bin:         cfg.Browser.Bin,
			UserDataDir: cfg.Browser.UserDataDir,
		},
	})

	opts := dispatch.Options{
		Config: cfg,
		Sessions: dispatch.SessionSourceFunc(func(ctx context.Context) (dispatch.Session, error) {
			return store.Acquire(ctx)
		}),
	}
	cleanup := func() {}
	if cfg.SnapshotsDb != "" {
		snapshots, err := gradestore.Open(cfg.SnapshotsDb)
		if err != nil {
			serviceutil.Fatal("failed to open snapshots db", err)
		}
		opts.Snapshots = &snapshots
		cleanup = func() {
			snapshots.Close()
		}
	}

	return dispatch.New(opts), cfg, cleanup
}

func loggedInMarkers(cfg portal.Config) []string {
	if len(cfg.Selectors.LoggedIn) > 0 {
		return cfg.Selectors.LoggedIn
	}
	return auth.DefaultSelectors.LoggedIn
}

func marshalArgs(payload map[string]any) json.RawMessage {
	if len(payload) == 0 {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		serviceutil.Fatal("failed to encode arguments", err)
	}
	return raw
}

// printResponse renders the envelope and exits nonzero on failure, so
// shell callers can branch on the tool outcome.
func printResponse(res dispatch.Response) {
	buf, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		serviceutil.Fatal("failed to render response", err)
	}
	fmt.Println(string(buf))
	if !res.Success {
		os.Exit(1)
	}
}
