package nav

import (
	"context"
	"fmt"
	"testing"

	"github.com/dp-pcs/noah-hw-mcp/lib/portal/portaltest"

	"github.com/stretchr/testify/require"
)

func TestGoto(t *testing.T) {
	page := portaltest.NewPage(map[string]string{
		"https://portal.example.com/grades": "<html><body><table></table></body></html>",
	})

	err := Goto(context.Background(), page, "https://portal.example.com/grades", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"https://portal.example.com/grades"}, page.Navigations)
}

func TestGotoToleratesUnsettledPage(t *testing.T) {
	page := portaltest.NewPage(map[string]string{
		"https://portal.example.com": "<html><body></body></html>",
	})
	page.StableErr = fmt.Errorf("timeout waiting for idle")

	err := Goto(context.Background(), page, "https://portal.example.com", 0)
	require.NoError(t, err)
}

func TestGotoNavigationFailure(t *testing.T) {
	page := portaltest.NewPage(nil)
	page.NavigateErr = map[string]error{
		"https://portal.example.com": fmt.Errorf("connection refused"),
	}

	err := Goto(context.Background(), page, "https://portal.example.com", 0)
	require.ErrorContains(t, err, "connection refused")
}
