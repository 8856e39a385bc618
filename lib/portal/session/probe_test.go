package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dp-pcs/noah-hw-mcp/lib/browser"

	"github.com/stretchr/testify/require"
)

var probeMarkerList = []string{"text=Logout", "a[href*='logout']"}

func probeServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("portal_session")
		if err == nil && c.Value == "valid" {
			fmt.Fprint(w, `<html><body><nav><a href="/logout">Logout</a></nav></body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body><form>Sign in with your district account</form></body></html>`)
	}))
}

func stateWithCookie(srv *httptest.Server, value string) browser.State {
	return browser.State{
		Cookies: []browser.Cookie{{
			Name:   "portal_session",
			Value:  value,
			Domain: "127.0.0.1",
			Path:   "/",
		}},
	}
}

func TestProbe(t *testing.T) {
	srv := probeServer()
	defer srv.Close()

	{
		ok := Probe(context.Background(), ProbeOptions{
			BaseUrl: srv.URL,
			Markers: probeMarkerList,
			State:   stateWithCookie(srv, "valid"),
		})
		require.True(t, ok)
	}
	{
		ok := Probe(context.Background(), ProbeOptions{
			BaseUrl: srv.URL,
			Markers: probeMarkerList,
			State:   stateWithCookie(srv, "expired"),
		})
		require.False(t, ok)
	}
	{
		ok := Probe(context.Background(), ProbeOptions{
			BaseUrl: srv.URL,
			Markers: probeMarkerList,
			State:   browser.State{},
		})
		require.False(t, ok)
	}
}

func TestProbeUnreachable(t *testing.T) {
	srv := probeServer()
	srv.Close()

	ok := Probe(context.Background(), ProbeOptions{
		BaseUrl: srv.URL,
		Markers: probeMarkerList,
		State:   stateWithCookie(srv, "valid"),
	})
	require.False(t, ok)
}

func TestProbeStripsForeignCookies(t *testing.T) {
	srv := probeServer()
	defer srv.Close()

	state := browser.State{
		Cookies: []browser.Cookie{
			{Name: "portal_session", Value: "valid", Domain: "127.0.0.1", Path: "/"},
			{Name: "sso_token", Value: "x", Domain: "login.microsoftonline.com", Path: "/"},
		},
	}
	ok := Probe(context.Background(), ProbeOptions{
		BaseUrl: srv.URL,
		Markers: probeMarkerList,
		State:   state,
	})
	require.True(t, ok)
}
