// Package portal defines the shared surface of the parent-portal
// scraping flows: the page abstraction the authenticator, navigator
// and extractor drive, and the configuration object they all receive.
package portal

import (
	"context"
	"log/slog"
	"time"
)

// Element is a single interactable element on a portal page.
type Element interface {
	// Fill focuses the element, clears it and types the given value.
	Fill(ctx context.Context, value string) error
	Click(ctx context.Context) error
}

// Page is a live browser tab. lib/browser provides the real
// implementation, portaltest provides an in-memory one.
type Page interface {
	// Navigate loads the given url and waits for the document to load.
	Navigate(ctx context.Context, url string) error
	// WaitStable waits for the page to settle down, up to the given
	// timeout. Portals that never go idle are common, callers treat a
	// timeout as "loaded enough" rather than a failure.
	WaitStable(ctx context.Context, timeout time.Duration) error
	// Find probes the candidate selectors in order and returns the
	// first element present on the page.
	Find(ctx context.Context, selectors []string) (Element, bool)
	// Probe reports whether a marker is currently visible. A marker is
	// either a css selector or a "text=..." fragment matched against
	// the rendered text of the page.
	Probe(ctx context.Context, marker string) bool
	PressEnter(ctx context.Context) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, path string) error
}

// ProbeAny returns the first marker of the list visible on the page.
func ProbeAny(ctx context.Context, page Page, markers []string) (string, bool) {
	for _, marker := range markers {
		if page.Probe(ctx, marker) {
			return marker, true
		}
	}
	return "", false
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Configured() bool {
	return c.Username != "" && c.Password != ""
}

// LogValue keeps the password out of log output no matter how
// carelessly a call site logs the struct.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", "<redacted>"),
	)
}
