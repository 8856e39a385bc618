// Package browser runs a real chromium over the devtools protocol and
// adapts it to the portal.Page surface. Everything above it is
// browser-agnostic, this is the only package that knows about rod.
package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/browser")

type Options struct {
	Headless bool
	// explicit chrome/chromium binary, otherwise rod looks one up
	Bin         string
	UserDataDir string
}

type Browser struct {
	rod      *rod.Browser
	launcher *launcher.Launcher
}

func Launch(ctx context.Context, opts Options) (*Browser, error) {
	ctx, span := tracer.Start(ctx, "client:Launch")
	defer span.End()

	l := launcher.New().Headless(opts.Headless).Leakless(true)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	controlUrl, err := l.Launch()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlUrl).Context(ctx)
	err = b.Connect()
	if err != nil {
		l.Kill()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to connect to browser")
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	slog.DebugContext(ctx, "launched browser", "headless", opts.Headless)
	return &Browser{rod: b, launcher: l}, nil
}

// Close shuts the browser down and removes the launcher's temporary
// profile directory.
func (b *Browser) Close() {
	err := b.rod.Close()
	if err != nil {
		slog.Debug("failed to close browser", "err", err)
	}
	b.launcher.Cleanup()
}

func (b *Browser) NewPage(ctx context.Context) (*Page, error) {
	ctx, span := tracer.Start(ctx, "client:NewPage")
	defer span.End()

	p, err := b.rod.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create page")
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &Page{page: p.Context(ctx)}, nil
}

// CaptureState snapshots every cookie the browser holds plus the
// localStorage of the page's current origin.
func (b *Browser) CaptureState(ctx context.Context, page *Page) (State, error) {
	ctx, span := tracer.Start(ctx, "client:CaptureState")
	defer span.End()

	cookies, err := b.rod.GetCookies()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get cookies")
		return State{}, fmt.Errorf("get cookies: %w", err)
	}

	state := State{Cookies: fromNetworkCookies(cookies)}
	if origin, ok := page.storageSnapshot(ctx); ok {
		state.Origins = []OriginState{origin}
	}
	return state, nil
}

// RestoreState loads cookies into the browser right away and stashes
// localStorage entries on the page, to be injected after the first
// navigation that lands on a matching origin. Stale state restoring
// onto a logged-out portal is harmless, the login flow runs anyway.
func (b *Browser) RestoreState(ctx context.Context, page *Page, state State) error {
	ctx, span := tracer.Start(ctx, "client:RestoreState")
	defer span.End()

	if len(state.Cookies) > 0 {
		err := b.rod.SetCookies(cookieParams(state.Cookies))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to set cookies")
			return fmt.Errorf("set cookies: %w", err)
		}
	}
	page.pendingStorage = state.Origins
	slog.DebugContext(ctx, "restored browser state",
		"cookies", len(state.Cookies), "origins", len(state.Origins))
	return nil
}
