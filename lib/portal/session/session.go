// Package session owns the browser lifecycle around tool calls:
// launch, state restore, persistence and teardown. Sessions are
// acquired per call and always released.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dp-pcs/noah-hw-mcp/lib/browser"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("portal/session")

type Options struct {
	StatePath string
	Browser   browser.Options
	// base url and markers for the stored-state preflight probe
	BaseUrl string
	Markers []string
}

type Store struct {
	opts Options
}

func NewStore(opts Options) Store {
	return Store{opts: opts}
}

// Session is one live browser plus the page the tools drive. Not safe
// for concurrent use, each tool call acquires its own.
type Session struct {
	browser *browser.Browser
	page    *browser.Page
	opts    Options
}

// Acquire launches a browser and restores whatever session state the
// last run persisted. A missing or corrupt state file starts a fresh
// session, it never fails the call.
func (s Store) Acquire(ctx context.Context) (*Session, error) {
	ctx, span := tracer.Start(ctx, "service:Acquire")
	defer span.End()

	state, ok := browser.ReadStateFile(s.opts.StatePath)
	span.SetAttributes(attribute.Bool("stored_state", ok))
	if !ok {
		slog.DebugContext(ctx, "no stored session state, starting fresh", "path", s.opts.StatePath)
	}

	b, err := browser.Launch(ctx, s.opts.Browser)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		return nil, err
	}
	page, err := b.NewPage(ctx)
	if err != nil {
		b.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open page")
		return nil, err
	}

	if ok {
		// advisory only: a hit means the stored session probably still
		// works, the authenticator verifies in-browser either way
		hit := Probe(ctx, ProbeOptions{
			BaseUrl: s.opts.BaseUrl,
			Markers: s.opts.Markers,
			State:   state,
		})
		span.SetAttributes(attribute.Bool("probe_hit", hit))
		slog.DebugContext(ctx, "stored session preflight", "looks_valid", hit)

		err = b.RestoreState(ctx, page, state)
		if err != nil {
			slog.WarnContext(ctx, "failed to restore session state", "err", err)
		}
	}

	return &Session{browser: b, page: page, opts: s.opts}, nil
}

func (s *Session) Page() portal.Page {
	return s.page
}

// Persist snapshots the live browser state over the previous state
// file.
func (s *Session) Persist(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "service:Persist")
	defer span.End()

	state, err := s.browser.CaptureState(ctx, s.page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to capture state")
		return err
	}
	err = browser.WriteStateFile(s.opts.StatePath, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write state file")
		return fmt.Errorf("write state file: %w", err)
	}
	slog.DebugContext(ctx, "persisted session state",
		"path", s.opts.StatePath, "cookies", len(state.Cookies))
	return nil
}

// Release tears the browser down. Teardown errors are logged, the tool
// result is already decided by the time this runs.
func (s *Session) Release() {
	s.page.Close()
	s.browser.Close()
}
