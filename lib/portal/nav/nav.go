// Package nav moves a portal page between views with the tolerance
// school portals demand: the navigation itself must succeed, settling
// afterwards is best effort.
package nav

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/portal"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("portal/nav")

// DefaultStabilizeTimeout bounds how long Goto waits for a page to go
// quiet after it has loaded.
const DefaultStabilizeTimeout = 10 * time.Second

// Goto navigates to url and waits for the page to settle. Pages that
// never go idle are normal on portals full of analytics beacons, so a
// timed-out settle is logged and treated as loaded.
func Goto(ctx context.Context, page portal.Page, url string, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "Goto", trace.WithAttributes(attribute.String("url", url)))
	defer span.End()

	if timeout <= 0 {
		timeout = DefaultStabilizeTimeout
	}

	err := page.Navigate(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return fmt.Errorf("goto %s: %w", url, err)
	}

	err = page.WaitStable(ctx, timeout)
	if err != nil {
		span.AddEvent("page never settled")
		slog.DebugContext(ctx, "page never settled, continuing anyway", "url", url, "err", err)
	}
	return nil
}
