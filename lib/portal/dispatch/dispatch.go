// Package dispatch maps the named tools onto the scraping pipeline and
// shapes every outcome, including panics, into the response envelope.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/gradestore"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/auth"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/courses"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/extract"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/nav"
	"github.com/dp-pcs/noah-hw-mcp/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("portal/dispatch")

const (
	ToolCheckMissingAssignments = "check_missing_assignments"
	ToolGetCourseGrades         = "get_course_grades"
	ToolHealth                  = "health"
)

const defaultSinceDays = 14

type Request struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// Response is the envelope every tool call returns. Error is only set
// when Success is false.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type AssignmentsData struct {
	Count int                  `json:"count"`
	Items []extract.Assignment `json:"items"`
}

type GradesData struct {
	// the caller's course argument echoed back, null when none was
	// given
	CourseFilter *string               `json:"course_filter"`
	Items        []extract.GradeSample `json:"items"`
}

type HealthData struct {
	Time                  string `json:"time"`
	BaseUrl               string `json:"base_url"`
	LoginUrl              string `json:"login_url"`
	StateFile             string `json:"state_file"`
	CredentialsConfigured bool   `json:"credentials_configured"`
}

// Session is one live browser session. The dispatcher owns its
// lifetime: acquired per tool call, released on every exit path.
type Session interface {
	Page() portal.Page
	Persist(ctx context.Context) error
	Release()
}

type SessionSource interface {
	Acquire(ctx context.Context) (Session, error)
}

type SessionSourceFunc func(ctx context.Context) (Session, error)

func (f SessionSourceFunc) Acquire(ctx context.Context) (Session, error) {
	return f(ctx)
}

type Options struct {
	Config   portal.Config
	Sessions SessionSource
	// optional grade history sink, nil disables snapshot recording
	Snapshots *gradestore.Store
}

type Dispatcher struct {
	cfg       portal.Config
	sessions  SessionSource
	auth      auth.Authenticator
	extractor extract.Extractor
	catalog   courses.Catalog
	snapshots *gradestore.Store
}

func New(opts Options) Dispatcher {
	return Dispatcher{
		cfg:      opts.Config,
		sessions: opts.Sessions,
		auth: auth.New(auth.Options{
			BaseUrl:     opts.Config.BaseUrl,
			LoginUrl:    opts.Config.FullLoginUrl(),
			Credentials: opts.Config.Credentials,
			Selectors: auth.Selectors{
				Username: opts.Config.Selectors.Username,
				Password: opts.Config.Selectors.Password,
				Submit:   opts.Config.Selectors.Submit,
				LoggedIn: opts.Config.Selectors.LoggedIn,
				Success:  opts.Config.Selectors.Success,
			},
			CaptureDir: opts.Config.CaptureDir,
		}),
		extractor: extract.New(opts.Config.Extract),
		catalog:   courses.NewCatalog(opts.Config.CourseAliases, opts.Config.CourseLinks),
		snapshots: opts.Snapshots,
	}
}

type assignmentArgs struct {
	SinceDays *int `json:"since_days"`
}

type gradeArgs struct {
	Course    string `json:"course"`
	SinceDays *int   `json:"since_days"`
}

// Dispatch routes a raw tool request. It never panics and never
// returns an error: every failure mode becomes an error envelope so
// the process survives any single tool call.
func (d Dispatcher) Dispatch(ctx context.Context, req Request) (res Response) {
	ctx, span := tracer.Start(ctx, "service:Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("tool", req.Tool))

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("panic: %v", r)
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool call panicked")
		slog.ErrorContext(ctx, "tool call panicked", "tool", req.Tool, "panic", r)
		res = Response{Success: false, Error: err.Error()}
	}()

	switch req.Tool {
	case ToolCheckMissingAssignments:
		var args assignmentArgs
		if err := unmarshalArgs(req.Arguments, &args); err != nil {
			return errorResponse(span, err)
		}
		days, err := d.resolveSinceDays(args.SinceDays)
		if err != nil {
			return errorResponse(span, err)
		}
		data, err := d.CheckMissingAssignments(ctx, days)
		if err != nil {
			return errorResponse(span, err)
		}
		return Response{Success: true, Data: data}

	case ToolGetCourseGrades:
		var args gradeArgs
		if err := unmarshalArgs(req.Arguments, &args); err != nil {
			return errorResponse(span, err)
		}
		days, err := d.resolveSinceDays(args.SinceDays)
		if err != nil {
			return errorResponse(span, err)
		}
		data, err := d.GetCourseGrades(ctx, args.Course, days)
		if err != nil {
			return errorResponse(span, err)
		}
		return Response{Success: true, Data: data}

	case ToolHealth:
		return Response{Success: true, Data: d.Health()}

	default:
		return Response{Success: false, Error: fmt.Sprintf("Unknown tool: %s", req.Tool)}
	}
}

// CheckMissingAssignments scrapes the missing-work view and returns
// everything due inside the lookback window.
func (d Dispatcher) CheckMissingAssignments(ctx context.Context, sinceDays int) (AssignmentsData, error) {
	ctx, span := tracer.Start(ctx, "service:CheckMissingAssignments")
	defer span.End()
	span.SetAttributes(attribute.Int("since_days", sinceDays))

	sess, err := d.sessions.Acquire(ctx)
	if err != nil {
		return AssignmentsData{}, fmt.Errorf("acquire session: %w", err)
	}
	defer sess.Release()

	doc, err := d.fetchDocument(ctx, sess, d.cfg.AssignmentsUrl)
	if err != nil {
		return AssignmentsData{}, err
	}

	items := d.extractor.Assignments(ctx, doc, d.cutoff(sinceDays))
	span.SetAttributes(attribute.Int("count", len(items)))
	return AssignmentsData{Count: len(items), Items: items}, nil
}

// GetCourseGrades scrapes recent grade records. When the course filter
// resolves to a dedicated course page that page is scraped instead of
// the overview, and no further filtering is needed.
func (d Dispatcher) GetCourseGrades(ctx context.Context, course string, sinceDays int) (GradesData, error) {
	ctx, span := tracer.Start(ctx, "service:GetCourseGrades")
	defer span.End()
	span.SetAttributes(attribute.Int("since_days", sinceDays))

	url := d.cfg.GradesUrl
	filter := course
	if course != "" {
		if m, ok := d.catalog.Resolve(course); ok {
			url = m.Url
			filter = ""
			span.SetAttributes(attribute.String("course_page", m.Key))
		} else if hint, ok := d.catalog.Suggest(course); ok {
			slog.DebugContext(ctx, "no dedicated page for course filter", "course", course, "closest", hint)
		}
	}

	sess, err := d.sessions.Acquire(ctx)
	if err != nil {
		return GradesData{}, fmt.Errorf("acquire session: %w", err)
	}
	defer sess.Release()

	doc, err := d.fetchDocument(ctx, sess, url)
	if err != nil {
		return GradesData{}, err
	}

	items := d.extractor.Grades(ctx, doc, d.cutoff(sinceDays), filter)
	span.SetAttributes(attribute.Int("count", len(items)))

	d.recordSnapshots(ctx, items)

	var echo *string
	if course != "" {
		echo = &course
	}
	return GradesData{CourseFilter: echo, Items: items}, nil
}

// Health reports the effective configuration without touching a
// browser.
func (d Dispatcher) Health() HealthData {
	return HealthData{
		Time:                  timezone.Now().Format(time.RFC3339),
		BaseUrl:               d.cfg.BaseUrl,
		LoginUrl:              d.cfg.FullLoginUrl(),
		StateFile:             d.cfg.StateFileAbs(),
		CredentialsConfigured: d.cfg.Credentials.Configured(),
	}
}

// fetchDocument runs the shared front half of a scraping tool: make
// the session usable, reach the target view, hand back its DOM.
func (d Dispatcher) fetchDocument(ctx context.Context, sess Session, url string) (*goquery.Document, error) {
	state, err := d.auth.EnsureLoggedIn(ctx, sess)
	if err != nil {
		if !errors.Is(err, auth.NoUsernameField) && !errors.Is(err, auth.NoPasswordField) {
			return nil, fmt.Errorf("ensure logged in: %w", err)
		}
		// a missing login field leaves the session logged out but the
		// portal reachable, extraction proceeds and reports what it
		// actually sees
		slog.WarnContext(ctx, "login flow aborted, extracting anyway", "state", state.String(), "err", err)
	}

	err = nav.Goto(ctx, sess.Page(), url, nav.DefaultStabilizeTimeout)
	if err != nil {
		return nil, err
	}
	html, err := sess.Page().HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return doc, nil
}

// recordSnapshots feeds scraped samples into the history store.
// History is a side channel, its failures never fail the tool call.
func (d Dispatcher) recordSnapshots(ctx context.Context, items []extract.GradeSample) {
	if d.snapshots == nil {
		return
	}
	var snapshots []gradestore.CourseSnapshot
	for _, item := range items {
		if item.GradePercent == nil {
			continue
		}
		snapshots = append(snapshots, gradestore.CourseSnapshot{
			Course: item.Course,
			Value:  *item.GradePercent,
		})
	}
	if len(snapshots) == 0 {
		return
	}
	err := d.snapshots.Push(ctx, gradestore.PushRequest{
		Time:    timezone.Now(),
		Courses: snapshots,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record grade snapshots", "err", err)
	}
}

func (d Dispatcher) resolveSinceDays(arg *int) (int, error) {
	days := d.cfg.SinceDays
	if days == 0 {
		days = defaultSinceDays
	}
	if arg != nil {
		days = *arg
	}
	if days < 0 {
		return 0, fmt.Errorf("since_days must be >= 0")
	}
	return days, nil
}

// cutoff is local midnight sinceDays ago, so the window covers whole
// days.
func (d Dispatcher) cutoff(sinceDays int) time.Time {
	return timezone.StartOfDay(timezone.Now()).AddDate(0, 0, -sinceDays)
}

func unmarshalArgs(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	err := json.Unmarshal(raw, into)
	if err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func errorResponse(span trace.Span, err error) Response {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Response{Success: false, Error: err.Error()}
}
