// Package auth drives the portal login flow: detect an existing
// session, and when there is none, walk the login form the way a
// person would. Every step probes candidate selectors and tolerates
// misses, school portals change markup without notice and the worst
// outcome of a failed login must be an empty scrape, not a crash.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/portal"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/nav"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("portal/auth")

// State tracks where a session is in the login lifecycle.
type State int

const (
	NotChecked State = iota
	CheckingLoggedIn
	AlreadyLoggedIn
	NeedsLogin
	LoginInProgress
	LoggedIn
	LoginFailed
)

func (s State) String() string {
	switch s {
	case NotChecked:
		return "not_checked"
	case CheckingLoggedIn:
		return "checking_logged_in"
	case AlreadyLoggedIn:
		return "already_logged_in"
	case NeedsLogin:
		return "needs_login"
	case LoginInProgress:
		return "login_in_progress"
	case LoggedIn:
		return "logged_in"
	case LoginFailed:
		return "login_failed"
	}
	return "unknown"
}

// Authenticated reports whether a session in this state can read
// portal data.
func (s State) Authenticated() bool {
	return s == AlreadyLoggedIn || s == LoggedIn
}

var (
	NoUsernameField = fmt.Errorf("could not find a username field on the login page")
	NoPasswordField = fmt.Errorf("could not find a password field on the login page")
)

// Selectors are the probe candidates for each login step. The defaults
// cover the portal's own form plus the Microsoft and ADFS login pages
// districts front it with.
type Selectors struct {
	Username []string
	Password []string
	Submit   []string
	LoggedIn []string
	// probed in addition to LoggedIn after a login attempt: pages that
	// only show navigation still prove the login worked
	Success []string
}

var DefaultSelectors = Selectors{
	Username: []string{
		"input[name='loginfmt']",
		"input[name='username']",
		"input[type='email']",
		"input[placeholder*='email']",
		"input[placeholder*='user']",
		"#i0116",
		"#userNameInput",
	},
	Password: []string{
		"input[name='passwd']",
		"input[name='password']",
		"input[type='password']",
		"#i0118",
		"#passwordInput",
	},
	Submit: []string{
		"input[type='submit']",
		"input[value='Sign in']",
		"input[value='Next']",
		"button[type='submit']",
		"#idSIButton9",
		".win-button",
	},
	LoggedIn: []string{
		"text=Logout",
		"text=Sign Out",
		"text=Welcome",
		"text=Dashboard",
		"[data-testid='logout']",
		".logout-button",
		"a[href*='logout']",
	},
	Success: []string{
		"text=Grades",
		"text=Assignments",
	},
}

func (s Selectors) withDefaults() Selectors {
	if len(s.Username) == 0 {
		s.Username = DefaultSelectors.Username
	}
	if len(s.Password) == 0 {
		s.Password = DefaultSelectors.Password
	}
	if len(s.Submit) == 0 {
		s.Submit = DefaultSelectors.Submit
	}
	if len(s.LoggedIn) == 0 {
		s.LoggedIn = DefaultSelectors.LoggedIn
	}
	if len(s.Success) == 0 {
		s.Success = DefaultSelectors.Success
	}
	return s
}

// Session is a live browser session whose state can be persisted for
// the next process.
type Session interface {
	Page() portal.Page
	Persist(ctx context.Context) error
}

type Options struct {
	BaseUrl     string
	LoginUrl    string
	Credentials portal.Credentials
	Selectors   Selectors
	// when set, each login step drops a screenshot under
	// <CaptureDir>/<run tag>/
	CaptureDir string
}

type Authenticator struct {
	opts Options
}

func New(opts Options) Authenticator {
	opts.Selectors = opts.Selectors.withDefaults()
	return Authenticator{opts: opts}
}

const (
	usernameSettle     = 5 * time.Second
	passwordSettle     = 15 * time.Second
	interstitialSettle = 5 * time.Second
)

// EnsureLoggedIn makes the session usable: reach the portal, detect an
// existing login, and if none is there run the credential flow. The
// returned state is meaningful even when err is non-nil, the caller
// decides how hard a failed login should fail.
func (a Authenticator) EnsureLoggedIn(ctx context.Context, sess Session) (State, error) {
	ctx, span := tracer.Start(ctx, "client:EnsureLoggedIn")
	defer span.End()

	state := CheckingLoggedIn
	defer func() {
		span.SetAttributes(attribute.String("state", state.String()))
	}()

	page := sess.Page()
	err := nav.Goto(ctx, page, a.opts.BaseUrl, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach the portal")
		return state, err
	}

	if marker, ok := portal.ProbeAny(ctx, page, a.opts.Selectors.LoggedIn); ok {
		state = AlreadyLoggedIn
		slog.DebugContext(ctx, "found existing session", "marker", marker)
		return state, nil
	}

	state = NeedsLogin
	if !a.opts.Credentials.Configured() {
		slog.WarnContext(ctx, "credentials are not configured, skipping login")
		return state, nil
	}

	state, err = a.login(ctx, sess)
	return state, err
}

func (a Authenticator) login(ctx context.Context, sess Session) (State, error) {
	ctx, span := tracer.Start(ctx, "client:login")
	defer span.End()

	tag := captureTag()
	page := sess.Page()

	err := nav.Goto(ctx, page, a.opts.LoginUrl, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach the login page")
		return LoginInProgress, err
	}
	a.capture(ctx, page, tag, "login_page")

	field, ok := page.Find(ctx, a.opts.Selectors.Username)
	if !ok {
		a.capture(ctx, page, tag, "no_username_field")
		slog.WarnContext(ctx, "no username field found, aborting login")
		span.SetStatus(codes.Error, NoUsernameField.Error())
		return LoginFailed, NoUsernameField
	}
	err = field.Fill(ctx, a.opts.Credentials.Username)
	if err != nil {
		return LoginFailed, fmt.Errorf("fill username: %w", err)
	}
	a.submit(ctx, page)
	a.settle(ctx, page, usernameSettle)
	a.capture(ctx, page, tag, "after_username")

	// the password field may live on the same form or on a second
	// screen the username submit revealed
	field, ok = page.Find(ctx, a.opts.Selectors.Password)
	if !ok {
		a.capture(ctx, page, tag, "no_password_field")
		slog.WarnContext(ctx, "no password field found, aborting login")
		span.SetStatus(codes.Error, NoPasswordField.Error())
		return LoginFailed, NoPasswordField
	}
	err = field.Fill(ctx, a.opts.Credentials.Password)
	if err != nil {
		return LoginFailed, fmt.Errorf("fill password: %w", err)
	}
	a.submit(ctx, page)
	a.settle(ctx, page, passwordSettle)
	a.capture(ctx, page, tag, "after_password")

	// "stay signed in?" style interstitials answer to the same submit
	// probes, absence is fine
	if button, ok := page.Find(ctx, a.opts.Selectors.Submit); ok {
		err := button.Click(ctx)
		if err != nil {
			slog.DebugContext(ctx, "interstitial click failed", "err", err)
		}
		a.settle(ctx, page, interstitialSettle)
	}

	state := LoginFailed
	if marker, ok := a.probeSuccess(ctx, page); ok {
		state = LoggedIn
		slog.InfoContext(ctx, "login succeeded", "marker", marker)
	} else {
		slog.WarnContext(ctx, "no success markers after login, the portal may have rejected the credentials")
		span.SetStatus(codes.Error, "no success markers after login")
	}
	a.capture(ctx, page, tag, "after_login")

	// persist either way: cookies from a half-finished flow still
	// shorten the next run, and stale state is harmless
	err = sess.Persist(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to persist session state", "err", err)
	}
	return state, nil
}

func (a Authenticator) probeSuccess(ctx context.Context, page portal.Page) (string, bool) {
	if marker, ok := portal.ProbeAny(ctx, page, a.opts.Selectors.LoggedIn); ok {
		return marker, true
	}
	return portal.ProbeAny(ctx, page, a.opts.Selectors.Success)
}

// submit clicks the first submit-looking control, or falls back to
// pressing Enter for forms that only react to the keyboard.
func (a Authenticator) submit(ctx context.Context, page portal.Page) {
	if button, ok := page.Find(ctx, a.opts.Selectors.Submit); ok {
		err := button.Click(ctx)
		if err == nil {
			return
		}
		slog.DebugContext(ctx, "submit click failed, falling back to enter", "err", err)
	}
	err := page.PressEnter(ctx)
	if err != nil {
		slog.DebugContext(ctx, "failed to press enter", "err", err)
	}
}

func (a Authenticator) settle(ctx context.Context, page portal.Page, timeout time.Duration) {
	err := page.WaitStable(ctx, timeout)
	if err != nil {
		slog.DebugContext(ctx, "page never settled, continuing anyway", "err", err)
	}
}

func (a Authenticator) capture(ctx context.Context, page portal.Page, tag, step string) {
	if a.opts.CaptureDir == "" {
		return
	}
	path := filepath.Join(a.opts.CaptureDir, tag, step+".png")
	err := page.Screenshot(ctx, path)
	if err != nil {
		slog.DebugContext(ctx, "failed to capture login step", "path", path, "err", err)
		return
	}
	slog.DebugContext(ctx, "captured login step", "path", path)
}

func captureTag() string {
	tag, err := random.String(8)
	if err != nil {
		return "login"
	}
	return tag
}
