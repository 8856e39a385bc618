package auth

import (
	"context"
	"testing"

	"github.com/dp-pcs/noah-hw-mcp/lib/portal"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/portaltest"

	"github.com/stretchr/testify/require"
)

const (
	baseUrl  = "https://portal.example.com"
	loginUrl = "https://portal.example.com/login"
)

const loggedOutHome = `<html><body><a href="/login">Sign in to view</a></body></html>`

const loginForm = `<html><body><form>
	<input name="username" type="text">
	<input name="password" type="password">
	<input type="submit" value="Sign in">
</form></body></html>`

const dashboard = `<html><body>
	<nav><a href="/logout">Logout</a></nav>
	<h1>Dashboard</h1>
	<a href="/grades">Grades</a>
</body></html>`

func testAuthenticator(creds portal.Credentials) Authenticator {
	return New(Options{
		BaseUrl:     baseUrl,
		LoginUrl:    loginUrl,
		Credentials: creds,
	})
}

func creds() portal.Credentials {
	return portal.Credentials{Username: "parent@example.com", Password: "hunter2"}
}

func TestAlreadyLoggedIn(t *testing.T) {
	page := portaltest.NewPage(map[string]string{baseUrl: dashboard})
	sess := &portaltest.Session{P: page}

	state, err := testAuthenticator(creds()).EnsureLoggedIn(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, AlreadyLoggedIn, state)
	require.True(t, state.Authenticated())

	// detection must not touch the login page or persist anything
	require.Equal(t, []string{baseUrl}, page.Navigations)
	require.Zero(t, sess.Persists)
	require.Empty(t, page.Filled)
}

func TestLoginFlow(t *testing.T) {
	page := portaltest.NewPage(map[string]string{
		baseUrl:  loggedOutHome,
		loginUrl: loginForm,
	})
	clicks := 0
	page.OnAction = func(kind, selector, value string) {
		if kind != "click" {
			return
		}
		clicks++
		// the portal redirects to the dashboard after the password
		// submit
		if clicks == 2 {
			page.SetHTML(dashboard)
		}
	}
	sess := &portaltest.Session{P: page}

	state, err := testAuthenticator(creds()).EnsureLoggedIn(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, LoggedIn, state)
	require.True(t, state.Authenticated())

	require.Equal(t, "parent@example.com", page.Filled["input[name='username']"])
	require.Equal(t, "hunter2", page.Filled["input[name='password']"])
	require.Equal(t, 1, sess.Persists)
}

func TestLoginPasswordOnSecondScreen(t *testing.T) {
	usernameScreen := `<html><body><form>
		<input name="loginfmt" type="email">
		<input type="submit" value="Next">
	</form></body></html>`
	passwordScreen := `<html><body><form>
		<input name="passwd" type="password">
		<input type="submit" value="Sign in">
	</form></body></html>`

	page := portaltest.NewPage(map[string]string{
		baseUrl:  loggedOutHome,
		loginUrl: usernameScreen,
	})
	clicks := 0
	page.OnAction = func(kind, selector, value string) {
		if kind != "click" {
			return
		}
		clicks++
		switch clicks {
		case 1:
			page.SetHTML(passwordScreen)
		case 2:
			page.SetHTML(dashboard)
		}
	}
	sess := &portaltest.Session{P: page}

	state, err := testAuthenticator(creds()).EnsureLoggedIn(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, LoggedIn, state)
	require.Equal(t, "parent@example.com", page.Filled["input[name='loginfmt']"])
	require.Equal(t, "hunter2", page.Filled["input[name='passwd']"])
}

func TestLoginEnterFallback(t *testing.T) {
	// a form with no recognizable submit control
	form := `<html><body><form>
		<input name="username" type="text">
		<input name="password" type="password">
	</form></body></html>`

	page := portaltest.NewPage(map[string]string{
		baseUrl:  loggedOutHome,
		loginUrl: form,
	})
	enters := 0
	page.OnAction = func(kind, selector, value string) {
		if kind != "enter" {
			return
		}
		enters++
		if enters == 2 {
			page.SetHTML(dashboard)
		}
	}
	sess := &portaltest.Session{P: page}

	state, err := testAuthenticator(creds()).EnsureLoggedIn(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, LoggedIn, state)
	require.Equal(t, 2, page.EnterPresses)
}

func TestLoginNoUsernameField(t *testing.T) {
	page := portaltest.NewPage(map[string]string{
		baseUrl:  loggedOutHome,
		loginUrl: `<html><body><p>The portal is down for maintenance.</p></body></html>`,
	})
	sess := &portaltest.Session{P: page}

	state, err := testAuthenticator(creds()).EnsureLoggedIn(context.Background(), sess)
	require.ErrorIs(t, err, NoUsernameField)
	require.Equal(t, LoginFailed, state)
	require.False(t, state.Authenticated())
	require.Zero(t, sess.Persists)
}

func TestLoginNoPasswordField(t *testing.T) {
	usernameOnly := `<html><body><form>
		<input name="username" type="text">
		<input type="submit" value="Next">
	</form></body></html>`

	page := portaltest.NewPage(map[string]string{
		baseUrl:  loggedOutHome,
		loginUrl: usernameOnly,
	})
	sess := &portaltest.Session{P: page}

	state, err := testAuthenticator(creds()).EnsureLoggedIn(context.Background(), sess)
	require.ErrorIs(t, err, NoPasswordField)
	require.Equal(t, LoginFailed, state)
}

func TestLoginWithoutSuccessMarkers(t *testing.T) {
	// submits go through but the portal serves the form back, the
	// classic wrong-password shape
	page := portaltest.NewPage(map[string]string{
		baseUrl:  loggedOutHome,
		loginUrl: loginForm,
	})
	sess := &portaltest.Session{P: page}

	state, err := testAuthenticator(creds()).EnsureLoggedIn(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, LoginFailed, state)
	require.False(t, state.Authenticated())

	// state is persisted even for a failed-looking attempt
	require.Equal(t, 1, sess.Persists)
}

func TestMissingCredentials(t *testing.T) {
	page := portaltest.NewPage(map[string]string{baseUrl: loggedOutHome})
	sess := &portaltest.Session{P: page}

	state, err := testAuthenticator(portal.Credentials{}).EnsureLoggedIn(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, NeedsLogin, state)

	// never reaches the login page without credentials
	require.Equal(t, []string{baseUrl}, page.Navigations)
	require.Zero(t, sess.Persists)
}

func TestCaptureScreenshots(t *testing.T) {
	page := portaltest.NewPage(map[string]string{
		baseUrl:  loggedOutHome,
		loginUrl: loginForm,
	})
	sess := &portaltest.Session{P: page}

	a := New(Options{
		BaseUrl:     baseUrl,
		LoginUrl:    loginUrl,
		Credentials: creds(),
		CaptureDir:  t.TempDir(),
	})
	_, err := a.EnsureLoggedIn(context.Background(), sess)
	require.NoError(t, err)

	require.Len(t, page.Screenshots, 4)
	require.Contains(t, page.Screenshots[0], "login_page.png")
	require.Contains(t, page.Screenshots[3], "after_login.png")
}
