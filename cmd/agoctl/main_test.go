package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ag-office-console/internal/apiclient/apiclienttest"
)

type cliFixture struct {
	upstream    *apiclienttest.Server
	sessionFile string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	upstream := apiclienttest.New(t, apiclienttest.User{
		Email:       "a@x.com",
		Password:    "secret",
		FullName:    "Alice Martin",
		Role:        "MANAGER",
		Permissions: []string{"suppliers:read"},
	})
	return &cliFixture{
		upstream:    upstream,
		sessionFile: filepath.Join(t.TempDir(), ".agoffice", "session.json"),
	}
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	full := append([]string{"agoctl", "--session-file", f.sessionFile}, args...)
	err := app.RunContext(context.Background(), full)
	return out.String(), err
}

func (f *cliFixture) login(t *testing.T) {
	t.Helper()
	out, err := f.run(t, "--api", f.upstream.URL, "login", "-e", "a@x.com", "-p", "secret")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as a@x.com (MANAGER)")
}

func TestLoginPersistsSessionAndAddress(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)

	info, err := os.Stat(f.sessionFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := f.run(t, "whoami", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "a@x.com"`)
	assert.Contains(t, out, `"suppliers:read"`)
	assert.Contains(t, out, `"state": "authenticated"`)
}

func TestLoginWithWrongPassword(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "--api", f.upstream.URL, "login", "-e", "a@x.com", "-p", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to sign in, check your credentials")
	_, statErr := os.Stat(f.sessionFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCommandsRequireSession(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "--api", f.upstream.URL, "whoami")
	assert.ErrorIs(t, err, errNotSignedIn)

	_, err = f.run(t, "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API address configured")
}

func TestLogoutKeepsAPIAddress(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)

	out, err := f.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logout was successful.")
	assert.Equal(t, 0, f.upstream.SessionCount())

	_, err = f.run(t, "whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestSessionsListAndRevoke(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)
	other := f.upstream.StartSession("a@x.com", "Android 14")

	out, err := f.run(t, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CURRENT?")
	assert.Contains(t, out, other)
	assert.Contains(t, out, "mobile")

	_, err = f.run(t, "sessions", "revoke", other)
	require.NoError(t, err)
	assert.Equal(t, 1, f.upstream.SessionCount())

	_, err = f.run(t, "sessions", "revoke")
	assert.Error(t, err)
}

func TestMenuShowsPermittedEntries(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)

	out, err := f.run(t, "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "/suppliers")
	assert.NotContains(t, out, "/products")
}

func TestLogoutAll(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)
	f.upstream.StartSession("a@x.com", "Firefox on Linux")

	_, err := f.run(t, "logout-all", "-p", "nope")
	require.Error(t, err)
	assert.Equal(t, 2, f.upstream.SessionCount())

	out, err := f.run(t, "logout-all", "-p", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out of 2 session(s).")

	_, err = f.run(t, "whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestOutputFormatIsValidated(t *testing.T) {
	assert.NoError(t, validateOutputFormat("YAML"))
	assert.Error(t, validateOutputFormat("xml"))
}
