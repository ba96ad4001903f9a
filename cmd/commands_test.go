package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datamart/internal/cli"
	"datamart/internal/testing/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliHarness runs datamart commands against a fake marketplace. Runs share a
// config directory, so a token stored by one run is restored by the next.
type cliHarness struct {
	t   *testing.T
	srv *mock.MarketplaceServer
	dir string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	srv := mock.NewMarketplaceServer(mock.MarketplaceConfig{})
	t.Cleanup(srv.Close)
	srv.AddAccount("ada@example.com", "secret", map[string]any{
		"id": 1, "email": "ada@example.com", "full_name": "Ada Lovelace", "role": "user",
	})

	dir := t.TempDir()
	body := "api:\n  url: " + srv.URL() +
		"\nauth:\n  tokenDir: " + filepath.Join(dir, "tokens") +
		"\n  providers:\n    google:\n      clientId: google-client\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0600))

	return &cliHarness{t: t, srv: srv, dir: dir}
}

// run executes one command with stdin and returns its stdout and error.
func (h *cliHarness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	root := newRootCmd(&cli.CommandFlags{})

	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--config-path", h.dir))

	err := root.Execute()
	return out.String(), err
}

func (h *cliHarness) login() {
	h.t.Helper()
	out, err := h.run("secret\n", "auth", "login", "ada@example.com", "--password-stdin")
	require.NoError(h.t, err)
	require.Contains(h.t, out, "✓ Logged in as Ada Lovelace")
}

func TestAuthCommands(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run("", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in to "+h.srv.URL())

	h.login()

	out, err = h.run("", "auth", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in to "+h.srv.URL())
	assert.Contains(t, out, "Email:  ada@example.com")

	_, err = h.run("", "auth", "logout")
	require.NoError(t, err)
	assert.Equal(t, 1, h.srv.RequestCount("POST", "/api/auth/logout"))

	out, err = h.run("", "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "⚠ Not logged in")
}

func TestAuthLogin_Failures(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("wrong\n", "auth", "login", "ada@example.com", "--password-stdin")
	require.Error(t, err)
	assert.Equal(t, ExitCodeAuthFailed, getExitCode(err))
	assert.Contains(t, err.Error(), "Incorrect email or password")

	_, err = h.run("\n", "auth", "login", "ada@example.com", "--password-stdin")
	require.Error(t, err)
	assert.Equal(t, ExitCodeInvalidInput, getExitCode(err))

	_, err = h.run("", "auth", "login", "ada@example.com", "--provider", "google")
	require.Error(t, err)
	assert.Equal(t, ExitCodeInvalidInput, getExitCode(err))

	assert.Zero(t, h.srv.RequestCount("POST", "/api/auth/oauth/callback"))
}

func TestAuthRegisterAndVerify(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("pw1\npw2\n", "auth", "register", "grace@example.com", "--password-stdin")
	require.Error(t, err)
	assert.Equal(t, ExitCodeInvalidInput, getExitCode(err))
	assert.Zero(t, h.srv.RequestCount("POST", "/api/auth/register"))

	out, err := h.run("pw\npw\n", "auth", "register", "grace@example.com", "--name", "Grace Hopper", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Account created.")
	assert.Contains(t, out, "datamart auth verify")

	h.srv.AddVerificationToken("vt-1", "grace@example.com")
	out, err = h.run("", "auth", "verify", "https://datamart.example.com/verify-email?token=vt-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Email verified.")
	assert.True(t, h.srv.Verified("grace@example.com"))

	out, err = h.run("", "auth", "verify", "vt-unknown")
	require.Error(t, err)
	assert.Contains(t, out, "Verification failed")
}

func TestProtectedPages_RequireSession(t *testing.T) {
	h := newCLIHarness(t)

	for _, args := range [][]string{
		{"dashboard"},
		{"explorer", "--category", "sensor"},
		{"subscriptions"},
		{"settings"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, err := h.run("", args...)
			require.Error(t, err)
			assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
			assert.Contains(t, err.Error(), "datamart auth login")
		})
	}

	assert.Zero(t, h.srv.RequestCount("GET", "/api/dashboard"))
}

func TestOpen_RendersLoginWithoutSession(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run("", "open", "/settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Log in to continue to /settings.")
}

func TestPages(t *testing.T) {
	h := newCLIHarness(t)
	h.srv.AddDataPoint(map[string]any{"category": "sensor", "quality": "high", "value": 21.5})
	h.login()

	out, err := h.run("", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Overview")

	out, err = h.run("", "explorer", "--category", "sensor", "--quality", "high", "-o", "json")
	require.NoError(t, err)
	var points []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &points))
	assert.Len(t, points, 1)

	_, err = h.run("", "explorer", "--start", "yesterday")
	require.Error(t, err)
	assert.Equal(t, ExitCodeInvalidInput, getExitCode(err))

	out, err = h.run("", "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "No API keys")
}

func TestSubscriptionCommands(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out, err := h.run("", "subscriptions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No subscriptions")

	out, err = h.run("", "subscriptions", "create", "sensor",
		"--filter", "quality=high", "--notify", "https://hooks.example.com/dm", "-o", "json")
	require.NoError(t, err)
	var created map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "sensor", created["category"])
	assert.Equal(t, 1, h.srv.SubscriptionCount())

	out, err = h.run("", "subscriptions", "update", id, "--active=false", "-o", "json")
	require.NoError(t, err)
	var updated map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, false, updated["is_active"])

	out, err = h.run("", "subs", "rm", id)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted subscription "+id)
	assert.Zero(t, h.srv.SubscriptionCount())

	_, err = h.run("", "subscriptions", "delete", "a/b")
	require.Error(t, err)
	assert.Equal(t, ExitCodeInvalidInput, getExitCode(err))
}

func TestAPIKeyCommands(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("", "api-keys", "create", "ci")
	require.Error(t, err)
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))

	h.login()

	out, err := h.run("", "api-keys", "create", "ci", "-o", "json")
	require.NoError(t, err)
	var key map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &key))
	id, _ := key["id"].(string)
	require.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(key["key"].(string), "dm_"))

	out, err = h.run("", "api-keys", "revoke", id)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Revoked API key "+id)
}

func TestDataSubmitCommand(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("", "explorer", "submit", "sensor", "21.5")
	require.Error(t, err)
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))

	h.login()

	out, err := h.run("", "explorer", "submit", "sensor", "21.5", "--lat", "51.5", "--lon", "-0.12", "-o", "json")
	require.NoError(t, err)
	var point map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &point))
	assert.Equal(t, 21.5, point["value"])
	assert.Equal(t, "sensor", point["category"])
	assert.Equal(t, 1, h.srv.DataPointCount())

	out, err = h.run("", "data", "upload", "market", "rising", "--privacy", "public")
	require.NoError(t, err)
	assert.Contains(t, out, "rising")
	assert.Equal(t, 2, h.srv.DataPointCount())

	out, err = h.run("", "explorer", "--category", "market", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "value: rising")

	for _, args := range [][]string{
		{"explorer", "submit", "weather", "1"},
		{"explorer", "submit", "sensor", "1", "--lat", "10"},
		{"explorer", "submit", "sensor", "1", "--lat", "95", "--lon", "0"},
	} {
		_, err = h.run("", args...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, ExitCodeInvalidInput, getExitCode(err), "%v", args)
	}
	assert.Equal(t, 2, h.srv.RequestCount("POST", "/api/data/submit"))
}

func TestSettingsCommands(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out, err := h.run("", "settings", "profile", "--organization", "Analytical Engines")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:          Ada Lovelace")
	assert.Contains(t, out, "Organization:  Analytical Engines")

	out, err = h.run("", "settings", "notifications", "--webhook=false", "--failure-alerts=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Notifications: email\n")

	out, err = h.run("", "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Organization:  Analytical Engines")
	assert.Contains(t, out, "Notifications: email")

	_, err = h.run("", "settings", "profile")
	require.Error(t, err)
	assert.Equal(t, ExitCodeInvalidInput, getExitCode(err))

	_, err = h.run("", "settings", "notify")
	require.Error(t, err)
	assert.Equal(t, ExitCodeInvalidInput, getExitCode(err))
	assert.Equal(t, 1, h.srv.RequestCount("PUT", "/api/settings/notifications"))
}

func TestInvalidOutputFormat(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("", "auth", "status", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCodeInvalidInput, getExitCode(err))
}
