package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connerkward/every-time/internal/timer"
)

type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	return cliEnv{configDir: t.TempDir(), dataDir: t.TempDir()}
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--config", e.configDir, "--data-dir", e.dataDir}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestTimersLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "timers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No timers defined")

	out, err = env.run(t, "timers", "add", "Writing", "work@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `Added timer "Writing"`)

	_, err = env.run(t, "timers", "add", "Writing", "other")
	assert.ErrorContains(t, err, "already exists")

	_, err = env.run(t, "timers", "save", "Writing", "deep@example.com")
	require.NoError(t, err)

	out, err = env.run(t, "timers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Writing  (deep@example.com)")

	out, err = env.run(t, "toggle", "Writing")
	require.NoError(t, err)
	assert.Contains(t, out, "Writing started at")

	out, err = env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Authentication: Required")
	assert.Contains(t, out, "Writing")
	assert.NotContains(t, out, "No timers running")

	out, err = env.run(t, "toggle", "Writing")
	require.NoError(t, err)
	assert.Contains(t, out, "Writing stopped after 0m")
	assert.Contains(t, out, "nothing recorded")

	out, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions recorded yet")

	out, err = env.run(t, "timers", "delete", "Writing")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted timer "Writing"`)

	_, err = env.run(t, "timers", "delete", "Writing")
	assert.ErrorIs(t, err, timer.ErrTimerNotFound)
}

func TestToggleUnknownTimer(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "toggle", "Nope")
	assert.ErrorIs(t, err, timer.ErrTimerNotFound)
}

func TestCalendarsRequiresAuth(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "calendars")
	assert.ErrorContains(t, err, "authentication required")
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "0m", formatMinutes(0))
	assert.Equal(t, "59m", formatMinutes(59))
	assert.Equal(t, "1h00m", formatMinutes(60))
	assert.Equal(t, "2h05m", formatMinutes(125))
}
