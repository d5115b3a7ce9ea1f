package security

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		hidden   string
	}{
		{"bearer header", "Authorization: Bearer ya29.secretvalue", "[REDACTED]", "ya29.secretvalue"},
		{"callback code", "GET /?code=4/0AbCdEf&state=xyz", "code=[REDACTED]", "4/0AbCdEf"},
		{"refresh token json", `{"refresh_token":"1//0gSecret"}`, "refresh_token", "1//0gSecret"},
		{"email", "calendar owner jane.doe@example.com", "[REDACTED]", "jane.doe@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := redactSensitiveData(tt.input)
			assert.Contains(t, out, tt.contains)
			assert.NotContains(t, out, tt.hidden)
		})
	}
}

func TestRedactURLSecrets(t *testing.T) {
	out := redactURLSecrets("http://localhost:8080/?state=abc&code=secret-code&scope=calendar")
	assert.Equal(t, "http://localhost:8080/?state=[REDACTED]&code=[REDACTED]&scope=calendar", out)
	assert.Equal(t, "http://localhost:8080/", redactURLSecrets("http://localhost:8080/"))
}

func TestSecureLoggerRedactsAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecureLoggerTo(&buf, slog.LevelDebug, true)

	l.LogAuthEvent("code_exchange", false, map[string]any{
		"error": "oauth2: access_token=ya29.leaked",
	})

	out := buf.String()
	assert.Contains(t, out, `"operation":"code_exchange"`)
	assert.NotContains(t, out, "ya29.leaked")
}

func TestSecureLoggerSilentWhenNotVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecureLoggerTo(&buf, slog.LevelDebug, false)

	l.LogSecurityEvent("listener_started", SeverityCritical, nil)
	l.Error("boom")

	assert.Empty(t, buf.String())
}

func TestTypedErrorsUnwrap(t *testing.T) {
	cause := assert.AnError
	err := NewTokenError("save", "failed to write token").WithCause(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "token save failed")

	lerr := NewListenerError("localhost", 8080, "address in use").WithCause(cause)
	assert.ErrorIs(t, lerr, cause)
	assert.Equal(t, "redirect listener on localhost:8080: address in use", lerr.Error())

	assert.Equal(t, "CRITICAL", SeverityCritical.String())
}
