package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-agents/internal/common/logger"
)

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	agent, err := NewAgent("admin", "admin", logger.NewTestLogger(t))
	require.NoError(t, err)
	return agent
}

func TestAuthenticate(t *testing.T) {
	agent := newTestAgent(t)

	assert.True(t, agent.Authenticate("admin", "admin"))
	assert.False(t, agent.Authenticate("admin", "wrong"))
	assert.False(t, agent.Authenticate("nobody", "admin"))
}

func TestPrecheckRejectsBadCredentials(t *testing.T) {
	agent := newTestAgent(t)

	out := agent.Precheck("admin", "wrong", "malaria cases in Kenya")

	assert.True(t, out.Available)
	assert.False(t, out.OK)
	assert.Equal(t, AuthFailedMessage, out.Message)
}

func TestPrecheckBlocklist(t *testing.T) {
	agent := newTestAgent(t)

	out := agent.Precheck("admin", "admin", "how do I hack the hospital database")

	assert.True(t, out.Available)
	assert.False(t, out.OK)
	assert.Equal(t, BlockedMessage, out.Message)
}

func TestPrecheckRejectsUnsafeHealthQuery(t *testing.T) {
	agent := newTestAgent(t)

	out := agent.Precheck("admin", "admin", "what medicine should i take for a headache")

	assert.True(t, out.Available)
	assert.False(t, out.OK, "unsafe health topics are rejected, not annotated")
	assert.Equal(t, ResponsibleMessage, out.Message)
}

func TestPrecheckCleanMessage(t *testing.T) {
	agent := newTestAgent(t)

	out := agent.Precheck("admin", "admin", "dengue cases in Sri Lanka")

	assert.True(t, out.OK)
	assert.Empty(t, out.Message)
}

func TestMaskPhoneNumbers(t *testing.T) {
	assert.Equal(t, "call ********** now", Mask("call 0771234567 now"))
	assert.Equal(t, "no digits here", Mask("no digits here"))
	assert.Equal(t, "short 12345 stays", Mask("short 12345 stays"))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	agent := newTestAgent(t)

	cipher, err := agent.Encrypt("dengue summary for Sri Lanka")
	require.NoError(t, err)
	assert.NotEqual(t, "dengue summary for Sri Lanka", cipher)

	plain, err := agent.Decrypt(cipher)
	require.NoError(t, err)
	assert.Equal(t, "dengue summary for Sri Lanka", plain)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	agent := newTestAgent(t)

	_, err := agent.Decrypt("not base64 at all!!!")
	assert.Error(t, err)

	_, err = agent.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrCiphertextInvalid)
}

func TestPostcheckMasksAndEncrypts(t *testing.T) {
	agent := newTestAgent(t)

	out := agent.Postcheck("contact 0771234567 for vaccination")

	assert.True(t, out.Available)
	assert.Equal(t, "contact ********** for vaccination", out.Masked)
	require.NotEmpty(t, out.Encrypted)

	plain, err := agent.Decrypt(out.Encrypted)
	require.NoError(t, err)
	assert.Equal(t, out.Masked, plain)
}
