package signer

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSeed(t *testing.T) string {
	t.Helper()
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(seed)
}

func TestSignAndVerify(t *testing.T) {
	s, err := New(randomSeed(t))
	require.NoError(t, err)

	payload := []byte(`{"claim_id":"abc"}`)
	sig := s.Sign(payload)

	assert.True(t, Verify(s.PublicKey(), payload, sig))
	assert.False(t, Verify(s.PublicKey(), []byte(`{"claim_id":"tampered"}`), sig))
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	s, err := New(randomSeed(t))
	require.NoError(t, err)
	other, err := New(randomSeed(t))
	require.NoError(t, err)

	payload := []byte("payload")
	sig := s.Sign(payload)
	assert.False(t, Verify(other.PublicKey(), payload, sig))
}

func TestSeedIsDeterministic(t *testing.T) {
	seed := randomSeed(t)
	first, err := New(seed)
	require.NoError(t, err)
	second, err := New(seed)
	require.NoError(t, err)

	assert.Equal(t, first.PublicKey(), second.PublicKey())
	payload := []byte("payload")
	assert.True(t, Verify(second.PublicKey(), payload, first.Sign(payload)))
}

func TestEmptySeedGeneratesEphemeralKey(t *testing.T) {
	first, err := New("")
	require.NoError(t, err)
	second, err := New("")
	require.NoError(t, err)
	assert.NotEqual(t, first.PublicKey(), second.PublicKey())
}

func TestRejectsMalformedSeeds(t *testing.T) {
	_, err := New("not base64 !!!")
	require.Error(t, err)

	_, err = New(base64.StdEncoding.EncodeToString([]byte("short")))
	require.Error(t, err)
}

func TestVerifyRejectsGarbageInputs(t *testing.T) {
	assert.False(t, Verify("not base64 !!!", []byte("payload"), "sig"))

	s, err := New(randomSeed(t))
	require.NoError(t, err)
	assert.False(t, Verify(s.PublicKey(), []byte("payload"), "not base64 !!!"))
}
