package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/hollybot/dashboard/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "hollybot-dashboard"

func newTestCodec(t *testing.T) *jwtx.HS256Codec {
	t.Helper()
	codec, err := jwtx.NewHS256Codec([]byte("a-test-signing-secret"), testIssuer)
	require.NoError(t, err)
	return codec
}

func TestHS256SignAndVerify(t *testing.T) {
	codec := newTestCodec(t)

	now := time.Now().UTC()
	claims := jwtx.NewSessionClaims("123456789", "alice", testIssuer, time.Hour, now)

	token, err := codec.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "123456789", parsed.Subject)
	require.Equal(t, "alice", parsed.Username)
	require.Equal(t, testIssuer, parsed.Issuer)
	require.NotEmpty(t, parsed.ID)
}

func TestHS256RejectsEmptySecret(t *testing.T) {
	_, err := jwtx.NewHS256Codec(nil, testIssuer)
	require.Error(t, err)
}

func TestHS256VerifyFailsForTamperedToken(t *testing.T) {
	codec := newTestCodec(t)

	claims := jwtx.NewSessionClaims("123456789", "alice", testIssuer, time.Hour, time.Now().UTC())
	token, err := codec.Sign(claims)
	require.NoError(t, err)

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = codec.Verify(tampered)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestHS256VerifyFailsForWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := jwtx.NewHS256Codec([]byte("a-different-secret"), testIssuer)
	require.NoError(t, err)

	token, err := codec.Sign(jwtx.NewSessionClaims("1", "", testIssuer, time.Hour, time.Now().UTC()))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestHS256VerifyFailsForExpiredToken(t *testing.T) {
	codec := newTestCodec(t)

	issued := time.Now().UTC().Add(-2 * time.Hour)
	token, err := codec.Sign(jwtx.NewSessionClaims("1", "", testIssuer, time.Hour, issued))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestHS256VerifyFailsForWrongIssuer(t *testing.T) {
	codec := newTestCodec(t)
	other, err := jwtx.NewHS256Codec([]byte("a-test-signing-secret"), "someone-else")
	require.NoError(t, err)

	token, err := codec.Sign(jwtx.NewSessionClaims("1", "", testIssuer, time.Hour, time.Now().UTC()))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestHS256VerifyFailsForGarbage(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.Verify("not-a-jwt")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}
