package ledger

import (
	"bytes"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventolog/ventolog/internal/record"
	"github.com/ventolog/ventolog/internal/store"
)

func TestIssueCodeFormat(t *testing.T) {
	// Default crypto randomness: only the shape is predictable.
	st := store.Open(filepath.Join(t.TempDir(), "data.json"))
	l := New(st)

	code, err := l.IssueCode()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), code)
}

func TestIssueCodePersistsCredential(t *testing.T) {
	l, st, _ := newTestLedger(t)

	code, err := l.IssueCode()
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", code, "scripted randomness yields a fixed code")

	cred := storedCredential(t, st, code)
	assert.Equal(t, testStart, cred.CreatedAt)
	assert.Empty(t, cred.Token, "no token until one is requested")
	assert.True(t, cred.LastLoginAt.IsZero(), "no login recorded yet")
}

func TestIssueCodeRerollsOnCollision(t *testing.T) {
	st := store.Open(filepath.Join(t.TempDir(), "data.json"))
	seedCredential(t, st, record.Credential{Code: "AAAAAA", CreatedAt: testStart})

	// First draw produces the taken AAAAAA, second draw BBBBBB.
	script := bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1})
	l := New(st, WithRandom(script))

	code, err := l.IssueCode()
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", code, "collision must re-roll, not fail or reuse")

	exists, err := l.CodeExists("BBBBBB")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIssueCodeGivesUpAfterBoundedAttempts(t *testing.T) {
	st := store.Open(filepath.Join(t.TempDir(), "data.json"))
	seedCredential(t, st, record.Credential{Code: "AAAAAA", CreatedAt: testStart})

	// Every draw collides with the seeded code.
	script := bytes.NewReader(bytes.Repeat([]byte{0}, codeAttempts*codeLength))
	l := New(st, WithRandom(script))

	_, err := l.IssueCode()
	assert.Error(t, err, "endless collisions must surface as an error, not spin")
}

func TestAuthenticateCodeStampsLastLogin(t *testing.T) {
	l, st, clock := newTestLedger(t)
	code, err := l.IssueCode()
	require.NoError(t, err)

	clock.Advance(time.Hour)
	require.NoError(t, l.AuthenticateCode(code))

	cred := storedCredential(t, st, code)
	assert.Equal(t, testStart.Add(time.Hour), cred.LastLoginAt)
}

func TestAuthenticateCodeUnknown(t *testing.T) {
	l, _, _ := newTestLedger(t)

	err := l.AuthenticateCode("GHOST0")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestIssueTokenFormat(t *testing.T) {
	st := store.Open(filepath.Join(t.TempDir(), "data.json"))
	l := New(st)
	code, err := l.IssueCode()
	require.NoError(t, err)

	token, err := l.IssueToken(code)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), token, "token is 32 random bytes as lowercase hex")
}

func TestIssueTokenIsIdempotent(t *testing.T) {
	l, st, clock := newTestLedger(t)
	code, err := l.IssueCode()
	require.NoError(t, err)

	first, err := l.IssueToken(code)
	require.NoError(t, err)
	generatedAt := storedCredential(t, st, code).TokenGeneratedAt

	// A later re-pairing must hand back the very same token and leave
	// its generation timestamp alone.
	clock.Advance(48 * time.Hour)
	second, err := l.IssueToken(code)
	require.NoError(t, err)

	assert.Equal(t, first, second, "token must never rotate")
	assert.Equal(t, generatedAt, storedCredential(t, st, code).TokenGeneratedAt)
}

func TestIssueTokenUnknownCode(t *testing.T) {
	l, _, _ := newTestLedger(t)

	_, err := l.IssueToken("GHOST0")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestResolveTokenRoundTrip(t *testing.T) {
	l, _, _ := newTestLedger(t)

	codeA, err := l.IssueCode()
	require.NoError(t, err)
	codeB, err := l.IssueCode()
	require.NoError(t, err)

	tokenA, err := l.IssueToken(codeA)
	require.NoError(t, err)
	tokenB, err := l.IssueToken(codeB)
	require.NoError(t, err)
	require.NotEqual(t, tokenA, tokenB)

	// Each token resolves to exactly the code it was minted for.
	gotA, err := l.ResolveToken(tokenA)
	require.NoError(t, err)
	gotB, err := l.ResolveToken(tokenB)
	require.NoError(t, err)

	assert.Equal(t, codeA, gotA)
	assert.Equal(t, codeB, gotB)
}

func TestResolveTokenInvalid(t *testing.T) {
	l, _, _ := newTestLedger(t)

	_, err := l.ResolveToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = l.ResolveToken("")
	assert.ErrorIs(t, err, ErrTokenInvalid, "empty token must not match credentials without tokens")
}

func TestCodeExists(t *testing.T) {
	l, _, _ := newTestLedger(t)
	code, err := l.IssueCode()
	require.NoError(t, err)

	exists, err := l.CodeExists(code)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = l.CodeExists("GHOST0")
	require.NoError(t, err)
	assert.False(t, exists)
}
