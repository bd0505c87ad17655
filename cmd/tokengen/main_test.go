package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/credential-auth/internal/domain"
	"github.com/baechuer/credential-auth/internal/token"
)

func testCodec(t *testing.T) *token.Codec {
	t.Helper()
	c, err := token.NewCodec(token.Config{
		SigningKey: []byte(strings.Repeat("k", 64)),
		Issuer:     "issuer",
		Audience:   "audience",
		Lifetime:   time.Hour,
	})
	require.NoError(t, err)
	return c
}

func TestMint_WritesVerifiableTokens(t *testing.T) {
	codec := testCodec(t)
	var buf bytes.Buffer

	first, err := mint(codec, 3, &buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, first, lines[0])

	seen := map[string]bool{}
	for _, l := range lines {
		c, err := codec.Verify(l)
		require.NoError(t, err)
		assert.False(t, seen[c.Subject], "subjects must be unique")
		seen[c.Subject] = true
	}
}

func TestMint_Zero(t *testing.T) {
	var buf bytes.Buffer
	first, err := mint(testCodec(t), 0, &buf)
	require.NoError(t, err)
	assert.Empty(t, first)
	assert.Zero(t, buf.Len())
}

type failingIssuer struct{}

func (failingIssuer) Issue(*domain.User) (string, error) { return "", errors.New("boom") }

func TestMint_IssueError(t *testing.T) {
	_, err := mint(failingIssuer{}, 2, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue token 0")
}

func TestCheckToken_SendsBearer(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status, err := checkToken(context.Background(), srv.Client(), srv.URL+"/", "abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/api/auth/me", gotPath)
	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestRun_MissingConfig_Returns1(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "")
	assert.Equal(t, 1, run(1, "", "", zerolog.Nop()))
}
