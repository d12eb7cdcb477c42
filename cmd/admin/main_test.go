package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetbite/vendorhub/internal/credential"
	"github.com/streetbite/vendorhub/internal/domain"
)

func TestReadPassword(t *testing.T) {
	p, err := readPassword(strings.NewReader("long-enough-pass\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "long-enough-pass", p)

	p, err = readPassword(strings.NewReader("no-newline-at-end"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline-at-end", p)

	_, err = readPassword(strings.NewReader("short\n"))
	assert.Error(t, err)
}

func TestBuildAdminHashesPassword(t *testing.T) {
	a, err := buildAdmin(" ops ", domain.SurfaceWhatsApp, "long-enough-pass", false)
	require.NoError(t, err)
	assert.Equal(t, "ops", a.Username)

	ok, err := credential.Verify("long-enough-pass", a.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuildAdminRejectsBadInput(t *testing.T) {
	_, err := buildAdmin("", domain.SurfaceWhatsApp, "long-enough-pass", false)
	assert.Error(t, err)

	_, err = buildAdmin("ops", domain.AdminSurface("sms"), "long-enough-pass", false)
	assert.Error(t, err)

	a, err := buildAdmin("ops", domain.SurfaceEmail, "", true)
	require.NoError(t, err)
	assert.True(t, a.Disabled)
	assert.Empty(t, a.PasswordHash)
}
