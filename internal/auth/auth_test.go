package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_GetToken(t *testing.T) {
	token, err := (&StaticProvider{Token: "abc"}).GetToken()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = (&StaticProvider{Token: "  "}).GetToken()
	assert.Error(t, err)
}

func TestEnvProvider_GetToken_Success(t *testing.T) {
	t.Setenv("CWP_TEST_TOKEN", "tok_123")

	provider := &EnvProvider{Var: "CWP_TEST_TOKEN"}
	token, err := provider.GetToken()

	require.NoError(t, err)
	assert.Equal(t, "tok_123", token)
}

func TestEnvProvider_GetToken_DefaultVar(t *testing.T) {
	t.Setenv(DefaultTokenEnv, "tok_default")

	token, err := (&EnvProvider{}).GetToken()

	require.NoError(t, err)
	assert.Equal(t, "tok_default", token)
}

func TestEnvProvider_GetToken_Missing(t *testing.T) {
	t.Setenv("CWP_TEST_TOKEN", "")

	provider := &EnvProvider{Var: "CWP_TEST_TOKEN"}
	token, err := provider.GetToken()

	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Contains(t, err.Error(), "CWP_TEST_TOKEN")
}

func TestCommandProvider_NotFound(t *testing.T) {
	provider := &CommandProvider{Name: "cwp-no-such-token-helper"}
	token, err := provider.GetToken()

	assert.Empty(t, token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in PATH")
}

func TestChain_FirstSuccessWins(t *testing.T) {
	t.Setenv("CWP_TEST_TOKEN", "")

	chain := Chain{
		&EnvProvider{Var: "CWP_TEST_TOKEN"},
		&StaticProvider{Token: "fallback"},
		&StaticProvider{Token: "unused"},
	}
	token, err := chain.GetToken()

	require.NoError(t, err)
	assert.Equal(t, "fallback", token)
}

func TestChain_AllFail(t *testing.T) {
	t.Setenv("CWP_TEST_TOKEN", "")

	_, err := Chain{&EnvProvider{Var: "CWP_TEST_TOKEN"}, &StaticProvider{}}.GetToken()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoToken))
	assert.Contains(t, err.Error(), "CWP_TEST_TOKEN")
	assert.Contains(t, err.Error(), "static token is empty")
}

func TestGetToken(t *testing.T) {
	t.Setenv("CWP_TEST_TOKEN", "tok_env")
	token, err := GetToken("CWP_TEST_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "tok_env", token)

	t.Setenv("CWP_TEST_TOKEN", "")
	_, err = GetToken("CWP_TEST_TOKEN")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Contains(t, err.Error(), "Set the CWP_TEST_TOKEN environment variable")
}

func TestTokenProvider_Interface(t *testing.T) {
	var _ TokenProvider = &StaticProvider{}
	var _ TokenProvider = &EnvProvider{}
	var _ TokenProvider = &CommandProvider{}
	var _ TokenProvider = Chain{}
}
