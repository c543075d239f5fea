// Package auth provides bearer tokens for the remote contract source.
// Providers are tried in order; the first one that yields a token wins.
package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultTokenEnv is the environment variable read when none is configured.
const DefaultTokenEnv = "CWP_SOURCE_TOKEN"

// ErrNoToken is returned when no provider could supply a token.
var ErrNoToken = errors.New("no source token available")

// TokenProvider defines the interface for obtaining an authentication token.
type TokenProvider interface {
	GetToken() (string, error)
}

// StaticProvider returns a fixed token.
type StaticProvider struct {
	Token string
}

// GetToken returns the configured token, or an error when it is empty.
func (s *StaticProvider) GetToken() (string, error) {
	if strings.TrimSpace(s.Token) == "" {
		return "", errors.New("static token is empty")
	}
	return s.Token, nil
}

// EnvProvider obtains tokens from an environment variable.
type EnvProvider struct {
	Var string // Defaults to DefaultTokenEnv
}

// GetToken reads the environment variable.
// Returns an error if the variable is not set or is empty.
func (e *EnvProvider) GetToken() (string, error) {
	name := e.Var
	if name == "" {
		name = DefaultTokenEnv
	}
	token := strings.TrimSpace(os.Getenv(name))
	if token == "" {
		return "", fmt.Errorf("%s environment variable not set or empty", name)
	}
	return token, nil
}

// CommandProvider obtains tokens by running a helper command and reading
// its standard output.
type CommandProvider struct {
	Name string
	Args []string
}

// GetToken runs the command and returns its trimmed output.
func (c *CommandProvider) GetToken() (string, error) {
	cmd := exec.Command(c.Name, c.Args...)
	output, err := cmd.Output()
	if err != nil {
		if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
			return "", fmt.Errorf("%s not found in PATH", c.Name)
		}
		return "", fmt.Errorf("%s failed: %w", c.Name, err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", fmt.Errorf("%s returned empty token", c.Name)
	}
	return token, nil
}

// Chain tries each provider in order.
type Chain []TokenProvider

// GetToken returns the first token produced. When every provider fails the
// error wraps ErrNoToken and lists each failure.
func (c Chain) GetToken() (string, error) {
	var errs []error
	for _, p := range c {
		token, err := p.GetToken()
		if err == nil {
			return token, nil
		}
		errs = append(errs, err)
	}
	return "", fmt.Errorf("%w: %w", ErrNoToken, errors.Join(errs...))
}

// GetToken obtains a token from the environment variable envVar (or
// DefaultTokenEnv when blank).
func GetToken(envVar string) (string, error) {
	token, err := Chain{&EnvProvider{Var: envVar}}.GetToken()
	if err != nil {
		return "", fmt.Errorf(
			"%w.\nSet the %s environment variable to a token accepted by the contract source",
			err, envOr(envVar),
		)
	}
	return token, nil
}

func envOr(name string) string {
	if name == "" {
		return DefaultTokenEnv
	}
	return name
}
