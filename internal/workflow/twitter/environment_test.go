package twitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/mentathq/mentat/internal/errors"
)

// memStore is an in-memory config.Store.
type memStore struct {
	vars map[string]string
}

func newMemStore(vars map[string]string) *memStore {
	if vars == nil {
		vars = map[string]string{}
	}
	return &memStore{vars: vars}
}

func (s *memStore) Get(name string) string { return s.vars[name] }

func (s *memStore) Set(name, value string) error {
	s.vars[name] = value
	return nil
}

func (s *memStore) Unset(name string) error {
	delete(s.vars, name)
	return nil
}

func fullCredentials() map[string]string {
	return map[string]string{
		"TWITTER_API_KEY":             "ck-aaaa",
		"TWITTER_API_SECRET":          "cs-bbbb",
		"TWITTER_ACCESS_TOKEN":        "at-cccc",
		"TWITTER_ACCESS_TOKEN_SECRET": "as-dddd",
	}
}

func TestEnvironment_Exists(t *testing.T) {
	env := NewEnvironment(newMemStore(fullCredentials()), nil, nil, false)
	assert.True(t, env.Exists())

	partial := fullCredentials()
	delete(partial, "TWITTER_ACCESS_TOKEN")
	env = NewEnvironment(newMemStore(partial), nil, nil, false)
	assert.False(t, env.Exists())

	env = NewEnvironment(newMemStore(nil), nil, nil, false)
	assert.False(t, env.Exists())
}

func TestEnvironment_Status(t *testing.T) {
	partial := fullCredentials()
	delete(partial, "TWITTER_API_SECRET")
	delete(partial, "TWITTER_ACCESS_TOKEN_SECRET")

	env := NewEnvironment(newMemStore(partial), nil, nil, false)
	status := env.Status()

	assert.False(t, status.Complete)
	assert.Equal(t, []string{"TWITTER_API_SECRET", "TWITTER_ACCESS_TOKEN_SECRET"}, status.Missing)
	assert.Equal(t, []string{"TWITTER_API_KEY", "TWITTER_ACCESS_TOKEN"}, status.Configured)
}

func TestEnvironment_Status_Complete(t *testing.T) {
	env := NewEnvironment(newMemStore(fullCredentials()), nil, nil, false)
	status := env.Status()

	assert.True(t, status.Complete)
	assert.Empty(t, status.Missing)
	assert.Len(t, status.Configured, len(RequiredVars))
}

func TestEnvironment_Credentials(t *testing.T) {
	env := NewEnvironment(newMemStore(fullCredentials()), nil, nil, false)
	creds := env.Credentials()

	assert.Equal(t, "ck-aaaa", creds.APIKey)
	assert.Equal(t, "cs-bbbb", creds.APISecret)
	assert.Equal(t, "at-cccc", creds.AccessToken)
	assert.Equal(t, "as-dddd", creds.AccessSecret)
}

func TestEnvironment_Fix_Headless(t *testing.T) {
	env := NewEnvironment(newMemStore(nil), nil, nil, false)

	err := env.Fix(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsEnvironmentNotConfigured(err))
}

func TestMaskCredential(t *testing.T) {
	assert.Equal(t, "ck-a", maskCredential("ck-aaaa"))
	assert.Equal(t, "abc", maskCredential("abc"))
}
