package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentathq/mentat/internal/workflow"
)

func twitterCredentials() map[string]string {
	return map[string]string{
		"TWITTER_API_KEY":             "ck",
		"TWITTER_API_SECRET":          "cs",
		"TWITTER_ACCESS_TOKEN":        "at",
		"TWITTER_ACCESS_TOKEN_SECRET": "as",
	}
}

func TestDiscover_RegistersConfiguredWorkflows(t *testing.T) {
	reg := workflow.NewRegistry(nil)
	backend := configuredBackend("ok")
	deps := Deps{Store: newMemStore(twitterCredentials()), Backend: backend}

	registered := Discover(reg, deps)

	require.Len(t, registered, 1)
	assert.Equal(t, "twitter", registered[0].Name)
	assert.True(t, registered[0].Configured)
	assert.Equal(t, []string{"twitter"}, reg.Names())
}

func TestDiscover_SkipsUnconfiguredWorkflows(t *testing.T) {
	reg := workflow.NewRegistry(nil)
	deps := Deps{Store: newMemStore(nil), Backend: configuredBackend("ok")}

	registered := Discover(reg, deps)

	assert.Empty(t, registered)
	assert.Zero(t, reg.Len())
}

func TestDiscover_SkipsDuplicates(t *testing.T) {
	reg := workflow.NewRegistry(nil)
	require.NoError(t, reg.Register(&stubWorkflow{name: "twitter", valid: true}))

	deps := Deps{Store: newMemStore(twitterCredentials()), Backend: configuredBackend("ok")}
	registered := Discover(reg, deps)

	// The earlier registration wins; discovery carries on.
	assert.Empty(t, registered)
	assert.Equal(t, 1, reg.Len())
}

func TestAllWorkflows(t *testing.T) {
	deps := Deps{Store: newMemStore(nil), Backend: configuredBackend("ok")}

	ws := AllWorkflows(deps)
	require.Len(t, ws, 1)
	assert.Equal(t, "twitter", ws[0].Name())
	assert.False(t, ws[0].ValidateEnvironment())
}
