// -- cmd/cmd_test.go --
package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/orbi-cli/internal/worker"
)

func TestParseTargetTime(t *testing.T) {
	target, err := parseTargetTime("00:00:00")
	require.NoError(t, err)
	assert.Equal(t, &worker.TargetTime{Hour: 0, Minute: 0, Second: 0}, target)

	target, err = parseTargetTime("23:59:59")
	require.NoError(t, err)
	assert.Equal(t, &worker.TargetTime{Hour: 23, Minute: 59, Second: 59}, target)

	_, err = parseTargetTime("24:00:00")
	assert.Error(t, err)
	_, err = parseTargetTime("12:60:00")
	assert.Error(t, err)
	_, err = parseTargetTime("noon")
	assert.Error(t, err)
}

func TestResolveCredentials(t *testing.T) {
	viper.Set("username", "alice")
	viper.Set("password", "secret")
	defer func() {
		viper.Set("username", "")
		viper.Set("password", "")
	}()

	creds, err := resolveCredentials(true)
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "secret", creds.Password)
}

func TestResolveCredentialsMissing(t *testing.T) {
	viper.Set("username", "")
	viper.Set("password", "")

	_, err := resolveCredentials(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORBI_USERNAME")

	// Public actions run without credentials.
	_, err = resolveCredentials(false)
	assert.NoError(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"checkin", "comment", "lottery", "posts", "harvest", "search"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
